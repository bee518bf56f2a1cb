package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phishguard/internal/domain"
	"phishguard/internal/metrics"
	"phishguard/internal/ports"
)

const (
	DefaultRateLimit  = 50
	DefaultRateWindow = 60 * time.Second

	maxBodyBytes = 64 << 10
)

type Options struct {
	Environment string
	RateLimit   int
	RateWindow  time.Duration
	// TrustProxy honours X-Forwarded-For and X-Real-IP. Enable it only behind
	// a proxy that overwrites them; otherwise clients pick their own limiter key.
	TrustProxy bool
	// ThreatIntelStatus, when set, is reported on /health.
	ThreatIntelStatus func() any
	Logger            *slog.Logger
	Now               func() time.Time
}

type Server struct {
	assessor  ports.Assessor
	analytics ports.Analytics
	limiter   *clientLimiter
	opts      Options
}

func New(assessor ports.Assessor, analytics ports.Analytics, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = DefaultRateWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		assessor:  assessor,
		analytics: analytics,
		limiter:   newClientLimiter(opts.RateLimit, opts.RateWindow, opts.Now),
		opts:      opts,
	}
}

// Routes serves every endpoint at the root and again under /api.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	endpoints := func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/health", s.health)
		r.Post("/detect", s.detect)
		r.Get("/analytics", s.summary)
	}
	r.Group(endpoints)
	r.Route("/api", endpoints)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:      "OK",
		Message:     "Phishing detection API is running",
		Timestamp:   s.opts.Now().UTC(),
		Environment: s.opts.Environment,
	}
	if s.opts.ThreatIntelStatus != nil {
		resp.ThreatIntel = s.opts.ThreatIntelStatus()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	meta := domain.RequestMeta{IPAddress: clientAddr(r), UserAgent: r.UserAgent()}
	a, err := s.assessor.Detect(r.Context(), req.URL, meta)
	var invalid *domain.InvalidTargetError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "Invalid URL format")
		return
	case err != nil:
		s.opts.Logger.Error("detect failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: a})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	sum, err := s.analytics.Summary(r.Context(), limit)
	if err != nil {
		s.opts.Logger.Error("analytics failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: sum})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientAddr(r)) {
			metrics.IngressRejected.Inc()
			writeError(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Info("request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

// clientAddr is the socket peer, or the forwarded address when RealIP ran.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}
