// Package virustotal is the threat-intelligence client for the VirusTotal v3
// URL report API.
package virustotal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"phishguard/internal/domain"
	"phishguard/internal/metrics"
)

const (
	DefaultBaseURL              = "https://www.virustotal.com/api/v3"
	DefaultMaxRequestsPerMinute = 4
	DefaultTimeout              = 15 * time.Second
	DefaultAttempts             = 3
	DefaultRetryInterval        = time.Second

	MsgUnavailable  = "threat intelligence unavailable"
	MsgRateLimited  = "rate limited"
	MsgAuth         = "API authentication failed - check API key"
	MsgNotFound     = "URL not found in VirusTotal database"
	MsgNoAnalysis   = "no analysis data available"
	maxResponseSize = 4 << 20
)

type Config struct {
	APIKey               string
	Enabled              bool
	BaseURL              string
	MaxRequestsPerMinute int
	Timeout              time.Duration
	Attempts             int
	RetryInterval        time.Duration
	HTTPClient           *http.Client
	Logger               *slog.Logger
	Now                  func() time.Time
}

// Client owns its request window; share one instance per process.
type Client struct {
	cfg       Config
	http      *http.Client
	window    *Window
	logger    *slog.Logger
	successes atomic.Int64
	failures  atomic.Int64
	authErr   atomic.Bool
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = DefaultMaxRequestsPerMinute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:    cfg,
		http:   hc,
		window: NewWindow(cfg.MaxRequestsPerMinute, time.Minute, cfg.Now),
		logger: cfg.Logger,
	}
}

// URLID is the unpadded base64url identifier VirusTotal uses for a URL.
func URLID(rawurl string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawurl))
}

// Available reports whether lookups can be attempted at all.
func (c *Client) Available() bool {
	return c.cfg.Enabled && c.cfg.APIKey != "" && !c.authErr.Load()
}

// Check never returns an error; failures are reported in ProviderError with
// unknown confidence.
func (c *Client) Check(ctx context.Context, rawurl string) domain.ThreatVerdict {
	if !c.cfg.Enabled || c.cfg.APIKey == "" {
		metrics.ThreatIntelRequests.WithLabelValues("unavailable").Inc()
		return degraded(MsgUnavailable)
	}
	if !c.window.Allow() {
		metrics.ThreatIntelRequests.WithLabelValues("rate_limited").Inc()
		return degraded(MsgRateLimited)
	}

	report, err := c.fetchReport(ctx, URLID(rawurl))
	if err != nil {
		msg := errorMessage(err)
		c.logger.Warn("threat intelligence lookup failed", slog.String("url", rawurl), slog.String("error", err.Error()))
		metrics.ThreatIntelRequests.WithLabelValues("error").Inc()
		return degraded(msg)
	}
	if report.Data.Attributes == nil {
		metrics.ThreatIntelRequests.WithLabelValues("no_data").Inc()
		return degraded(MsgNoAnalysis)
	}
	metrics.ThreatIntelRequests.WithLabelValues("ok").Inc()
	return verdictFrom(report)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("API error: status %d", e.code) }

func (c *Client) fetchReport(ctx context.Context, id string) (*urlReport, error) {
	var report *urlReport
	op := func() error {
		r, err := c.get(ctx, id)
		if err != nil {
			c.failures.Add(1)
			var se *statusError
			if errors.As(err, &se) {
				switch se.code {
				case http.StatusUnauthorized, http.StatusForbidden:
					c.authErr.Store(true)
					return backoff.Permanent(err)
				case http.StatusNotFound:
					return backoff.Permanent(err)
				}
			}
			return err
		}
		c.successes.Add(1)
		report = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.Attempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.Debug("threat intelligence call failed, retrying", slog.String("error", err.Error()), slog.Duration("wait", wait))
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, id string) (*urlReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/urls/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-apikey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &statusError{code: resp.StatusCode}
	}

	var report urlReport
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&report); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode report: %w", err))
	}
	return &report, nil
}

func errorMessage(err error) string {
	var se *statusError
	switch {
	case errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusForbidden):
		return MsgAuth
	case errors.As(err, &se) && se.code == http.StatusNotFound:
		return MsgNotFound
	case errors.As(err, &se) && se.code == http.StatusTooManyRequests:
		return "API quota exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timeout"
	default:
		return err.Error()
	}
}

func degraded(msg string) domain.ThreatVerdict {
	return domain.ThreatVerdict{ProviderError: msg, Confidence: domain.ConfidenceUnknown}
}

// Status is a point-in-time view of the client for health reporting.
type Status struct {
	Available            bool   `json:"available"`
	Enabled              bool   `json:"enabled"`
	HasAPIKey            bool   `json:"hasApiKey"`
	Error                string `json:"error,omitempty"`
	RequestsThisMinute   int    `json:"requestsThisMinute"`
	MaxRequestsPerMinute int    `json:"maxRequestsPerMinute"`
	SuccessCount         int64  `json:"successCount"`
	ErrorCount           int64  `json:"errorCount"`
}

func (c *Client) Status() Status {
	s := Status{
		Available:            c.Available(),
		Enabled:              c.cfg.Enabled,
		HasAPIKey:            c.cfg.APIKey != "",
		RequestsThisMinute:   c.window.Used(),
		MaxRequestsPerMinute: c.window.Limit(),
		SuccessCount:         c.successes.Load(),
		ErrorCount:           c.failures.Load(),
	}
	if c.authErr.Load() {
		s.Error = MsgAuth
	}
	return s
}
