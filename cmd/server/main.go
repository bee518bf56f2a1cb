package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "phishguard/internal/adapters/http"
	"phishguard/internal/app"
	"phishguard/internal/config"
	"phishguard/internal/logging"
	"phishguard/internal/services/analytics"
	"phishguard/internal/workers/recorder"
)

func main() {
	cfg, cfgErr := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfgErr != nil {
		logger.Warn("configuration", slog.String("warning", cfgErr.Error()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analysisLog, err := app.OpenLog(ctx, cfg, logger)
	if err != nil {
		logger.Error("open analysis log", slog.String("backend", cfg.StoreBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer analysisLog.Close()

	rec := recorder.Start(analysisLog, recorder.Options{
		QueueSize: cfg.RecorderQueue,
		Workers:   cfg.RecorderWorkers,
		Logger:    logger,
	})

	engine, err := app.NewEngine(cfg, logger, rec, nil)
	if err != nil {
		logger.Error("build engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := httpadapter.New(engine.Assessor, analytics.New(analysisLog), httpadapter.Options{
		Environment:       cfg.Env,
		RateLimit:         cfg.RateLimit,
		RateWindow:        cfg.RateWindow,
		TrustProxy:        cfg.TrustProxy,
		ThreatIntelStatus: func() any { return engine.ThreatIntel.Status() },
		Logger:            logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("listening",
		slog.String("addr", cfg.ListenAddr),
		slog.String("store", cfg.StoreBackend),
		slog.Any("reputation_providers", engine.Providers),
		slog.Bool("threat_intel", engine.ThreatIntel.Available()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 20*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	if err := rec.Close(shutdownCtx); err != nil {
		logger.Error("recorder drain", slog.String("error", err.Error()))
	}
	cancel()
}
