// Package app assembles the assessment engine and analysis log from
// configuration. Both binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"phishguard/internal/adapters/badgerlog"
	"phishguard/internal/adapters/filelog"
	"phishguard/internal/adapters/postgres"
	repadapter "phishguard/internal/adapters/reputation"
	"phishguard/internal/adapters/virustotal"
	"phishguard/internal/adapters/web"
	"phishguard/internal/adapters/whois"
	"phishguard/internal/config"
	"phishguard/internal/domain"
	"phishguard/internal/ports"
	"phishguard/internal/services/assessment"
	"phishguard/internal/services/evaluators"
	"phishguard/internal/services/reputation"
)

// Engine is the wired orchestrator plus the collaborators callers report on.
type Engine struct {
	Assessor    *assessment.Service
	ThreatIntel *virustotal.Client
	Providers   []string
}

// NewEngine builds every evaluator from cfg. rec and log are optional; see
// assessment.Config.
func NewEngine(cfg config.Config, logger *slog.Logger, rec ports.Recorder, log ports.AnalysisLog) (*Engine, error) {
	trusted := reputation.DefaultTrustedDomains
	if cfg.TrustedDomains != "" {
		list, err := config.LoadTrustedDomains(cfg.TrustedDomains)
		if err != nil {
			return nil, err
		}
		trusted = list
	}

	providers := repadapter.Providers(cfg.APIVoidKey, cfg.TIPKey, cfg.BuiltWithKey)
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}

	var age ports.AgeLookup
	if cfg.WhoisEnabled {
		var opts []whois.Option
		if cfg.WhoisServer != "" {
			opts = append(opts, whois.WithServer(cfg.WhoisServer))
		}
		age = whois.New(opts...)
	}

	resolver := reputation.New(reputation.Config{
		Providers: providers,
		Age:       age,
		Trusted:   reputation.NewTrustedList(trusted),
		Timeout:   cfg.ResolverDeadline(),
		Logger:    logger,
	})
	vt := virustotal.New(virustotal.Config{
		APIKey:               cfg.VirusTotal.APIKey,
		Enabled:              cfg.VirusTotal.Enabled,
		MaxRequestsPerMinute: cfg.VirusTotal.MaxRequestsPerMinute,
		Timeout:              cfg.VirusTotal.Timeout,
		Logger:               logger,
	})
	fetcher := web.NewFetcher(web.Config{Timeout: cfg.ContentTimeout})

	svc := assessment.New(assessment.Config{
		Evaluators: evaluators.Standard(fetcher, resolver, vt),
		Budgets:    budgets(cfg),
		Recorder:   rec,
		Log:        log,
		Logger:     logger,
	})
	return &Engine{Assessor: svc, ThreatIntel: vt, Providers: names}, nil
}

// budgets overrides the default deadlines with configured ones, keeping the
// default penalties.
func budgets(cfg config.Config) map[domain.SignalKind]assessment.Budget {
	out := make(map[domain.SignalKind]assessment.Budget)
	for kind, d := range map[domain.SignalKind]time.Duration{
		domain.SignalContent:          cfg.ContentTimeout,
		domain.SignalDomainReputation: cfg.ReputationTimeout,
		domain.SignalThreatIntel:      cfg.ThreatIntelTimeout,
	} {
		if d <= 0 {
			continue
		}
		b := assessment.DefaultBudgets[kind]
		b.Timeout = d
		out[kind] = b
	}
	return out
}

// OpenLog opens the analysis log backend named by cfg.StoreBackend.
func OpenLog(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.AnalysisLog, error) {
	switch cfg.StoreBackend {
	case config.StoreFile, "":
		return filelog.Open(cfg.AnalysisLogPath, logger)
	case config.StoreBadger:
		return badgerlog.Open(badgerlog.Config{Path: cfg.BadgerPath, Logger: logger})
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
