// Package reputation reduces zero or more domain reputation providers, a
// typosquatting check and a registration-age lookup into one verdict.
package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"time"

	"golang.org/x/net/publicsuffix"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
	"phishguard/internal/services/typosquat"
)

const (
	TrustedThreshold   = 70
	MaxReputationDelta = 15
	MaxTyposquatDelta  = 15
	RecentDomainDays   = 90
	VeryNewDomainDays  = 30
	RecentDomainDelta  = 10
	IssueLowReputation = "domain has low reputation score"
	DefaultTimeout     = 12 * time.Second
)

// baseVerdict is what a strategy contributes before typosquatting and age are
// folded in.
type baseVerdict struct {
	trusted    bool
	score      int
	confidence domain.Confidence
	sources    []string
	issues     []string
	fallback   bool
}

// strategy is one link of the fallback chain. ok=false passes to the next link.
type strategy interface {
	resolve(ctx context.Context, host string) (v baseVerdict, ok bool)
}

type Config struct {
	Providers []ports.ReputationProvider
	Age       ports.AgeLookup
	Trusted   *TrustedList
	// Timeout bounds the provider fan-out and the age lookup together.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

// Resolver never fails: provider errors degrade to the static list.
type Resolver struct {
	age        ports.AgeLookup
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
	strategies []strategy
	fallback   *TrustedList
}

func New(cfg Config) *Resolver {
	if cfg.Trusted == nil {
		cfg.Trusted = NewTrustedList(DefaultTrustedDomains)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := &Resolver{
		age:      cfg.Age,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		now:      cfg.Now,
		fallback: cfg.Trusted,
	}
	if len(cfg.Providers) > 0 {
		r.strategies = append(r.strategies, &consensus{providers: cfg.Providers, logger: cfg.Logger})
	}
	r.strategies = append(r.strategies, cfg.Trusted)
	return r
}

func (l *TrustedList) resolve(_ context.Context, host string) (baseVerdict, bool) {
	return l.verdict(host), true
}

// Resolve builds the reputation verdict for host.
func (r *Resolver) Resolve(ctx context.Context, host string) domain.ReputationVerdict {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ageCh := make(chan *domain.DomainAge, 1)
	go r.lookupAge(ctx, host, ageCh)

	base := r.runChain(ctx, host)
	typo := typosquat.Detect(host)

	var age *domain.DomainAge
	select {
	case age = <-ageCh:
	case <-ctx.Done():
	}

	issues := make([]string, 0, len(base.issues)+len(typo.Issues)+1)
	issues = append(issues, base.issues...)
	issues = append(issues, typo.Issues...)
	if msg := ageIssue(age); msg != "" {
		issues = append(issues, msg)
	}

	return domain.ReputationVerdict{
		IsTrusted:       base.trusted,
		ReputationScore: base.score,
		Confidence:      base.confidence,
		Sources:         base.sources,
		Issues:          issues,
		UsedFallback:    base.fallback,
		Typosquat:       typo,
		DomainAge:       age,
	}
}

func (r *Resolver) runChain(ctx context.Context, host string) baseVerdict {
	for _, s := range r.strategies {
		if v, ok := s.resolve(ctx, host); ok {
			return v
		}
	}
	// The static list always answers; this only guards an empty chain.
	return r.fallback.verdict(host)
}

func (r *Resolver) lookupAge(ctx context.Context, host string, out chan<- *domain.DomainAge) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("domain age lookup panicked", slog.String("host", host), slog.Any("panic", p))
			out <- nil
		}
	}()
	if r.age == nil || net.ParseIP(host) != nil {
		out <- nil
		return
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	age, err := r.age.CreationDate(ctx, registrable)
	if err != nil {
		r.logger.Debug("domain age lookup failed", slog.String("domain", registrable), slog.String("error", err.Error()))
		out <- nil
		return
	}
	days := int(r.now().Sub(age.CreatedAt).Hours() / 24)
	if days < 0 {
		out <- nil
		return
	}
	age.Days = days
	out <- &age
}

func ageIssue(age *domain.DomainAge) string {
	switch {
	case age == nil || age.Days >= RecentDomainDays:
		return ""
	case age.Days < VeryNewDomainDays:
		return fmt.Sprintf("domain registered recently (very new, %d days old)", age.Days)
	default:
		return fmt.Sprintf("domain registered recently (%d days old)", age.Days)
	}
}

// Contribution converts a verdict into the domain-reputation score delta.
func Contribution(v domain.ReputationVerdict) int {
	delta := 0
	if !v.IsTrusted {
		penalty := int(math.Round(float64(100-v.ReputationScore) * 0.3))
		delta += min(max(penalty, 0), MaxReputationDelta)
	}
	delta += min(v.Typosquat.Score, MaxTyposquatDelta)
	if v.DomainAge != nil && v.DomainAge.Days < RecentDomainDays {
		delta += RecentDomainDelta
	}
	return delta
}
