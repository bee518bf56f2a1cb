package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

// consensus queries every provider at once and averages whatever answers
// before the deadline. Providers that ignore cancellation are left behind.
type consensus struct {
	providers []ports.ReputationProvider
	logger    *slog.Logger
}

type providerOutcome struct {
	index  int
	report ports.ProviderReport
	err    error
}

func (c *consensus) resolve(ctx context.Context, host string) (baseVerdict, bool) {
	outcomes := make(chan providerOutcome, len(c.providers))
	for i, p := range c.providers {
		go func(i int, p ports.ReputationProvider) {
			defer func() {
				if rec := recover(); rec != nil {
					outcomes <- providerOutcome{index: i, err: fmt.Errorf("provider panic: %v", rec)}
				}
			}()
			report, err := p.Lookup(ctx, host)
			outcomes <- providerOutcome{index: i, report: report, err: err}
		}(i, p)
	}

	// Slot by provider index so sources and issues keep configuration order.
	reports := make([]*ports.ProviderReport, len(c.providers))
	pending := len(c.providers)
collect:
	for pending > 0 {
		select {
		case o := <-outcomes:
			pending--
			if o.err != nil {
				c.logger.Debug("reputation provider failed",
					slog.String("provider", c.providers[o.index].Name()),
					slog.String("host", host),
					slog.String("error", o.err.Error()))
				continue
			}
			report := o.report
			reports[o.index] = &report
		case <-ctx.Done():
			c.logger.Debug("reputation providers abandoned at deadline", slog.Int("pending", pending), slog.String("host", host))
			break collect
		}
	}

	var (
		total   int
		count   int
		sources []string
		issues  []string
	)
	for _, r := range reports {
		if r == nil {
			continue
		}
		count++
		total += r.Score
		sources = append(sources, r.Source)
		issues = append(issues, r.Issues...)
	}
	if count == 0 {
		return baseVerdict{}, false
	}

	score := int(math.Round(float64(total) / float64(count)))
	v := baseVerdict{
		score:      score,
		trusted:    score >= TrustedThreshold,
		confidence: domain.ConfidenceMedium,
		sources:    sources,
		issues:     issues,
	}
	if count >= 2 {
		v.confidence = domain.ConfidenceHigh
	}
	if !v.trusted && len(v.issues) == 0 {
		v.issues = []string{IssueLowReputation}
	}
	return v, true
}
