package evaluators

import (
	"context"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
	"phishguard/internal/services/reputation"
)

type DomainReputation struct {
	resolver ports.ReputationResolver
}

func NewDomainReputation(r ports.ReputationResolver) *DomainReputation {
	return &DomainReputation{resolver: r}
}

func (e *DomainReputation) Kind() domain.SignalKind { return domain.SignalDomainReputation }

func (e *DomainReputation) Evaluate(ctx context.Context, t domain.Target) (domain.SignalResult, error) {
	v := e.resolver.Resolve(ctx, t.Host)

	issues := append([]string{}, v.Issues...)
	evidence := map[string]any{
		"is_trusted":       v.IsTrusted,
		"reputation_score": v.ReputationScore,
		"sources":          v.Sources,
		"used_fallback":    v.UsedFallback,
		"typosquat_score":  v.Typosquat.Score,
	}
	if len(v.Typosquat.Matches) > 0 {
		evidence["typosquat_brands"] = v.Typosquat.Matches
	}
	if v.DomainAge != nil {
		evidence["domain_age_days"] = v.DomainAge.Days
		evidence["domain_created"] = v.DomainAge.CreatedAt
	}

	return domain.SignalResult{
		Kind:       e.Kind(),
		ScoreDelta: reputation.Contribution(v),
		Issues:     issues,
		Confidence: v.Confidence,
		Evidence:   evidence,
	}, nil
}
