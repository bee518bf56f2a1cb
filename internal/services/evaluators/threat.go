package evaluators

import (
	"context"
	"fmt"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

// CleanBonus is applied when engines ran and none flagged the URL.
const CleanBonus = -5

type ThreatIntelligence struct {
	client ports.ThreatIntel
}

func NewThreatIntelligence(c ports.ThreatIntel) *ThreatIntelligence {
	return &ThreatIntelligence{client: c}
}

func (e *ThreatIntelligence) Kind() domain.SignalKind { return domain.SignalThreatIntel }

func (e *ThreatIntelligence) Evaluate(ctx context.Context, t domain.Target) (domain.SignalResult, error) {
	v := e.client.Check(ctx, t.Raw)
	res := domain.SignalResult{
		Kind:       e.Kind(),
		Confidence: v.Confidence,
		Issues:     []string{},
		Evidence: map[string]any{
			"is_threat":       v.IsThreat,
			"malicious":       v.Malicious,
			"suspicious":      v.Suspicious,
			"engines":         v.EnginesRun,
			"detection_ratio": v.DetectionRatio,
		},
	}
	if v.Permalink != "" {
		res.Evidence["permalink"] = v.Permalink
	}

	switch {
	case v.Degraded():
		// No verdict is not evidence either way.
		res.Confidence = domain.ConfidenceUnknown
		res.Evidence["provider_error"] = v.ProviderError
	case v.IsThreat:
		res.ScoreDelta = domain.ThreatRiskScore(v.Categories, v.DetectionRatio)
		for _, c := range v.Categories {
			res.Issues = append(res.Issues, "threat intelligence: "+c.Description())
		}
		res.Issues = append(res.Issues, fmt.Sprintf("flagged by %d/%d security engines", v.Malicious+v.Suspicious, v.EnginesRun))
		res.Evidence["categories"] = v.Categories
		res.Evidence["flagged_engines"] = v.FlaggedEngines
	case v.EnginesRun > 0:
		res.ScoreDelta = CleanBonus
		res.Confidence = domain.ConfidenceHigh
	}
	return res, nil
}
