package evaluators

import (
	"context"

	"phishguard/internal/domain"
)

const IssueNoTLS = "no SSL/TLS"

// TransportSecurity only looks at the scheme; certificates are not inspected.
type TransportSecurity struct{}

func NewTransportSecurity() *TransportSecurity { return &TransportSecurity{} }

func (e *TransportSecurity) Kind() domain.SignalKind { return domain.SignalTransportSecurity }

func (e *TransportSecurity) Evaluate(_ context.Context, t domain.Target) (domain.SignalResult, error) {
	hasTLS := t.Scheme == "https"
	res := domain.SignalResult{
		Kind:       e.Kind(),
		Confidence: domain.ConfidenceHigh,
		Issues:     []string{},
		Evidence:   map[string]any{"has_ssl": hasTLS, "protocol": t.Scheme},
	}
	if !hasTLS {
		res.ScoreDelta = 20
		res.Issues = append(res.Issues, IssueNoTLS)
	}
	return res, nil
}
