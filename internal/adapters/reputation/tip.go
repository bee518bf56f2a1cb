package reputation

import (
	"context"
	"fmt"
	"net/url"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const tipBaseURL = "https://api.threatintelligenceplatform.com"

// ThreatIntelPlatform reads the domain reputation score directly.
type ThreatIntelPlatform struct {
	opts Options
}

func NewThreatIntelPlatform(opts Options) *ThreatIntelPlatform {
	if opts.BaseURL == "" {
		opts.BaseURL = tipBaseURL
	}
	return &ThreatIntelPlatform{opts: opts}
}

func (p *ThreatIntelPlatform) Name() string { return "Threat Intelligence Platform" }

type tipResponse struct {
	ReputationScore *float64 `json:"reputationScore"`
	Category        string   `json:"category"`
	DomainAge       any      `json:"domainAge"`
	Registrar       string   `json:"registrar"`
}

func (p *ThreatIntelPlatform) Lookup(ctx context.Context, host string) (ports.ProviderReport, error) {
	var body tipResponse
	q := url.Values{"apiKey": {p.opts.APIKey}, "domainName": {host}}
	if err := getJSON(ctx, p.opts.client(), p.opts.BaseURL, "/v1/reputation", q, &body); err != nil {
		return ports.ProviderReport{}, fmt.Errorf("threat intelligence platform: %w", err)
	}
	if body.ReputationScore == nil {
		return ports.ProviderReport{}, fmt.Errorf("threat intelligence platform: %w: no reputationScore", domain.ErrProviderUnavailable)
	}

	score := domain.ClampScore(int(*body.ReputationScore + 0.5))
	var issues []string
	if score < 50 {
		issues = append(issues, "low reputation score")
	}
	return ports.ProviderReport{
		Source: p.Name(),
		Score:  score,
		Issues: issues,
		Details: map[string]any{
			"reputationScore": *body.ReputationScore,
			"category":        body.Category,
			"domainAge":       body.DomainAge,
			"registrar":       body.Registrar,
		},
	}, nil
}
