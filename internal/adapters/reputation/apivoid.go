package reputation

import (
	"context"
	"fmt"
	"net/url"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const apiVoidBaseURL = "https://endpoint.apivoid.com"

// APIVoid queries the site trustworthiness endpoint.
type APIVoid struct {
	opts Options
}

func NewAPIVoid(opts Options) *APIVoid {
	if opts.BaseURL == "" {
		opts.BaseURL = apiVoidBaseURL
	}
	return &APIVoid{opts: opts}
}

func (a *APIVoid) Name() string { return "APIVoid" }

type apiVoidResponse struct {
	Data *apiVoidSite `json:"data"`
}

type apiVoidSite struct {
	RiskScore           int  `json:"risk_score"`
	IsSecure            bool `json:"is_secure"`
	IsBlacklisted       bool `json:"is_blacklisted"`
	SuspiciousRedirects bool `json:"suspicious_redirects"`
	SSLCertificate      any  `json:"ssl_certificate"`
}

func (a *APIVoid) Lookup(ctx context.Context, host string) (ports.ProviderReport, error) {
	var body apiVoidResponse
	q := url.Values{"key": {a.opts.APIKey}, "host": {host}}
	if err := getJSON(ctx, a.opts.client(), a.opts.BaseURL, "/sitetrustworthiness/v1/pay-as-you-go/", q, &body); err != nil {
		return ports.ProviderReport{}, fmt.Errorf("apivoid: %w", err)
	}
	if body.Data == nil {
		return ports.ProviderReport{}, fmt.Errorf("apivoid: %w: empty data", domain.ErrProviderUnavailable)
	}
	site := body.Data

	score := 100
	var issues []string
	if site.IsBlacklisted {
		score -= 50
		issues = append(issues, "domain is blacklisted")
	}
	if site.SuspiciousRedirects {
		score -= 30
		issues = append(issues, "suspicious redirects detected")
	}
	if !site.IsSecure {
		score -= 20
		issues = append(issues, "security issues detected")
	}
	if site.RiskScore > 50 {
		score -= 20
		issues = append(issues, "high risk score")
	}

	return ports.ProviderReport{
		Source: a.Name(),
		Score:  max(score, 0),
		Issues: issues,
		Details: map[string]any{
			"risk_score":           site.RiskScore,
			"is_secure":            site.IsSecure,
			"is_blacklisted":       site.IsBlacklisted,
			"suspicious_redirects": site.SuspiciousRedirects,
			"ssl_certificate":      site.SSLCertificate,
		},
	}, nil
}
