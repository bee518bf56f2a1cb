package reputation

import (
	"context"
	"fmt"
	"net/url"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const builtWithBaseURL = "https://api.builtwith.com"

// BuiltWith derives a trust score from site characteristics.
type BuiltWith struct {
	opts Options
}

func NewBuiltWith(opts Options) *BuiltWith {
	if opts.BaseURL == "" {
		opts.BaseURL = builtWithBaseURL
	}
	return &BuiltWith{opts: opts}
}

func (b *BuiltWith) Name() string { return "BuiltWith" }

type builtWithResponse struct {
	Results []builtWithResult `json:"Results"`
}

type builtWithResult struct {
	IsParked          bool  `json:"IsParked"`
	HasAffiliateLinks bool  `json:"HasAffiliateLinks"`
	Ecommerce         bool  `json:"Ecommerce"`
	Technologies      []any `json:"Technologies"`
}

func (b *BuiltWith) Lookup(ctx context.Context, host string) (ports.ProviderReport, error) {
	var body builtWithResponse
	q := url.Values{"key": {b.opts.APIKey}, "domain": {host}}
	if err := getJSON(ctx, b.opts.client(), b.opts.BaseURL, "/v20/trust", q, &body); err != nil {
		return ports.ProviderReport{}, fmt.Errorf("builtwith: %w", err)
	}
	if len(body.Results) == 0 {
		return ports.ProviderReport{}, fmt.Errorf("builtwith: %w: no results", domain.ErrProviderUnavailable)
	}
	r := body.Results[0]

	score := 70
	var issues []string
	if r.IsParked {
		score -= 40
		issues = append(issues, "domain appears to be parked")
	}
	if r.HasAffiliateLinks {
		score -= 20
		issues = append(issues, "contains affiliate links")
	}
	if r.Ecommerce {
		score += 10
	}
	if len(r.Technologies) > 0 {
		score += 10
	}

	return ports.ProviderReport{
		Source: b.Name(),
		Score:  domain.ClampScore(score),
		Issues: issues,
		Details: map[string]any{
			"isParked":          r.IsParked,
			"hasAffiliateLinks": r.HasAffiliateLinks,
			"ecommerce":         r.Ecommerce,
			"technologies":      len(r.Technologies),
		},
	}, nil
}

// Providers builds the adapters whose API key is set, in a fixed order.
func Providers(apivoidKey, tipKey, builtWithKey string) []ports.ReputationProvider {
	var out []ports.ReputationProvider
	if apivoidKey != "" {
		out = append(out, NewAPIVoid(Options{APIKey: apivoidKey}))
	}
	if tipKey != "" {
		out = append(out, NewThreatIntelPlatform(Options{APIKey: tipKey}))
	}
	if builtWithKey != "" {
		out = append(out, NewBuiltWith(Options{APIKey: builtWithKey}))
	}
	return out
}
