package reputation_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/adapters/reputation"
	"phishguard/internal/domain"
)

func serveJSON(t *testing.T, wantPath string, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIVoid_Scoring(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantScore  int
		wantIssues []string
	}{
		{
			name:      "clean site",
			body:      `{"data":{"risk_score":0,"is_secure":true,"is_blacklisted":false,"suspicious_redirects":false}}`,
			wantScore: 100,
		},
		{
			name:       "blacklisted and insecure",
			body:       `{"data":{"risk_score":10,"is_secure":false,"is_blacklisted":true}}`,
			wantScore:  30,
			wantIssues: []string{"domain is blacklisted", "security issues detected"},
		},
		{
			name:      "everything wrong floors at zero",
			body:      `{"data":{"risk_score":90,"is_secure":false,"is_blacklisted":true,"suspicious_redirects":true}}`,
			wantScore: 0,
			wantIssues: []string{
				"domain is blacklisted", "suspicious redirects detected",
				"security issues detected", "high risk score",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, "/sitetrustworthiness/v1/pay-as-you-go/", func(r *http.Request) {
				assert.Equal(t, "k1", r.URL.Query().Get("key"))
				assert.Equal(t, "example.com", r.URL.Query().Get("host"))
			}, tt.body)
			p := reputation.NewAPIVoid(reputation.Options{APIKey: "k1", BaseURL: srv.URL})

			report, err := p.Lookup(context.Background(), "example.com")

			require.NoError(t, err)
			assert.Equal(t, "APIVoid", report.Source)
			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantIssues, report.Issues)
		})
	}
}

func TestAPIVoid_EmptyDataIsUnavailable(t *testing.T) {
	srv := serveJSON(t, "/sitetrustworthiness/v1/pay-as-you-go/", nil, `{"error":"quota"}`)
	p := reputation.NewAPIVoid(reputation.Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Lookup(context.Background(), "example.com")

	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestThreatIntelPlatform_LowScoreIssue(t *testing.T) {
	srv := serveJSON(t, "/v1/reputation", func(r *http.Request) {
		assert.Equal(t, "k2", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "shady.example", r.URL.Query().Get("domainName"))
	}, `{"reputationScore":42.4,"category":"phishing","registrar":"NameCheap"}`)
	p := reputation.NewThreatIntelPlatform(reputation.Options{APIKey: "k2", BaseURL: srv.URL})

	report, err := p.Lookup(context.Background(), "shady.example")

	require.NoError(t, err)
	assert.Equal(t, 42, report.Score)
	assert.Equal(t, []string{"low reputation score"}, report.Issues)
	assert.Equal(t, "phishing", report.Details["category"])
}

func TestThreatIntelPlatform_MissingScore(t *testing.T) {
	srv := serveJSON(t, "/v1/reputation", nil, `{"category":"unknown"}`)
	p := reputation.NewThreatIntelPlatform(reputation.Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Lookup(context.Background(), "example.com")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestBuiltWith_Scoring(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantScore  int
		wantIssues []string
	}{
		{name: "shop with stack", body: `{"Results":[{"Ecommerce":true,"Technologies":["nginx"]}]}`, wantScore: 90},
		{
			name:       "parked affiliate page",
			body:       `{"Results":[{"IsParked":true,"HasAffiliateLinks":true}]}`,
			wantScore:  10,
			wantIssues: []string{"domain appears to be parked", "contains affiliate links"},
		},
		{name: "plain site", body: `{"Results":[{}]}`, wantScore: 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, "/v20/trust", nil, tt.body)
			p := reputation.NewBuiltWith(reputation.Options{APIKey: "k", BaseURL: srv.URL})

			report, err := p.Lookup(context.Background(), "example.com")

			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantIssues, report.Issues)
		})
	}
}

func TestLookup_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	p := reputation.NewBuiltWith(reputation.Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Lookup(context.Background(), "example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "status 503")
}

func TestLookup_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	p := reputation.NewAPIVoid(reputation.Options{APIKey: "k", BaseURL: srv.URL})

	_, err := p.Lookup(context.Background(), "example.com")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestProviders_OnlyConfiguredKeys(t *testing.T) {
	assert.Empty(t, reputation.Providers("", "", ""))

	got := reputation.Providers("a", "", "c")
	require.Len(t, got, 2)
	assert.Equal(t, "APIVoid", got[0].Name())
	assert.Equal(t, "BuiltWith", got[1].Name())
}
