package virustotal_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/adapters/virustotal"
	"phishguard/internal/domain"
)

const cleanReport = `{"data":{"links":{"self":"https://www.virustotal.com/api/v3/urls/x"},"attributes":{
"last_analysis_date":1700000000,
"last_analysis_stats":{"malicious":0,"suspicious":0,"harmless":3},
"last_analysis_results":{
 "EngineA":{"category":"harmless","result":"clean"},
 "EngineB":{"category":"harmless","result":"clean"},
 "EngineC":{"category":"undetected","result":"unrated"}}}}}`

// halfMalicious has 2 of 4 engines voting malicious and one suspicious.
const halfMalicious = `{"data":{"attributes":{
"last_analysis_stats":{"malicious":2,"suspicious":1},
"last_analysis_results":{
 "EngineA":{"category":"malicious","result":"phishing"},
 "EngineB":{"category":"malicious","result":"malware"},
 "EngineC":{"category":"suspicious","result":""},
 "EngineD":{"category":"harmless","result":"clean"}}}}}`

type fakeVT struct {
	srv   *httptest.Server
	hits  atomic.Int32
	paths []string
	mu    sync.Mutex
}

// newFakeVT replies with the status/body pairs in order, repeating the last one.
func newFakeVT(t *testing.T, replies ...func(w http.ResponseWriter)) *fakeVT {
	t.Helper()
	f := &fakeVT{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.hits.Add(1)) - 1
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		assert.Equal(t, "test-key", r.Header.Get("x-apikey"))
		replies[min(n, len(replies)-1)](w)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeVT) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s)
	}
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newClient(f *fakeVT, mutate ...func(*virustotal.Config)) *virustotal.Client {
	cfg := virustotal.Config{
		APIKey:        "test-key",
		Enabled:       true,
		BaseURL:       f.srv.URL,
		RetryInterval: time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return virustotal.New(cfg)
}

func TestURLID(t *testing.T) {
	assert.Equal(t, "aHR0cDovL2V4YW1wbGUuY29tLw", virustotal.URLID("http://example.com/"))
	assert.NotContains(t, virustotal.URLID("https://example.com/?a=1&b=>>>"), "=")
}

func TestCheck_CleanReport(t *testing.T) {
	f := newFakeVT(t, body(cleanReport))
	c := newClient(f)

	v := c.Check(context.Background(), "http://example.com/")

	assert.False(t, v.IsThreat)
	assert.False(t, v.Degraded())
	assert.Equal(t, 3, v.EnginesRun)
	assert.Equal(t, domain.ConfidenceHigh, v.Confidence)
	assert.Empty(t, v.Categories)
	require.NotNil(t, v.ScanDate)
	assert.Equal(t, int64(1700000000), v.ScanDate.Unix())
	assert.Equal(t, []string{"/urls/aHR0cDovL2V4YW1wbGUuY29tLw"}, f.seen())
}

func TestCheck_ThreatReport(t *testing.T) {
	f := newFakeVT(t, body(halfMalicious))
	c := newClient(f)

	v := c.Check(context.Background(), "http://evil.example/")

	assert.True(t, v.IsThreat)
	assert.Equal(t, 2, v.Malicious)
	assert.Equal(t, 1, v.Suspicious)
	assert.InDelta(t, 0.5, v.DetectionRatio, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, v.Confidence)
	assert.Equal(t, []domain.ThreatCategory{
		domain.ThreatMalware, domain.ThreatSocialEngineering, domain.ThreatSuspicious,
	}, v.Categories)
	assert.Equal(t, map[string]string{"EngineA": "phishing", "EngineB": "malware", "EngineC": "suspicious"}, v.FlaggedEngines)
	assert.Equal(t, 90, domain.ThreatRiskScore(v.Categories, v.DetectionRatio))
}

func TestCheck_RetriesServerErrors(t *testing.T) {
	f := newFakeVT(t, status(http.StatusInternalServerError), status(http.StatusTooManyRequests), body(cleanReport))
	c := newClient(f)

	v := c.Check(context.Background(), "http://example.com/")

	assert.False(t, v.Degraded(), v.ProviderError)
	assert.Equal(t, int32(3), f.hits.Load())
	st := c.Status()
	assert.Equal(t, int64(1), st.SuccessCount)
	assert.Equal(t, int64(2), st.ErrorCount)
	assert.Equal(t, 1, st.RequestsThisMinute)
}

func TestCheck_GivesUpAfterThreeAttempts(t *testing.T) {
	f := newFakeVT(t, status(http.StatusBadGateway))
	c := newClient(f)

	v := c.Check(context.Background(), "http://example.com/")

	assert.True(t, v.Degraded())
	assert.Equal(t, domain.ConfidenceUnknown, v.Confidence)
	assert.Contains(t, v.ProviderError, "502")
	assert.Equal(t, int32(3), f.hits.Load())
}

func TestCheck_PermanentErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		code          int
		wantMsg       string
		wantAvailable bool
	}{
		{http.StatusUnauthorized, virustotal.MsgAuth, false},
		{http.StatusForbidden, virustotal.MsgAuth, false},
		{http.StatusNotFound, virustotal.MsgNotFound, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			f := newFakeVT(t, status(tt.code))
			c := newClient(f)

			v := c.Check(context.Background(), "http://example.com/")

			assert.Equal(t, tt.wantMsg, v.ProviderError)
			assert.Equal(t, int32(1), f.hits.Load())
			assert.Equal(t, tt.wantAvailable, c.Available())
		})
	}
}

func TestCheck_RateLimitWindow(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	f := newFakeVT(t, body(cleanReport))
	c := newClient(f, func(cfg *virustotal.Config) {
		cfg.MaxRequestsPerMinute = 2
		cfg.Now = clock
	})

	assert.False(t, c.Check(context.Background(), "http://a.example/").Degraded())
	assert.False(t, c.Check(context.Background(), "http://b.example/").Degraded())
	limited := c.Check(context.Background(), "http://c.example/")
	assert.Equal(t, virustotal.MsgRateLimited, limited.ProviderError)
	assert.Equal(t, int32(2), f.hits.Load())

	mu.Lock()
	now = now.Add(61 * time.Second)
	mu.Unlock()

	assert.False(t, c.Check(context.Background(), "http://c.example/").Degraded())
	assert.Equal(t, int32(3), f.hits.Load())
}

func TestCheck_DisabledOrMissingKey(t *testing.T) {
	f := newFakeVT(t, body(cleanReport))

	disabled := newClient(f, func(cfg *virustotal.Config) { cfg.Enabled = false })
	noKey := newClient(f, func(cfg *virustotal.Config) { cfg.APIKey = "" })

	for _, c := range []*virustotal.Client{disabled, noKey} {
		v := c.Check(context.Background(), "http://example.com/")
		assert.Equal(t, virustotal.MsgUnavailable, v.ProviderError)
		assert.False(t, c.Available())
	}
	assert.Zero(t, f.hits.Load())
}

func TestCheck_MissingAttributes(t *testing.T) {
	f := newFakeVT(t, body(`{"data":{}}`))
	c := newClient(f)

	v := c.Check(context.Background(), "http://example.com/")

	assert.Equal(t, virustotal.MsgNoAnalysis, v.ProviderError)
}

func TestCheck_MalformedBodyIsNotRetried(t *testing.T) {
	f := newFakeVT(t, body(`{"data":`))
	c := newClient(f)

	v := c.Check(context.Background(), "http://example.com/")

	assert.True(t, strings.HasPrefix(v.ProviderError, "decode report"), v.ProviderError)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestWindow(t *testing.T) {
	now := time.Unix(0, 0)
	w := virustotal.NewWindow(1, time.Minute, func() time.Time { return now })

	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
	assert.Equal(t, 1, w.Used())

	now = now.Add(59 * time.Second)
	assert.False(t, w.Allow())

	now = now.Add(time.Second)
	assert.True(t, w.Allow())
}
