package evaluators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"syscall"

	"github.com/PuerkitoBio/goquery"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const (
	IssueUrgentLanguage  = "urgent language"
	IssueManyInputs      = "many input fields"
	IssueExternalScripts = "many external scripts"
	IssueHostNotFound    = "host not found"
	IssueConnRefused     = "connection refused"
	IssueNotAccessible   = "content not accessible"

	maxInputFields     = 3
	maxExternalScripts = 5
)

var urgencyVocabulary = []string{"urgent", "immediate", "verify now", "act now", "expires soon"}

// Content fetches the page and inspects its markup. Fetch failures are scored
// as evidence, never returned as errors.
type Content struct {
	fetcher ports.Fetcher
}

func NewContent(f ports.Fetcher) *Content { return &Content{fetcher: f} }

func (c *Content) Kind() domain.SignalKind { return domain.SignalContent }

func (c *Content) Evaluate(ctx context.Context, t domain.Target) (domain.SignalResult, error) {
	page, err := c.fetcher.Fetch(ctx, t.Raw)
	if err != nil {
		return c.unreachable(err), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return domain.SignalResult{}, fmt.Errorf("parse page: %w", err)
	}

	res := domain.SignalResult{
		Kind:       c.Kind(),
		Confidence: domain.ConfidenceMedium,
		Issues:     []string{},
	}

	title := doc.Find("title").First().Text()
	text := strings.ToLower(title + " " + doc.Find("body").Text())
	urgent := containsAny(text, urgencyVocabulary...)
	if urgent {
		res.ScoreDelta += 10
		res.Issues = append(res.Issues, IssueUrgentLanguage)
	}

	inputs := doc.Find(`input[type="password"], input[type="text"]`).Length()
	if inputs > maxInputFields {
		res.ScoreDelta += 8
		res.Issues = append(res.Issues, IssueManyInputs)
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil || page.FinalURL == "" {
		base, _ = url.Parse(t.Raw)
	}
	// After a redirect both the requested and the final host count as local.
	local := []string{t.Host}
	if base != nil && base.Hostname() != "" {
		local = append(local, strings.ToLower(base.Hostname()))
	}
	external := 0
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if isExternal(base, src, local) {
			external++
		}
	})
	if external > maxExternalScripts {
		res.ScoreDelta += 5
		res.Issues = append(res.Issues, IssueExternalScripts)
	}

	res.Evidence = map[string]any{
		"accessible":       true,
		"status_code":      page.StatusCode,
		"content_length":   len(page.Body),
		"title":            strings.TrimSpace(title),
		"has_forms":        doc.Find("form").Length() > 0,
		"form_fields":      inputs,
		"external_scripts": external,
		"urgent_language":  urgent,
	}
	return res, nil
}

func (c *Content) unreachable(err error) domain.SignalResult {
	res := domain.SignalResult{
		Kind:       c.Kind(),
		Confidence: domain.ConfidenceUnknown,
		Evidence:   map[string]any{"accessible": false, "error": err.Error()},
	}
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		res.ScoreDelta = 20
		res.Issues = []string{IssueHostNotFound}
	case errors.Is(err, syscall.ECONNREFUSED):
		res.ScoreDelta = 15
		res.Issues = []string{IssueConnRefused}
	default:
		res.ScoreDelta = 5
		res.Issues = []string{IssueNotAccessible}
	}
	return res
}

func isExternal(base *url.URL, src string, local []string) bool {
	src = strings.TrimSpace(src)
	if src == "" {
		return false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	h := strings.ToLower(ref.Hostname())
	return h != "" && !slices.Contains(local, h)
}
