// Package evaluators holds the five signal evaluators combined by the
// assessment orchestrator. Structural and transport checks are local; content,
// domain reputation and threat intelligence do I/O through ports.
package evaluators

import (
	"context"
	"regexp"
	"strings"

	"phishguard/internal/domain"
)

const (
	IssueInsecureScheme      = "insecure scheme"
	IssueIPLiteral           = "IP literal host"
	IssueSuspiciousSubdomain = "suspicious subdomain pattern"
	IssueLongURL             = "unusually long URL"
	IssueSuspiciousChars     = "suspicious characters"

	longURLThreshold = 100
)

var ipv4Literal = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// structuralRule inspects the target and reports whether it triggers.
type structuralRule struct {
	score int
	issue string
	match func(t domain.Target) bool
}

var structuralRules = []structuralRule{
	{15, IssueInsecureScheme, func(t domain.Target) bool {
		return t.Scheme != "https" && !t.IsLoopback()
	}},
	{20, IssueIPLiteral, func(t domain.Target) bool {
		return ipv4Literal.MatchString(t.Host)
	}},
	{10, IssueSuspiciousSubdomain, func(t domain.Target) bool {
		return containsAny(t.Raw, "login-", "secure-", "verify-")
	}},
	{5, IssueLongURL, func(t domain.Target) bool {
		return len(t.Raw) > longURLThreshold
	}},
	// userinfo and backslashes let the visible prefix differ from the real host.
	{15, IssueSuspiciousChars, func(t domain.Target) bool {
		return containsAny(t.Raw, "@", `\`)
	}},
}

type Structural struct{}

func NewStructural() *Structural { return &Structural{} }

func (s *Structural) Kind() domain.SignalKind { return domain.SignalStructural }

func (s *Structural) Evaluate(_ context.Context, t domain.Target) (domain.SignalResult, error) {
	res := domain.SignalResult{
		Kind:       s.Kind(),
		Confidence: domain.ConfidenceHigh,
		Issues:     []string{},
	}
	for _, rule := range structuralRules {
		if rule.match(t) {
			res.ScoreDelta += rule.score
			res.Issues = append(res.Issues, rule.issue)
		}
	}
	res.Evidence = map[string]any{
		"length":    len(t.Raw),
		"has_https": t.Scheme == "https",
		"has_ip":    ipv4Literal.MatchString(t.Host),
	}
	return res, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
