package reputation

import (
	"strings"

	"phishguard/internal/domain"
)

const (
	FallbackSource         = "fallback list"
	FallbackTrustedScore   = 80
	FallbackUntrustedScore = 30
	IssueNotTrusted        = "domain not in trusted list"
)

// DefaultTrustedDomains is used when no list is configured.
var DefaultTrustedDomains = []string{
	"google.com", "youtube.com", "facebook.com", "twitter.com", "instagram.com",
	"linkedin.com", "github.com", "stackoverflow.com", "amazon.com", "paypal.com",
	"apple.com", "microsoft.com", "netflix.com", "spotify.com", "reddit.com",
	"wikipedia.org", "medium.com", "dropbox.com", "adobe.com", "salesforce.com",
	"zoom.us", "slack.com", "discord.com", "twitch.tv", "ebay.com",
}

// TrustedList matches hosts against a static set of domains, exactly or as a
// subdomain.
type TrustedList struct {
	domains map[string]struct{}
}

func NewTrustedList(domains []string) *TrustedList {
	l := &TrustedList{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(d, ".")))
		if d != "" {
			l.domains[d] = struct{}{}
		}
	}
	return l
}

// Contains walks host's parent domains looking for a listed entry.
func (l *TrustedList) Contains(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	for h != "" {
		if _, ok := l.domains[h]; ok {
			return true
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			return false
		}
		h = h[i+1:]
	}
	return false
}

func (l *TrustedList) Len() int { return len(l.domains) }

// verdict is the static-list strategy; it always produces an answer.
func (l *TrustedList) verdict(host string) baseVerdict {
	if l.Contains(host) {
		return baseVerdict{
			trusted:    true,
			score:      FallbackTrustedScore,
			confidence: domain.ConfidenceLow,
			sources:    []string{FallbackSource},
			fallback:   true,
		}
	}
	return baseVerdict{
		score:      FallbackUntrustedScore,
		confidence: domain.ConfidenceLow,
		sources:    []string{FallbackSource},
		issues:     []string{IssueNotTrusted},
		fallback:   true,
	}
}
