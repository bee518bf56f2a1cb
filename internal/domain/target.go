package domain

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Target is the parsed, read-only view of the URL under assessment.
type Target struct {
	Raw         string `json:"url"`
	Scheme      string `json:"scheme"`
	Host        string `json:"hostname"`
	Port        string `json:"port,omitempty"`
	Path        string `json:"pathname"`
	Registrable string `json:"registrableDomain,omitempty"`
}

// ParseTarget parses rawurl as an absolute URL. Anything without a scheme and
// a host is rejected with *InvalidTargetError.
func ParseTarget(rawurl string) (Target, error) {
	trimmed := strings.TrimSpace(rawurl)
	if trimmed == "" {
		return Target{}, &InvalidTargetError{URL: rawurl, Reason: "empty URL"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, &InvalidTargetError{URL: rawurl, Reason: "malformed URL", Err: err}
	}
	if !u.IsAbs() || u.Scheme == "" {
		return Target{}, &InvalidTargetError{URL: rawurl, Reason: "URL is not absolute"}
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return Target{}, &InvalidTargetError{URL: rawurl, Reason: "URL has no host"}
	}
	t := Target{
		Raw:    trimmed,
		Scheme: strings.ToLower(u.Scheme),
		Host:   host,
		Port:   u.Port(),
		Path:   u.EscapedPath(),
	}
	if net.ParseIP(host) == nil {
		registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
		if err != nil {
			registrable = host
		}
		t.Registrable = registrable
	}
	return t, nil
}

// IsLoopback reports whether the host names the local machine.
func (t Target) IsLoopback() bool {
	if t.Host == "localhost" || strings.HasSuffix(t.Host, ".localhost") {
		return true
	}
	ip := net.ParseIP(t.Host)
	return ip != nil && ip.IsLoopback()
}
