// Package web fetches target pages for content inspection.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"phishguard/internal/ports"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 5
	DefaultMaxBody      = 2 << 20
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("GET %s: status %d", e.URL, e.Code) }

var ErrTooManyRedirects = errors.New("too many redirects")

type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBody      int64
	UserAgent    string
	// Transport overrides the default transport, mostly for tests.
	Transport http.RoundTripper
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
			TLSHandshakeTimeout:   cfg.Timeout,
			ResponseHeaderTimeout: cfg.Timeout,
			MaxIdleConns:          16,
			IdleConnTimeout:       30 * time.Second,
		}
	}
	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
	return &Fetcher{client: client, userAgent: cfg.UserAgent, maxBody: cfg.MaxBody}
}

// Fetch GETs rawurl and returns the body decoded to UTF-8, truncated at the
// configured size.
func (f *Fetcher) Fetch(ctx context.Context, rawurl string) (ports.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return ports.Page{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return ports.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		return ports.Page{}, &StatusError{URL: rawurl, Code: resp.StatusCode}
	}

	var body io.Reader = io.LimitReader(resp.Body, f.maxBody)
	if utf8, err := charset.NewReader(body, resp.Header.Get("Content-Type")); err == nil {
		body = utf8
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return ports.Page{}, fmt.Errorf("read body of %s: %w", rawurl, err)
	}
	return ports.Page{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
