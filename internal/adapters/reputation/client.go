// Package reputation holds the HTTP adapters for the external domain
// reputation providers. Each maps its vendor payload to a ports.ProviderReport.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"phishguard/internal/domain"
)

const (
	DefaultTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20
)

// Options is shared by every provider adapter.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// getJSON issues a GET against base+path with query and decodes the body into out.
func getJSON(ctx context.Context, c *http.Client, base, path string, query url.Values, out any) error {
	u, err := url.Parse(base + path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w: status %d", domain.ErrProviderUnavailable, domain.ErrRateLimited, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
