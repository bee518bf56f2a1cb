// Package whois looks up domain registration dates over the WHOIS protocol
// (RFC 3912), following the IANA referral to the registry server.
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"phishguard/internal/domain"
)

const (
	DefaultServer  = "whois.iana.org:43"
	DefaultTimeout = 10 * time.Second
	maxReplySize   = 64 << 10
)

var ErrNoCreationDate = errors.New("whois: no creation date in reply")

// Dialer is satisfied by *net.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Client struct {
	server  string
	timeout time.Duration
	dialer  Dialer
}

type Option func(*Client)

func WithServer(addr string) Option { return func(c *Client) { c.server = addr } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func WithDialer(d Dialer) Option { return func(c *Client) { c.dialer = d } }

func New(opts ...Option) *Client {
	c := &Client{server: DefaultServer, timeout: DefaultTimeout, dialer: &net.Dialer{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	referRe   = regexp.MustCompile(`(?im)^\s*(?:refer|whois):\s*(\S+)\s*$`)
	createdRe = regexp.MustCompile(`(?im)^\s*(?:creation date|created(?: on)?|registered on|registration time|domain registration date):\s*(.+?)\s*$`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"02.01.2006",
}

// CreationDate asks the root server which registry is authoritative for the
// domain's TLD, then asks that registry for the creation date.
func (c *Client) CreationDate(ctx context.Context, registrable string) (domain.DomainAge, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	server := c.server
	reply, err := c.query(ctx, server, registrable)
	if err != nil {
		return domain.DomainAge{}, err
	}
	if m := referRe.FindStringSubmatch(reply); m != nil {
		server = withPort(m[1])
		if reply, err = c.query(ctx, server, registrable); err != nil {
			return domain.DomainAge{}, err
		}
	}

	created, err := ParseCreationDate(reply)
	if err != nil {
		return domain.DomainAge{}, fmt.Errorf("%s via %s: %w", registrable, server, err)
	}
	return domain.DomainAge{CreatedAt: created, Source: "whois:" + strings.TrimSuffix(server, ":43")}, nil
}

func (c *Client) query(ctx context.Context, server, name string) (string, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		return "", fmt.Errorf("whois dial %s: %w", server, err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := io.WriteString(conn, name+"\r\n"); err != nil {
		return "", fmt.Errorf("whois write %s: %w", server, err)
	}
	body, err := io.ReadAll(io.LimitReader(conn, maxReplySize))
	if err != nil {
		return "", fmt.Errorf("whois read %s: %w", server, err)
	}
	return string(body), nil
}

// ParseCreationDate extracts the first recognisable creation date from a reply.
func ParseCreationDate(reply string) (time.Time, error) {
	for _, m := range createdRe.FindAllStringSubmatch(reply, -1) {
		value := m[1]
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
		// Some registries append a timezone comment after the timestamp.
		if fields := strings.Fields(value); len(fields) > 1 {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, fields[0]); err == nil {
					return t.UTC(), nil
				}
			}
		}
	}
	return time.Time{}, ErrNoCreationDate
}

func withPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, "43")
}
