package whois_test

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/adapters/whois"
)

// fakeServer answers every query with reply and records what it was asked.
func fakeServer(t *testing.T, reply string) (addr string, queries func() []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	var mu sync.Mutex
	var seen []string
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			line, _ := bufio.NewReader(conn).ReadString('\n')
			mu.Lock()
			seen = append(seen, line)
			mu.Unlock()
			_, _ = conn.Write([]byte(reply))
			conn.Close()
		}
	}()
	return ln.Addr().String(), func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

// routingDialer sends each logical server name to a local listener.
type routingDialer struct {
	routes map[string]string
	mu     sync.Mutex
	dialed []string
}

func (d *routingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.dialed = append(d.dialed, address)
	d.mu.Unlock()
	var nd net.Dialer
	return nd.DialContext(ctx, network, d.routes[address])
}

func TestCreationDate_FollowsReferral(t *testing.T) {
	iana, _ := fakeServer(t, "% IANA WHOIS server\n\nrefer:        whois.verisign-grs.com\n\ndomain:       COM\n")
	registry, registryQueries := fakeServer(t, "   Domain Name: EXAMPLE.COM\n   Creation Date: 2024-11-05T17:31:22Z\n   Registrar: Example\n")
	dialer := &routingDialer{routes: map[string]string{
		whois.DefaultServer:         iana,
		"whois.verisign-grs.com:43": registry,
	}}
	c := whois.New(whois.WithDialer(dialer), whois.WithTimeout(2*time.Second))

	age, err := c.CreationDate(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 5, 17, 31, 22, 0, time.UTC), age.CreatedAt)
	assert.Equal(t, "whois:whois.verisign-grs.com", age.Source)
	assert.Equal(t, []string{whois.DefaultServer, "whois.verisign-grs.com:43"}, dialer.dialed)
	assert.Equal(t, []string{"example.com\r\n"}, registryQueries())
}

func TestCreationDate_NoReferralUsesFirstReply(t *testing.T) {
	addr, _ := fakeServer(t, "domain: example.de\ncreated: 2019-02-03\n")
	c := whois.New(whois.WithServer(addr))

	age, err := c.CreationDate(context.Background(), "example.de")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 2, 3, 0, 0, 0, 0, time.UTC), age.CreatedAt)
}

func TestCreationDate_MissingDate(t *testing.T) {
	addr, _ := fakeServer(t, "No match for domain\n")
	c := whois.New(whois.WithServer(addr))

	_, err := c.CreationDate(context.Background(), "nothing.example")

	assert.ErrorIs(t, err, whois.ErrNoCreationDate)
}

func TestCreationDate_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	c := whois.New(whois.WithServer(addr), whois.WithTimeout(time.Second))

	_, err = c.CreationDate(context.Background(), "example.com")

	assert.Error(t, err)
}

func TestParseCreationDate(t *testing.T) {
	tests := []struct {
		reply string
		want  time.Time
	}{
		{"Creation Date: 2020-01-02T03:04:05Z", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"creation date: 2020-01-02T03:04:05+02:00", time.Date(2020, 1, 2, 1, 4, 5, 0, time.UTC)},
		{"Registered on: 02-Mar-2015", time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"Created On: 2001-09-10 00:00:00 (UTC)", time.Date(2001, 9, 10, 0, 0, 0, 0, time.UTC)},
		{"Registration Time: 2003-03-17 12:20:05", time.Date(2003, 3, 17, 12, 20, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := whois.ParseCreationDate("header\n" + tt.reply + "\nfooter\n")
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}
