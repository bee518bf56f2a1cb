package web_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/adapters/web"
)

func TestFetch_SendsDesktopUserAgent(t *testing.T) {
	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><title>hi</title></html>")
	}))
	defer srv.Close()

	page, err := web.NewFetcher(web.Config{}).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, web.DefaultUserAgent, <-gotUA)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "<title>hi</title>")
}

// redirectChain serves /hop/N redirecting to /hop/N-1 until /hop/0.
func redirectChain() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		if n > 0 {
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
			return
		}
		fmt.Fprint(w, "landed")
	}))
}

func TestFetch_RedirectLimit(t *testing.T) {
	srv := redirectChain()
	defer srv.Close()
	f := web.NewFetcher(web.Config{})

	page, err := f.Fetch(context.Background(), srv.URL+"/hop/5")
	require.NoError(t, err)
	assert.Equal(t, "landed", string(page.Body))
	assert.Equal(t, srv.URL+"/hop/0", page.FinalURL)

	_, err = f.Fetch(context.Background(), srv.URL+"/hop/6")
	assert.True(t, errors.Is(err, web.ErrTooManyRedirects), "got %v", err)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := web.NewFetcher(web.Config{}).Fetch(context.Background(), srv.URL)

	var se *web.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestFetch_TruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, strings.Repeat("a", 4096))
	}))
	defer srv.Close()

	page, err := web.NewFetcher(web.Config{MaxBody: 100}).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, page.Body, 100)
}

func TestFetch_DecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	page, err := web.NewFetcher(web.Config{}).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", string(page.Body))
}
