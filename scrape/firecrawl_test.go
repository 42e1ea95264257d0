package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/profilematch/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *FirecrawlClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewFirecrawlClient("test-key", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestNewFirecrawlClient_MissingKey(t *testing.T) {
	_, err := NewFirecrawlClient("  ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewFirecrawlClient_InvalidRetry(t *testing.T) {
	_, err := NewFirecrawlClient("k", WithRetry(0, time.Second))
	assert.Error(t, err)
}

func TestScrape_NestedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body scrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://u.edu/ada", body.URL)
		assert.Equal(t, []string{"markdown", "metadata"}, body.Formats)

		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Ada","metadata":{"title":"Ada"}}}`))
	})

	p, err := c.Scrape(context.Background(), "https://u.edu/ada")
	require.NoError(t, err)
	assert.Equal(t, "https://u.edu/ada", p.URL)
	assert.Equal(t, "# Ada", p.Markdown)
	assert.Equal(t, "Ada", p.Metadata["title"])
	assert.False(t, p.Failed())
}

func TestScrape_FlatResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"https://other","markdown_content":"body"}`))
	})

	p, err := c.Scrape(context.Background(), "https://u.edu/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other", p.URL)
	assert.Equal(t, "body", p.Markdown)
}

func TestScrape_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"markdown":"ok"}}`))
	})

	p, err := c.Scrape(context.Background(), "https://u.edu/x")
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Markdown)
	assert.Equal(t, int32(3), calls.Load())
}

func TestScrape_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.Scrape(context.Background(), "https://u.edu/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestScrape_ServerErrorExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Scrape(context.Background(), "https://u.edu/x")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(3), calls.Load())
}

func TestScrape_UnsuccessfulBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"blocked"}`))
	})

	_, err := c.Scrape(context.Background(), "https://u.edu/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestScrape_OversizedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"` + strings.Repeat("x", 256) + `"}}`))
	})
	c.maxBody = 64

	_, err := c.Scrape(context.Background(), "https://u.edu/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "exceeds 64 bytes")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("  short \n")))

	// each rune is three bytes, so maxErrorBody falls mid-rune
	long := strings.Repeat("量", maxErrorBody)
	got := truncate([]byte(long))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxErrorBody+len("..."))
}

func TestScrape_EmptyURL(t *testing.T) {
	c, err := NewFirecrawlClient("k")
	require.NoError(t, err)
	_, err = c.Scrape(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestBatch_RecordsFailures(t *testing.T) {
	s := ScraperFunc(func(ctx context.Context, url string) (*core.ScrapePayload, error) {
		if url == "bad" {
			return nil, errors.New("boom")
		}
		return &core.ScrapePayload{Markdown: "md " + url}, nil
	})

	got := Batch(context.Background(), s, []string{"a", "bad", "c"}, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].URL)
	assert.Equal(t, "md a", got[0].Markdown)
	assert.Equal(t, "bad", got[1].URL)
	assert.Equal(t, "boom", got[1].Error)
	assert.True(t, got[1].Failed())
	assert.Equal(t, "c", got[2].URL)
}

func TestBatch_Empty(t *testing.T) {
	got := Batch(context.Background(), ScraperFunc(func(ctx context.Context, url string) (*core.ScrapePayload, error) {
		t.Fatal("scraper should not be called")
		return nil, nil
	}), nil, nil)
	assert.Empty(t, got)
}
