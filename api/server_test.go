package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/scoring"
	"github.com/poiesic/profilematch/search"
)

var errNotConfigured = errors.New("not configured")

// fakeBackend records calls and returns canned values.
type fakeBackend struct {
	embedFn  func(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error)
	scoreFn  func(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error)
	scrapeFn func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error)
	searchFn func(ctx context.Context, query string, opts search.Options) ([]*core.ScoreResult, error)
}

func (f *fakeBackend) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
	return f.embedFn(ctx, texts, normalize)
}

func (f *fakeBackend) Score(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error) {
	return f.scoreFn(ctx, query, profiles, strategy)
}

func (f *fakeBackend) Scrape(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
	return f.scrapeFn(ctx, urls, init)
}

func (f *fakeBackend) Search(ctx context.Context, query string, opts search.Options) ([]*core.ScoreResult, error) {
	return f.searchFn(ctx, query, opts)
}

func newTestServer(t *testing.T, backend Backend, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithConfigErrorClassifier(func(err error) bool { return errors.Is(err, errNotConfigured) })}, opts...)
	s, err := NewServer(backend, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		ts.Close()
		s.Release()
	})
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{})
	resp, body := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestEmbed(t *testing.T) {
	var gotNormalize []bool
	backend := &fakeBackend{embedFn: func(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
		gotNormalize = append(gotNormalize, normalize)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, "test-model", nil
	}}
	ts := newTestServer(t, backend)

	resp, body := post(t, ts, "/embed", `{"texts":["a","b"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-model", body["model"])
	assert.Len(t, body["embeddings"], 2)

	resp, _ = post(t, ts, "/embed", `{"texts":["a"],"normalize":false}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []bool{true, false}, gotNormalize)

	resp, _ = post(t, ts, "/embed", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = post(t, ts, "/embed", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "invalid JSON")
}

func TestScore(t *testing.T) {
	var gotStrategy core.RerankStrategy
	backend := &fakeBackend{scoreFn: func(ctx context.Context, q string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error) {
		gotStrategy = strategy
		return []*core.ScoreResult{{Profile: profiles[0], Scores: core.ScoreBreakdown{FinalScore: 0.5}}}, nil
	}}
	ts := newTestServer(t, backend)

	resp, body := post(t, ts, "/score", `{"user_query":"ml","profiles":[{"profile_id":"p1","name":"Ada","summary":"s"}],"rerank_strategy":"semantic"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.RerankSemantic, gotStrategy)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Nil(t, first["summary_text"])
	assert.Equal(t, 0.5, first["scores"].(map[string]any)["final_score"])

	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{"profiles":[]}`},
		{"missing profiles", `{"user_query":"ml"}`},
		{"bad strategy", `{"user_query":"ml","profiles":[],"rerank_strategy":"magic"}`},
		{"invalid profile", `{"user_query":"ml","profiles":[{"name":"No Id"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := post(t, ts, "/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestScore_EmbeddingFailure(t *testing.T) {
	backend := &fakeBackend{scoreFn: func(ctx context.Context, q string, p []*core.Profile, s core.RerankStrategy) ([]*core.ScoreResult, error) {
		return nil, fmt.Errorf("%w: connection refused", scoring.ErrEmbedding)
	}}
	ts := newTestServer(t, backend)

	resp, _ := post(t, ts, "/score", `{"user_query":"ml","profiles":[]}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestScrape(t *testing.T) {
	backend := &fakeBackend{scrapeFn: func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
		created := true
		return &core.ScrapeSummary{Results: []*core.ScrapeResult{
			{URL: urls[0], Success: true, ID: "1", Created: &created},
			{URL: urls[1], Success: false, Error: "boom"},
		}}, nil
	}}
	ts := newTestServer(t, backend)

	resp, body := post(t, ts, "/scrape/professors", `{"urls":["https://a","https://b"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["total"])
	assert.Equal(t, 1.0, body["success_count"])
	assert.Equal(t, 1.0, body["failure_count"])
	first := body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "1", first["helix_id"])

	resp, body = post(t, ts, "/scrape/professors", `{"urls":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At least one URL is required.", body["detail"])
}

func TestScrape_NotConfigured(t *testing.T) {
	backend := &fakeBackend{scrapeFn: func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
		return nil, errNotConfigured
	}}
	ts := newTestServer(t, backend)

	resp, _ := post(t, ts, "/scrape/professors", `{"urls":["https://a"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	var got search.Options
	var gotQuery string
	backend := &fakeBackend{searchFn: func(ctx context.Context, q string, opts search.Options) ([]*core.ScoreResult, error) {
		gotQuery, got = q, opts
		return nil, nil
	}}
	ts := newTestServer(t, backend)

	resp, body := get(t, ts, "/profiles/search?query=protein+folding&urls=https://a&urls=https://b&initialize_schema=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "protein folding", gotQuery)
	assert.Equal(t, search.DefaultLimit, got.Limit)
	assert.Equal(t, []string{"https://a", "https://b"}, got.URLs)
	assert.True(t, got.InitializeSchema)
	assert.Equal(t, []any{}, body["results"])

	for _, path := range []string{
		"/profiles/search",
		"/profiles/search?query=x&limit=0",
		"/profiles/search?query=x&limit=101",
		"/profiles/search?query=x&limit=abc",
		"/profiles/search?query=x&initialize_schema=maybe",
	} {
		resp, _ := get(t, ts, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	resp, _ = get(t, ts, "/profiles/search?query=x&limit=100")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, got.Limit)
}

func TestSearch_ScrapeFailure(t *testing.T) {
	backend := &fakeBackend{searchFn: func(ctx context.Context, q string, opts search.Options) ([]*core.ScoreResult, error) {
		return nil, fmt.Errorf("%w: schema", search.ErrScrapeFailed)
	}}
	ts := newTestServer(t, backend)

	resp, body := get(t, ts, "/profiles/search?query=x&urls=https://a")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["detail"], "Failed to scrape")
}

func TestUnencodableResponseIsServerError(t *testing.T) {
	backend := &fakeBackend{embedFn: func(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
		return [][]float32{{float32(math.NaN())}}, "test-model", nil
	}}
	ts := newTestServer(t, backend)

	resp, body := post(t, ts, "/embed", `{"texts":["a"]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["detail"])
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	backend := &fakeBackend{embedFn: func(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
		panic("boom")
	}}
	ts := newTestServer(t, backend)

	resp, body := post(t, ts, "/embed", `{"texts":["a"]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["detail"])
}

func TestConcurrencyIsBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	backend := &fakeBackend{embedFn: func(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return [][]float32{}, "m", nil
	}}
	ts := newTestServer(t, backend, WithMaxConcurrency(2))

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/embed", "application/json", strings.NewReader(`{"texts":[]}`))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(&fakeBackend{}, WithMaxConcurrency(0))
	assert.Error(t, err)
}
