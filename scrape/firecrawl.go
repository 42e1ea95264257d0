// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/retry"
)

const (
	DefaultBaseURL     = "https://api.firecrawl.dev"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond

	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes = 32 << 20

	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 512
)

// FirecrawlClient scrapes pages through the Firecrawl HTTP API.
type FirecrawlClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	maxBody     int64
	logger      *slog.Logger
}

var _ Scraper = (*FirecrawlClient)(nil)

// Option configures a FirecrawlClient.
type Option func(*FirecrawlClient) error

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *FirecrawlClient) error {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
		return nil
	}
}

// WithHTTPClient replaces the HTTP client, including its timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *FirecrawlClient) error {
		if client != nil {
			c.httpClient = client
		}
		return nil
	}
}

// WithRetry sets the attempt budget and base delay for transient failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *FirecrawlClient) error {
		if maxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *FirecrawlClient) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "firecrawl")
		return nil
	}
}

// NewFirecrawlClient creates a client authenticated with apiKey.
func NewFirecrawlClient(apiKey string, opts ...Option) (*FirecrawlClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &FirecrawlClient{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		maxBody:     DefaultMaxResponseBytes,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "firecrawl"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success *bool               `json:"success,omitempty"`
	Error   string              `json:"error,omitempty"`
	Data    *core.ScrapePayload `json:"data,omitempty"`
}

// Scrape fetches url as markdown plus metadata. Server errors and transport
// failures are retried; client errors are returned immediately.
func (c *FirecrawlClient) Scrape(ctx context.Context, url string) (*core.ScrapePayload, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	body, err := json.Marshal(scrapeRequest{URL: url, Formats: []string{"markdown", "metadata"}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var payload *core.ScrapePayload
	attempt := 0
	err = retry.WithBackoff(ctx, func() error {
		attempt++
		p, err := c.do(ctx, body)
		if err != nil {
			c.logger.Debug("scrape attempt failed", "url", url, "attempt", attempt, "error", err)
			return err
		}
		payload = p
		return nil
	}, c.maxAttempts, c.retryDelay)
	if err != nil {
		return nil, err
	}

	if payload.URL == "" {
		payload.URL = url
	}
	return payload, nil
}

func (c *FirecrawlClient) do(ctx context.Context, body []byte) (*core.ScrapePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(raw)) > c.maxBody {
		return nil, retry.Permanent(fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, c.maxBody))
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(raw))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}

	var decoded scrapeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: decode response: %w", ErrUpstream, err))
	}
	if decoded.Success != nil && !*decoded.Success {
		return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrUpstream, decoded.Error))
	}
	if decoded.Data != nil {
		return decoded.Data, nil
	}
	// Some deployments return the document at the top level.
	var flat core.ScrapePayload
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: decode response: %w", ErrUpstream, err))
	}
	return &flat, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
