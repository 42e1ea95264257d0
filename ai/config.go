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

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Summary backends.
const (
	SummaryBackendAnthropic = "anthropic"
	SummaryBackendOpenAI    = "openai"
	SummaryBackendGemini    = "gemini"
	SummaryBackendNone      = "none"
)

type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// It is also reported as the model id in score rationales.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingToken is the bearer token for the embedding service.
	// Local servers accept any value; "none" is used when empty.
	EmbeddingToken string

	// SummaryBackend selects the summary generator: anthropic, openai, gemini or none.
	SummaryBackend string

	// SummaryHost is the base URL for the summary backend. Required for
	// openai; anthropic uses its public endpoint when empty. Ignored by gemini.
	SummaryHost string

	// SummaryModel is the model identifier used for score summaries.
	// Example: "claude-3-haiku-20240307", "qwen2.5:3b"
	SummaryModel string

	// SummaryToken is the API key for the summary backend.
	// When empty, summaries are skipped rather than failing the score request.
	SummaryToken string

	// SummaryMaxTokens caps the length of generated summaries.
	// Default: 250
	SummaryMaxTokens int

	// EmbeddingCacheSize is the number of embeddings kept in the LRU cache.
	// 0 disables caching.
	EmbeddingCacheSize int
}

type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

func WithSummaryBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.SummaryBackend = backend
	}
}

func WithSummaryHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummaryHost = host
	}
}

func WithSummaryModel(model string) ConfigOption {
	return func(c *Config) {
		c.SummaryModel = model
	}
}

func WithSummaryToken(token string) ConfigOption {
	return func(c *Config) {
		c.SummaryToken = token
	}
}

func WithSummaryMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.SummaryMaxTokens = n
	}
}

func WithEmbeddingCacheSize(n int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingCacheSize = n
	}
}

func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		EmbeddingModel:     "all-minilm",
		SummaryBackend:     SummaryBackendAnthropic,
		SummaryModel:       "claude-3-haiku-20240307",
		SummaryMaxTokens:   250,
		EmbeddingCacheSize: 4096,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) Normalize() {
	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	c.SummaryBackend = strings.ToLower(strings.TrimSpace(c.SummaryBackend))
	if c.SummaryBackend == SummaryBackendOpenAI {
		c.SummaryHost = withV1Suffix(c.SummaryHost)
	}
}

// withV1Suffix ensures an OpenAI-compatible base URL ends with /v1.
func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingCacheSize < 0 {
		return errors.New("ai config: EmbeddingCacheSize cannot be negative")
	}

	switch c.SummaryBackend {
	case SummaryBackendNone:
		return nil
	case SummaryBackendAnthropic, SummaryBackendGemini:
	case SummaryBackendOpenAI:
		if c.SummaryHost == "" {
			return errors.New("ai config: SummaryHost is required for the openai summary backend")
		}
	default:
		return fmt.Errorf("ai config: unknown SummaryBackend %q", c.SummaryBackend)
	}

	if c.SummaryModel == "" {
		return errors.New("ai config: SummaryModel is required")
	}
	if c.SummaryMaxTokens <= 0 {
		return errors.New("ai config: SummaryMaxTokens must be greater than 0")
	}
	return nil
}
