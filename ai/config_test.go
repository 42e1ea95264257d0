package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, SummaryBackendAnthropic, cfg.SummaryBackend)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.SummaryModel)
	assert.Equal(t, 250, cfg.SummaryMaxTokens)
	assert.Equal(t, 4096, cfg.EmbeddingCacheSize)
	assert.Empty(t, cfg.SummaryToken)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with embedding options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingToken("sk-embed"),
			WithEmbeddingCacheSize(0),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "sk-embed", cfg.EmbeddingToken)
		assert.Equal(t, 0, cfg.EmbeddingCacheSize)
	})

	t.Run("with summary options", func(t *testing.T) {
		cfg := NewConfig(
			WithSummaryBackend(SummaryBackendOpenAI),
			WithSummaryHost("http://chat:9090"),
			WithSummaryModel("qwen2.5:3b"),
			WithSummaryToken("secret"),
			WithSummaryMaxTokens(100),
		)

		assert.Equal(t, SummaryBackendOpenAI, cfg.SummaryBackend)
		assert.Equal(t, "http://chat:9090", cfg.SummaryHost)
		assert.Equal(t, "qwen2.5:3b", cfg.SummaryModel)
		assert.Equal(t, "secret", cfg.SummaryToken)
		assert.Equal(t, 100, cfg.SummaryMaxTokens)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name            string
		backend         string
		embeddingHost   string
		summaryHost     string
		expectedEmbed   string
		expectedSummary string
		expectedBackend string
	}{
		{
			name:            "already has /v1",
			backend:         SummaryBackendOpenAI,
			embeddingHost:   "http://localhost:11434/v1",
			summaryHost:     "http://localhost:11434/v1",
			expectedEmbed:   "http://localhost:11434/v1",
			expectedSummary: "http://localhost:11434/v1",
			expectedBackend: SummaryBackendOpenAI,
		},
		{
			name:            "missing /v1",
			backend:         SummaryBackendOpenAI,
			embeddingHost:   "http://localhost:11434",
			summaryHost:     "http://localhost:11434",
			expectedEmbed:   "http://localhost:11434/v1",
			expectedSummary: "http://localhost:11434/v1",
			expectedBackend: SummaryBackendOpenAI,
		},
		{
			name:            "has trailing slash",
			backend:         SummaryBackendOpenAI,
			embeddingHost:   "http://localhost:11434/",
			summaryHost:     "http://localhost:11434/",
			expectedEmbed:   "http://localhost:11434/v1",
			expectedSummary: "http://localhost:11434/v1",
			expectedBackend: SummaryBackendOpenAI,
		},
		{
			name:            "anthropic host left alone",
			backend:         " Anthropic ",
			embeddingHost:   "http://embed:8080",
			summaryHost:     "https://api.anthropic.com",
			expectedEmbed:   "http://embed:8080/v1",
			expectedSummary: "https://api.anthropic.com",
			expectedBackend: SummaryBackendAnthropic,
		},
		{
			name:            "empty hosts",
			backend:         SummaryBackendOpenAI,
			expectedBackend: SummaryBackendOpenAI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:  tt.embeddingHost,
				SummaryHost:    tt.summaryHost,
				SummaryBackend: tt.backend,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbed, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedSummary, cfg.SummaryHost)
			assert.Equal(t, tt.expectedBackend, cfg.SummaryBackend)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:    "http://localhost:11434",
			EmbeddingModel:   "all-minilm",
			SummaryBackend:   SummaryBackendAnthropic,
			SummaryModel:     "claude-3-haiku-20240307",
			SummaryMaxTokens: 250,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("missing token is not an error", func(t *testing.T) {
		cfg := valid()
		cfg.SummaryToken = ""

		assert.NoError(t, cfg.Validate())
	})

	t.Run("none backend skips summary checks", func(t *testing.T) {
		cfg := valid()
		cfg.SummaryBackend = SummaryBackendNone
		cfg.SummaryModel = ""
		cfg.SummaryMaxTokens = 0

		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"negative cache size", func(c *Config) { c.EmbeddingCacheSize = -1 }, "EmbeddingCacheSize"},
		{"unknown backend", func(c *Config) { c.SummaryBackend = "cohere" }, "SummaryBackend"},
		{"openai without host", func(c *Config) { c.SummaryBackend = SummaryBackendOpenAI }, "SummaryHost"},
		{"missing summary model", func(c *Config) { c.SummaryModel = "" }, "SummaryModel"},
		{"zero max tokens", func(c *Config) { c.SummaryMaxTokens = 0 }, "SummaryMaxTokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
