package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "./profile_db", cfg.Database.Path)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.AI.SummaryModel)
	assert.Equal(t, "all-minilm", cfg.AI.EmbeddingModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, 60*time.Second, cfg.Firecrawl.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
  max_concurrency: 4
database:
  path: /var/lib/profiles
firecrawl:
  timeout: 30s
ai:
  embedding_model: nomic-embed-text
  summary_model: from-yaml
`)

	cfg, err := load(path, envMap(map[string]string{
		EnvClaudeModel:     "from-env",
		EnvFirecrawlAPIKey: "fc-key",
		EnvListenAddr:      "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "empty env values do not override")
	assert.Equal(t, 4, cfg.Server.MaxConcurrency)
	assert.Equal(t, "/var/lib/profiles", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Firecrawl.Timeout)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, "from-env", cfg.AI.SummaryModel)
	assert.Equal(t, "fc-key", cfg.Firecrawl.APIKey)
	assert.Equal(t, 3, cfg.Firecrawl.MaxAttempts, "unset keys keep defaults")
}

func TestLoad_MissingYAML(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "server: [")
	_, err := load(path, envMap(nil))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "PROFILEMATCH_TEST_ONLY=1\nCLAUDE_API=dotenv-key\n")
	t.Setenv(EnvClaudeAPIKey, "")
	os.Unsetenv(EnvClaudeAPIKey)

	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.AI.SummaryToken)
}

func TestLoad_EnvironmentBeatsDotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "EMBEDDING_HOST=http://dotenv:11434/v1\n")
	t.Setenv(EnvEmbeddingHost, "http://process:11434/v1")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://process:11434/v1", cfg.AI.EmbeddingHost)
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.AI.SummaryToken = "key"
	cfg.AI.EmbeddingCacheSize = 10

	aiCfg := cfg.AIConfig()
	assert.Equal(t, "key", aiCfg.SummaryToken)
	assert.Equal(t, 10, aiCfg.EmbeddingCacheSize)
	assert.Equal(t, cfg.AI.SummaryModel, aiCfg.SummaryModel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero concurrency", func(c *Config) { c.Server.MaxConcurrency = 0 }},
		{"no db path", func(c *Config) { c.Database.Path = "" }},
		{"zero attempts", func(c *Config) { c.Firecrawl.MaxAttempts = 0 }},
		{"zero partitions", func(c *Config) { c.Ingestion.Partitions = 0 }},
		{"bad summary backend", func(c *Config) { c.AI.SummaryBackend = "carrier-pigeon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("in-memory database needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Path = ""
		cfg.Database.InMemory = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoad_GeminiKey(t *testing.T) {
	env := map[string]string{
		EnvClaudeAPIKey:   "claude-key",
		EnvGeminiAPIKey:   "gemini-key",
		EnvSummaryBackend: "gemini",
	}
	cfg, err := load("", envMap(env))
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.AI.SummaryToken)

	delete(env, EnvSummaryBackend)
	cfg, err = load("", envMap(env))
	require.NoError(t, err)
	assert.Equal(t, "claude-key", cfg.AI.SummaryToken)
}
