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

// Package config loads service settings from a YAML file, a .env file and the
// process environment, in increasing order of precedence. Command-line flags
// are applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/profilematch/ai"
)

// Environment variables read by Load.
const (
	EnvClaudeAPIKey    = "CLAUDE_API"
	EnvClaudeModel     = "CLAUDE_MODEL"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvFirecrawlAPIKey = "FIRECRAWL_API"
	EnvEmbeddingModel  = "EMBEDDING_MODEL_NAME"
	EnvEmbeddingHost   = "EMBEDDING_HOST"
	EnvEmbeddingToken  = "EMBEDDING_API_KEY"
	EnvSummaryBackend  = "SUMMARY_BACKEND"
	EnvDatabasePath    = "PROFILEMATCH_DB"
	EnvListenAddr      = "PROFILEMATCH_ADDR"
)

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl"`
	AI        AIConfig        `yaml:"ai"`
	Ingestion IngestionConfig `yaml:"ingestion"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxConcurrency bounds in-flight API requests.
	MaxConcurrency int `yaml:"max_concurrency"`
	// RequestTimeout bounds a single API request, scraping included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type FirecrawlConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type AIConfig struct {
	EmbeddingHost      string `yaml:"embedding_host"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingToken     string `yaml:"embedding_token"`
	EmbeddingCacheSize int    `yaml:"embedding_cache_size"`
	SummaryBackend     string `yaml:"summary_backend"`
	SummaryHost        string `yaml:"summary_host"`
	SummaryModel       string `yaml:"summary_model"`
	SummaryToken       string `yaml:"summary_token"`
	SummaryMaxTokens   int    `yaml:"summary_max_tokens"`
}

type IngestionConfig struct {
	// Partitions splits large scrape batches into independent runs.
	Partitions int `yaml:"partitions"`
	// PoolSize is the number of partitions run concurrently.
	PoolSize int `yaml:"pool_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			MaxConcurrency: 16,
			RequestTimeout: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			Path: "./profile_db",
		},
		Firecrawl: FirecrawlConfig{
			BaseURL:     "https://api.firecrawl.dev",
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
		},
		AI: AIConfig{
			EmbeddingHost:      aiDefaults.EmbeddingHost,
			EmbeddingModel:     aiDefaults.EmbeddingModel,
			EmbeddingCacheSize: aiDefaults.EmbeddingCacheSize,
			SummaryBackend:     aiDefaults.SummaryBackend,
			SummaryModel:       aiDefaults.SummaryModel,
			SummaryMaxTokens:   aiDefaults.SummaryMaxTokens,
		},
		Ingestion: IngestionConfig{
			Partitions: 1,
			PoolSize:   2,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files and the process environment.
// A missing .env file is not an error; a missing YAML file is.
func Load(path string, envFiles ...string) (*Config, error) {
	dotenv := map[string]string{}
	for _, name := range envFiles {
		values, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	return load(path, lookup)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}
	cfg.applyEnv(lookup)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvClaudeAPIKey, &c.AI.SummaryToken)
	set(EnvClaudeModel, &c.AI.SummaryModel)
	set(EnvSummaryBackend, &c.AI.SummaryBackend)
	if strings.EqualFold(c.AI.SummaryBackend, ai.SummaryBackendGemini) {
		set(EnvGeminiAPIKey, &c.AI.SummaryToken)
	}
	set(EnvEmbeddingModel, &c.AI.EmbeddingModel)
	set(EnvEmbeddingHost, &c.AI.EmbeddingHost)
	set(EnvEmbeddingToken, &c.AI.EmbeddingToken)
	set(EnvFirecrawlAPIKey, &c.Firecrawl.APIKey)
	set(EnvDatabasePath, &c.Database.Path)
	set(EnvListenAddr, &c.Server.Addr)
}

// AIConfig converts the AI section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithEmbeddingToken(c.AI.EmbeddingToken),
		ai.WithEmbeddingCacheSize(c.AI.EmbeddingCacheSize),
		ai.WithSummaryBackend(c.AI.SummaryBackend),
		ai.WithSummaryHost(c.AI.SummaryHost),
		ai.WithSummaryModel(c.AI.SummaryModel),
		ai.WithSummaryToken(c.AI.SummaryToken),
		ai.WithSummaryMaxTokens(c.AI.SummaryMaxTokens),
	)
}

// Validate checks the settings needed to start. Missing API keys are not
// errors here: the features that need them report a configuration error
// when used.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server address is required", ErrInvalidConfig)
	}
	if c.Server.MaxConcurrency < 1 {
		return fmt.Errorf("%w: server max_concurrency must be at least 1", ErrInvalidConfig)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}
	if c.Firecrawl.MaxAttempts < 1 {
		return fmt.Errorf("%w: firecrawl max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Ingestion.Partitions < 1 || c.Ingestion.PoolSize < 1 {
		return fmt.Errorf("%w: ingestion partitions and pool_size must be at least 1", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
