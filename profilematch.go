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

// Package profilematch wires storage, AI providers, scraping, ingestion,
// scoring and search into a single service.
package profilematch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/ai/openai"
	"github.com/poiesic/profilematch/config"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/extract"
	"github.com/poiesic/profilematch/ingestion"
	"github.com/poiesic/profilematch/reembed"
	"github.com/poiesic/profilematch/scoring"
	"github.com/poiesic/profilematch/scrape"
	"github.com/poiesic/profilematch/search"
	"github.com/poiesic/profilematch/storage"
	"github.com/poiesic/profilematch/storage/badger"
)

type Service struct {
	config         *config.Config
	backend        *badger.Backend
	profileRepo    storage.ProfileRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	engine         *scoring.Engine
	orchestrator   *ingestion.Orchestrator
	searcher       *search.Searcher
	scrapeErr      error
	logger         *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	scraper  scrape.Scraper
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the AI config.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithScraper uses scraper instead of a Firecrawl client.
func WithScraper(scraper scrape.Scraper) ServiceOption {
	return func(o *serviceOptions) {
		o.scraper = scraper
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens the profile store and builds every component from cfg.
// A missing Firecrawl key does not fail construction; scrape operations
// return ErrScrapingUnavailable instead.
func NewService(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(cfg.Database.Path, cfg.Database.InMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	profileRepo, err := badger.NewProfileRepository(backend)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	s := &Service{
		config:         cfg,
		backend:        backend,
		profileRepo:    profileRepo,
		checkpointRepo: badger.NewCheckpointRepository(backend),
		provider:       provider,
		logger:         logger,
	}

	if err := s.build(options.scraper); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build(scraper scrape.Scraper) error {
	engine, err := scoring.NewEngine(s.provider.Embedder(),
		scoring.WithSummarizer(s.provider.Summarizer()),
		scoring.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.engine = engine

	if scraper == nil {
		scraper, s.scrapeErr = s.newFirecrawlClient()
	}

	searchOpts := []search.Option{search.WithLogger(s.logger)}
	if scraper != nil {
		extractor, err := extract.NewExtractor(extract.WithLogger(s.logger))
		if err != nil {
			return err
		}
		s.orchestrator, err = ingestion.NewOrchestrator(scraper, extractor, s.provider.Embedder(), s.profileRepo,
			ingestion.WithPoolSize(s.config.Ingestion.PoolSize),
			ingestion.WithLogger(s.logger))
		if err != nil {
			return err
		}
		searchOpts = append(searchOpts, search.WithRefresher(s.orchestrator))
	} else {
		s.logger.Warn("scraping disabled", "err", s.scrapeErr)
	}

	s.searcher, err = search.NewSearcher(s.profileRepo, s.provider.Embedder(), engine, searchOpts...)
	return err
}

func (s *Service) newFirecrawlClient() (scrape.Scraper, error) {
	fc := s.config.Firecrawl
	client, err := scrape.NewFirecrawlClient(fc.APIKey,
		scrape.WithBaseURL(fc.BaseURL),
		scrape.WithHTTPClient(&http.Client{Timeout: fc.Timeout}),
		scrape.WithRetry(fc.MaxAttempts, scrape.DefaultRetryDelay),
		scrape.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScrapingUnavailable, err)
	}
	return client, nil
}

func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.profileRepo.Close(); err != nil {
		s.logger.Error("error closing profile repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Embed embeds texts with the configured embedder.
func (s *Service) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error) {
	return ai.Embed(ctx, s.provider.Embedder(), texts, normalize)
}

// Score ranks profiles against query.
func (s *Service) Score(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error) {
	return s.engine.Score(ctx, query, profiles, strategy)
}

// Scrape ingests urls, partitioned per the ingestion config.
func (s *Service) Scrape(ctx context.Context, urls []string, initializeSchema bool) (*core.ScrapeSummary, error) {
	if s.orchestrator == nil {
		return nil, s.scrapeErr
	}
	return s.orchestrator.RunPartitioned(ctx, urls, initializeSchema, s.config.Ingestion.Partitions)
}

// Search finds and scores stored profiles for query.
func (s *Service) Search(ctx context.Context, query string, opts search.Options) ([]*core.ScoreResult, error) {
	if len(opts.URLs) > 0 && s.orchestrator == nil {
		return nil, s.scrapeErr
	}
	return s.searcher.Search(ctx, query, opts)
}

// Reembed recomputes every stored embedding with the configured embedder.
func (s *Service) Reembed(ctx context.Context, cfg *reembed.Config, progress io.Writer) error {
	r, err := reembed.NewReembedder(s.profileRepo, s.provider.Embedder(), cfg, progress,
		reembed.WithCheckpoints(s.checkpointRepo),
		reembed.WithLogger(s.logger))
	if err != nil {
		return err
	}
	return r.Run(ctx)
}

// IsConfigurationError reports whether err stems from missing or invalid
// collaborator configuration rather than a runtime failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrScrapingUnavailable) ||
		errors.Is(err, ai.ErrMissingCredential) ||
		errors.Is(err, scrape.ErrMissingAPIKey) ||
		errors.Is(err, config.ErrInvalidConfig)
}

func (s *Service) ProfileRepository() storage.ProfileRepository {
	return s.profileRepo
}

func (s *Service) CheckpointRepository() storage.CheckpointRepository {
	return s.checkpointRepo
}
