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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/scrape"
	"github.com/poiesic/profilematch/storage"
)

// unknownURL labels failures whose payload carried no URL.
const unknownURL = "unknown"

// ProfileExtractor derives a structured profile from a scrape payload.
type ProfileExtractor interface {
	Extract(payload *core.ScrapePayload) (*core.ScrapedProfile, error)
}

// Orchestrator coordinates scraping, extraction, embedding and persistence.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	scraper    scrape.Scraper
	extractor  ProfileExtractor
	embedder   ai.Embedder
	repository storage.ProfileRepository
	poolSize   int
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the number of workers RunPartitioned uses.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		o.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewOrchestrator creates a new ingestion orchestrator.
func NewOrchestrator(
	scraper scrape.Scraper,
	extractor ProfileExtractor,
	embedder ai.Embedder,
	repository storage.ProfileRepository,
	opts ...Option,
) (*Orchestrator, error) {
	if scraper == nil {
		return nil, ErrScraperRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	o := &Orchestrator{
		scraper:    scraper,
		extractor:  extractor,
		embedder:   embedder,
		repository: repository,
		poolSize:   max(runtime.NumCPU()/2, 1),
		logger:     slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// extracted pairs a structured profile with its slot in the result list.
type extracted struct {
	index   int
	profile *core.ScrapedProfile
}

// Run scrapes urls and persists every profile it can build. The summary holds
// one result per URL in input order. An error is returned only when schema
// initialization or the batch embedding call fails.
func (o *Orchestrator) Run(ctx context.Context, urls []string, initializeSchema bool) (*core.ScrapeSummary, error) {
	if len(urls) == 0 {
		return &core.ScrapeSummary{Results: []*core.ScrapeResult{}}, nil
	}

	if initializeSchema {
		if err := o.initializeSchema(ctx); err != nil {
			return nil, err
		}
	}

	payloads := scrape.Batch(ctx, o.scraper, urls, o.logger)
	results := make([]*core.ScrapeResult, len(payloads))

	var records []extracted
	for i, payload := range payloads {
		if payload.Failed() {
			results[i] = failed(payload.URL, payload.Error)
			continue
		}
		profile, err := o.extractor.Extract(payload)
		if err != nil {
			o.logger.Error("failed to normalize scraped payload", "url", payload.URL, "err", err)
			results[i] = failed(payload.URL, err.Error())
			continue
		}
		records = append(records, extracted{index: i, profile: profile})
	}

	if len(records) == 0 {
		return &core.ScrapeSummary{Results: results}, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.profile.Summary
		if texts[i] == "" {
			texts[i] = r.profile.Name
		}
	}
	vectors, model, err := ai.Embed(ctx, o.embedder, texts, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) < len(records) {
		o.logger.Warn("embedding count does not match scraped profile count",
			"embeddings", len(vectors), "profiles", len(records))
	}

	for i, r := range records {
		var vector []float32
		if i < len(vectors) {
			vector = vectors[i]
		}
		results[r.index] = o.persist(ctx, r.profile, vector, model)
	}

	return &core.ScrapeSummary{Results: results}, nil
}

func (o *Orchestrator) initializeSchema(ctx context.Context) error {
	if err := o.repository.InitializeSchema(ctx); err != nil {
		o.logger.Error("schema initialization failed", "err", err)
		return fmt.Errorf("%w: %w", ErrSchemaInitialization, err)
	}
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, scraped *core.ScrapedProfile, vector []float32, model string) *core.ScrapeResult {
	profileID := scraped.URL
	if profileID == "" {
		profileID = uuid.NewString()
	}
	payload := &core.Profile{
		ProfileID:      profileID,
		Name:           scraped.Name,
		Department:     scraped.Department,
		ProfileURL:     scraped.URL,
		Summary:        scraped.Summary,
		Keywords:       scraped.Keywords,
		RerankStrategy: core.RerankHybrid,
	}

	id, created, err := o.repository.InsertProfile(ctx, payload, vector)
	if err != nil {
		o.logger.Error("profile insertion failed", "url", scraped.URL, "err", err)
		return failed(scraped.URL, err.Error())
	}
	if id == "" {
		return failed(scraped.URL, "store returned an empty id")
	}
	o.logger.Debug("stored profile", "url", scraped.URL, "id", id, "created", created)

	profile := *payload
	profile.ProfileID = id
	return &core.ScrapeResult{
		URL:            scraped.URL,
		Success:        true,
		ID:             id,
		Profile:        &profile,
		EmbeddingModel: model,
		Created:        &created,
	}
}

func failed(url, reason string) *core.ScrapeResult {
	if strings.TrimSpace(url) == "" {
		url = unknownURL
	}
	return &core.ScrapeResult{URL: url, Success: false, Error: reason}
}
