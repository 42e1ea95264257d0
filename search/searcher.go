package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/storage"
	"github.com/poiesic/profilematch/text"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Scorer ranks candidate profiles against a query.
type Scorer interface {
	Score(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error)
}

// Refresher scrapes and stores profiles for a set of URLs.
type Refresher interface {
	Run(ctx context.Context, urls []string, initializeSchema bool) (*core.ScrapeSummary, error)
}

// Options controls a single search.
type Options struct {
	// Limit caps the number of profiles retrieved. Zero means DefaultLimit.
	Limit int
	// URLs are scraped and stored before searching when non-empty.
	URLs []string
	// InitializeSchema is passed to the refresh run.
	InitializeSchema bool
}

// Searcher retrieves and scores stored profiles.
type Searcher struct {
	repository storage.ProfileRepository
	embedder   ai.Embedder
	scorer     Scorer
	refresher  Refresher
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "search")
		return nil
	}
}

// WithRefresher enables scraping the URLs named in Options before searching.
func WithRefresher(r Refresher) Option {
	return func(s *Searcher) error {
		s.refresher = r
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.ProfileRepository,
	embedder ai.Embedder,
	scorer Scorer,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	s := &Searcher{
		repository: repository,
		embedder:   embedder,
		scorer:     scorer,
		logger:     slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns scored profiles relevant to query, ordered by vector similarity.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]*core.ScoreResult, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.ScoreResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidLimit, limit, MaxLimit)
	}

	monitor.Start(query)

	// 1. Refresh requested URLs
	if len(opts.URLs) > 0 {
		if s.refresher == nil {
			return nil, ErrRefresherRequired
		}
		summary, err := s.refresher.Run(ctx, opts.URLs, opts.InitializeSchema)
		if err != nil {
			s.logger.Error("scraping pipeline failure", "err", err)
			return nil, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
		}
		monitor.AfterScrapeRefresh(summary)
		s.logger.Info("scraped URLs prior to search", "succeeded", summary.SuccessCount(), "total", summary.Total())
	}

	// 2. Embed the query
	vectors, _, err := ai.Embed(ctx, s.embedder, []string{query}, true)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		monitor.Finish(nil)
		return []*core.ScoreResult{}, nil
	}

	// 3. Nearest stored profiles
	hits, err := s.repository.SearchSimilar(ctx, vectors[0], limit)
	if errors.Is(err, storage.ErrIndexNotFound) {
		s.logger.Warn("vector index not found; store some profiles before searching")
		monitor.Finish(nil)
		return []*core.ScoreResult{}, nil
	}
	if err != nil {
		s.logger.Error("error querying for similar profiles", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(hits)

	profiles := make([]*core.Profile, 0, len(hits))
	for _, hit := range hits {
		if hit == nil || hit.Profile == nil {
			continue
		}
		if err := core.ValidateProfile(hit.Profile); err != nil {
			s.logger.Debug("skipping malformed record", "id", hit.ID, "err", err)
			monitor.SkippedRecord(hit.ID, err)
			continue
		}
		if text.ContainsAll(hit.Profile.EmbeddingText()+" "+hit.Profile.Name, query) {
			monitor.VerbatimHit(hit.Profile)
		}
		profiles = append(profiles, hit.Profile)
	}
	if len(profiles) == 0 {
		monitor.Finish(nil)
		return []*core.ScoreResult{}, nil
	}

	// 4. Score
	results, err := s.scorer.Score(ctx, query, profiles, core.RerankHybrid)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)

	return results, nil
}
