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

package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/similarity"
	"github.com/poiesic/profilematch/text"
	"golang.org/x/sync/errgroup"
)

// DefaultSummaryConcurrency bounds in-flight summarizer calls per Score.
const DefaultSummaryConcurrency = 4

// Engine scores profiles against a query. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	embedder   ai.Embedder
	summarizer ai.Summarizer
	summaryMax int
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithSummarizer enables per-result summary text.
func WithSummarizer(s ai.Summarizer) Option {
	return func(e *Engine) error {
		e.summarizer = s
		return nil
	}
}

// WithSummaryConcurrency sets how many summaries are generated at once.
func WithSummaryConcurrency(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("summary concurrency must be at least 1, got %d", n)
		}
		e.summaryMax = n
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "scoring-engine")
		return nil
	}
}

// NewEngine creates an Engine that embeds with embedder. It returns
// ErrEmbedderRequired when embedder is nil.
func NewEngine(embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	e := &Engine{
		embedder:   embedder,
		summaryMax: DefaultSummaryConcurrency,
		logger:     slog.Default().With("component", "scoring-engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Score ranks profiles against query and returns one result per profile in
// input order. Callers sort by FinalScore if they need a ranking.
//
// The rerank strategy is validated but both strategies use the same weights.
// An embedding failure fails the whole call; a summary failure only leaves
// that result's SummaryText nil.
func (e *Engine) Score(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error) {
	if _, err := core.ParseRerankStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return []*core.ScoreResult{}, nil
	}
	for _, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("%w: profile is nil", core.ErrInvalidProfile)
		}
	}

	semantic, model, err := e.semanticScores(ctx, query, profiles)
	if err != nil {
		return nil, err
	}

	queryTokens := text.QueryKeywords(query)
	compat, compatDetails := compatibility(queryTokens, profiles)
	feas, feasDetails := feasibility(profiles)

	results := make([]*core.ScoreResult, len(profiles))
	for i, p := range profiles {
		result := &core.ScoreResult{
			Profile: p,
			Scores:  Aggregate(semantic[i], compat[i], feas[i]),
			Rationale: core.Rationale{
				SemanticScore:  semantic[i],
				Compatibility:  compatDetails[i],
				Feasibility:    feasDetails[i],
				EmbeddingModel: model,
			},
		}
		results[i] = result
	}
	e.summarizeAll(ctx, query, results)

	e.logger.Debug("scored profiles", "count", len(results), "model", model)
	return results, nil
}

// semanticScores embeds the profile texts and the query in two batched calls
// and returns the cosine similarity of each profile to the query. Missing
// vectors score 0.
func (e *Engine) semanticScores(ctx context.Context, query string, profiles []*core.Profile) ([]float64, string, error) {
	texts := make([]string, len(profiles))
	for i, p := range profiles {
		texts[i] = p.EmbeddingText()
	}

	profileVectors, model, err := ai.Embed(ctx, e.embedder, texts, true)
	if err != nil {
		return nil, model, fmt.Errorf("%w: profiles: %w", ErrEmbedding, err)
	}
	queryVectors, _, err := ai.Embed(ctx, e.embedder, []string{query}, true)
	if err != nil {
		return nil, model, fmt.Errorf("%w: query: %w", ErrEmbedding, err)
	}

	scores := make([]float64, len(profiles))
	if len(queryVectors) == 0 || len(queryVectors[0]) == 0 || len(profileVectors) == 0 {
		e.logger.Warn("empty embeddings; semantic scores set to zero", "profiles", len(profiles))
		return scores, model, nil
	}
	if len(profileVectors) < len(profiles) {
		e.logger.Warn("embedder returned fewer vectors than profiles", "profiles", len(profiles), "vectors", len(profileVectors))
	}

	row := similarity.Matrix(queryVectors[:1], profileVectors)[0]
	copy(scores, row)
	return scores, model, nil
}

// summarizeAll fills SummaryText concurrently. Each goroutine writes only
// its own result.
func (e *Engine) summarizeAll(ctx context.Context, query string, results []*core.ScoreResult) {
	if e.summarizer == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(e.summaryMax)
	for _, result := range results {
		g.Go(func() error {
			result.SummaryText = e.summarize(ctx, query, result)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) summarize(ctx context.Context, query string, result *core.ScoreResult) *string {
	if e.summarizer == nil {
		return nil
	}
	summary, err := e.summarizer.Summarize(ctx, &ai.SummaryRequest{
		Query:     query,
		Profile:   result.Profile,
		Scores:    result.Scores,
		Rationale: result.Rationale,
	})
	if err != nil {
		e.logger.Debug("no summary for profile", "profile_id", result.Profile.ProfileID, "err", err)
		return nil
	}
	return &summary
}
