package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/retry"
	"github.com/poiesic/profilematch/storage"
)

// BatchProcessor handles embedding generation for batches of profiles.
type BatchProcessor struct {
	repo           storage.ProfileRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ProfileRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds a batch of profiles and stores the normalized vectors.
// The embedded text is the profile summary, or its name when the summary is empty.
func (bp *BatchProcessor) Process(ctx context.Context, profiles []*storage.StoredProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	texts := make([]string, len(profiles))
	for i, p := range profiles {
		texts[i] = vectorText(p)
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, _, err = ai.Embed(ctx, bp.embedder, texts, true)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(profiles) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(profiles), len(embeddings))
	}

	updates := make([]storage.VectorUpdate, len(profiles))
	for i, p := range profiles {
		updates[i] = storage.VectorUpdate{ID: p.ID, Vector: embeddings[i]}
	}
	if err := bp.repo.UpdateProfileVectors(ctx, updates...); err != nil {
		return fmt.Errorf("failed to update profiles: %w", err)
	}

	return nil
}

func vectorText(p *storage.StoredProfile) string {
	if p.Profile == nil {
		return p.ID
	}
	if p.Profile.Summary != "" {
		return p.Profile.Summary
	}
	return p.Profile.Name
}
