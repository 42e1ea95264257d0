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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/storage"
)

// ProcessorType identifies re-embedding checkpoints.
const ProcessorType = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of profiles to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of profiles)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Resume continues from a stored checkpoint made with the same model
	Resume bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Resume:         true,
	}
}

// Reembedder recomputes the embedding of every stored profile.
type Reembedder struct {
	repo        storage.ProfileRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ProfileIterator
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithCheckpoints records progress after every batch so a run can resume.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(r *Reembedder) {
		r.checkpoints = checkpoints
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "reembed")
	}
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ProfileRepository, embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewProfileIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run re-embeds every stored profile with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.repo.CountProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to count profiles: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No profiles found in database (0 profiles)\n")
		return nil
	}

	model := r.embedder.Model()
	after, processed, err := r.resumePoint(ctx, model)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d profiles with %s (batch size: %d)\n",
		total-processed, model, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()
	tracker.Update(processed)

	err = r.iterator.ForEach(ctx, after, func(batch []*storage.StoredProfile) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Update(processed)
		return r.saveCheckpoint(ctx, batch[len(batch)-1].ID, model, processed)
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, ProcessorType); err != nil {
			r.logger.Warn("failed to clear checkpoint", "err", err)
		}
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d profiles in %v\n",
		total, elapsed.Round(time.Millisecond))

	return nil
}

// resumePoint returns the id to continue after and the number of profiles
// already done. Checkpoints written with another model are ignored.
func (r *Reembedder) resumePoint(ctx context.Context, model string) (string, int, error) {
	if r.checkpoints == nil || !r.config.Resume {
		return "", 0, nil
	}
	cp, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return "", 0, nil
	}
	if cp.Model != model {
		r.logger.Info("ignoring checkpoint from a different model", "checkpointModel", cp.Model, "model", model)
		return "", 0, nil
	}
	r.logger.Info("resuming from checkpoint", "lastID", cp.LastID, "processed", cp.Processed)
	return cp.LastID, cp.Processed, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, lastID, model string, processed int) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &storage.Checkpoint{
		ProcessorType: ProcessorType,
		LastID:        lastID,
		Model:         model,
		Processed:     processed,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
