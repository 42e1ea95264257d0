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

package storage

import (
	"context"
	"time"

	"github.com/poiesic/profilematch/core"
)

// StoredProfile is a persisted profile with its storage metadata.
type StoredProfile struct {
	// ID is the storage-assigned identifier, distinct from Profile.ProfileID.
	ID         string
	Profile    *core.Profile
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SearchHit is one vector search result. Score is the dot product of the
// query vector and the stored vector.
type SearchHit struct {
	ID      string
	Profile *core.Profile
	Score   float64
}

// VectorUpdate replaces the stored embedding of one profile.
type VectorUpdate struct {
	ID     string
	Vector []float32
}

// Checkpoint records how far a long-running processor got.
type Checkpoint struct {
	ProcessorType string    `json:"processor_type"`
	LastID        string    `json:"last_id"`
	Model         string    `json:"model,omitempty"`
	Processed     int       `json:"processed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileRepository persists researcher profiles and their embeddings.
// Implementations must be thread-safe and support concurrent access.
type ProfileRepository interface {
	// InitializeSchema prepares the store. Safe to call repeatedly.
	InitializeSchema(ctx context.Context) error

	// GetProfileByURL returns the profile stored for url.
	// Returns ErrNotFound if no profile has that URL.
	GetProfileByURL(ctx context.Context, url string) (*StoredProfile, error)

	// InsertProfile stores profile and its vector unless a profile with the
	// same ProfileURL exists. Returns the stored id and whether a new record
	// was created. Repeated calls with the same URL return the first id.
	InsertProfile(ctx context.Context, profile *core.Profile, vector []float32) (id string, created bool, err error)

	// GetProfile retrieves a single profile by storage id.
	// Returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id string) (*StoredProfile, error)

	// UpdateProfileVectors replaces stored embeddings.
	// Returns ErrNotFound if any profile doesn't exist; no update is applied then.
	UpdateProfileVectors(ctx context.Context, updates ...VectorUpdate) error

	// ForEachProfile calls fn for every decodable profile in storage key order.
	// Records that fail to decode are skipped. Iteration stops at the first
	// error returned by fn.
	ForEachProfile(ctx context.Context, fn func(*StoredProfile) error) error

	// CountProfiles returns the number of stored profiles.
	CountProfiles(ctx context.Context) (int, error)

	// SearchSimilar returns up to limit profiles ordered by similarity to
	// vector, highest first. Returns ErrIndexNotFound when no profile has a
	// vector yet.
	SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*SearchHit, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository persists processor checkpoints.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, replacing any previous one for
	// the same processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error

	// LoadCheckpoint returns nil, nil when no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*Checkpoint, error)

	// DeleteCheckpoint removes a checkpoint. Missing checkpoints are not an error.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
