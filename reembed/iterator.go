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

	"github.com/poiesic/profilematch/storage"
)

const (
	// DefaultBatchSize is the default number of profiles in each batch
	DefaultBatchSize = 100
)

// ProfileIterator walks stored profiles in batches.
type ProfileIterator struct {
	repo      storage.ProfileRepository
	batchSize int
}

// NewProfileIterator creates a new profile iterator.
// batchSize: number of profiles in each batch (defaults when <= 0)
func NewProfileIterator(repo storage.ProfileRepository, batchSize int) *ProfileIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ProfileIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches of profiles in storage order,
// starting after the profile id after (all profiles when after is empty).
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *ProfileIterator) ForEach(ctx context.Context, after string, fn func([]*storage.StoredProfile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*storage.StoredProfile, 0, it.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*storage.StoredProfile, 0, it.batchSize)
		return ctx.Err()
	}

	err := it.repo.ForEachProfile(ctx, func(p *storage.StoredProfile) error {
		// Storage order is byte order of the id, which matches string comparison.
		if after != "" && p.ID <= after {
			return nil
		}
		batch = append(batch, p)
		if len(batch) == it.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}
