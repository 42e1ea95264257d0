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

package search

import "errors"

var (
	// ErrRepositoryRequired is returned when a profile repository is not provided.
	ErrRepositoryRequired = errors.New("profile repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrScorerRequired is returned when a scorer is not provided.
	ErrScorerRequired = errors.New("scorer required")

	// ErrRefresherRequired is returned when URLs are given but no refresher is configured.
	ErrRefresherRequired = errors.New("scrape refresher required")

	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("query is required")

	// ErrInvalidLimit is returned when the limit exceeds MaxLimit.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrScrapeFailed is returned when the pre-search scrape refresh fails.
	ErrScrapeFailed = errors.New("scrape refresh failed")
)
