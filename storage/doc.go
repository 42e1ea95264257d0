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

// Package storage provides the storage abstraction layer for profilematch.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion and search pipelines. The badger subpackage is the
// production implementation.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction:
//
//	repo, err := badger.NewProfileRepository(backend)  // returns storage.ProfileRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Records
//
// Profiles are stored as JSON documents and always decoded through
// ProfileDocument, which applies defaults at the deserialization boundary:
//
//   - keywords may be a comma separated string or a list
//   - activity signals may be nested under activity_signals or flattened
//   - the profile id falls back through profile_id, id, _id, profile_url,
//     then a fresh UUID
//   - the name falls back to profile_url, then "Unknown Professor"
//
// Records that cannot be coerced are skipped by scans with a debug log.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	repo, err := badger.NewProfileRepository(backend)
//	id, created, err := repo.InsertProfile(ctx, profile, vector)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryProfileRepository()
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
