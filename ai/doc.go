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

// Package ai provides abstractions for the AI services used by profilematch.
//
// This package defines interfaces for text embeddings and score summaries.
// The scoring engine and the ingestion orchestrator depend on these
// abstractions rather than on concrete clients.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text and reports its model id
//   - Summarizer: Writes a short natural-language rationale for a score
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Embeddings and summaries over OpenAI-compatible APIs
//   - ai/anthropic: Summaries using Claude models
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockSummarizer) return CONCRETE types so tests can inject behavior
// and inspect call counts.
//
// # Embedding Helper
//
// Embed wraps an Embedder with the contract both pipelines rely on: empty
// input yields empty output plus the configured model id, and vectors are
// optionally L2-normalized.
//
//	vectors, model, err := ai.Embed(ctx, provider.Embedder(), texts, true)
//
// The provider is created once per process and shared by the scoring engine
// and the ingestion orchestrator. Wrap the embedder in a CachingEmbedder to
// avoid re-embedding identical texts.
package ai
