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

// Package scoring ranks researcher profiles against a free-text query.
//
// Every profile receives three component scores in [0,1]:
//
//   - semantic: cosine similarity between the query and profile embeddings
//   - compatibility: min-max normalized keyword overlap plus small department
//     diversity and seniority bonuses
//   - feasibility: min-max normalized activity recency, 0.5 when unknown
//
// The final score is 0.6·semantic + 0.2·compatibility + 0.2·feasibility,
// clamped to [0,1]. Compatibility and feasibility are relative to the batch
// being scored, so the same profile can score differently in another batch.
//
// # Usage
//
//	engine, err := scoring.NewEngine(provider.Embedder(),
//	    scoring.WithSummarizer(provider.Summarizer()))
//	results, err := engine.Score(ctx, "protein folding", profiles, core.RerankHybrid)
package scoring
