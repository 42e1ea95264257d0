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

// Package extract turns raw scrape payloads into structured researcher profiles.
//
// Extraction is heuristic and deterministic: the page title or first heading
// becomes the name, the description or first substantial paragraph becomes
// the summary, a "Department of" style phrase becomes the department, and
// keywords combine any seeded metadata keywords with the most frequent page
// tokens.
package extract
