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

package text

import (
	"regexp"
	"slices"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// Tokenize returns the lower-cased word-like tokens of s in order.
func Tokenize(s string) []string {
	if s == "" {
		return []string{}
	}
	matches := tokenPattern.FindAllString(s, -1)
	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = strings.ToLower(m)
	}
	return tokens
}

// Merge combines token sources into one lower-cased list, keeping only the
// first occurrence of each token across all sources in the order given.
func Merge(sources ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, source := range sources {
		for _, token := range source {
			if token == "" {
				continue
			}
			lowered := strings.ToLower(token)
			if _, ok := seen[lowered]; ok {
				continue
			}
			seen[lowered] = struct{}{}
			merged = append(merged, lowered)
		}
	}
	return merged
}

// QueryKeywords tokenizes a free-text query into a deduplicated keyword list.
func QueryKeywords(query string) []string {
	return Merge(Tokenize(query))
}

// TopByFrequency returns up to n distinct tokens ordered by descending count.
// Ties keep the order in which the tokens first appeared.
func TopByFrequency(tokens []string, n int) []string {
	if n <= 0 || len(tokens) == 0 {
		return []string{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, token := range tokens {
		if _, ok := counts[token]; !ok {
			order = append(order, token)
		}
		counts[token]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// ContainsAll reports whether every query token appears in document.
// An empty query never matches.
func ContainsAll(document, query string) bool {
	queryTokens := QueryKeywords(query)
	if len(queryTokens) == 0 {
		return false
	}

	docTokens := make(map[string]struct{})
	for _, token := range Tokenize(document) {
		docTokens[token] = struct{}{}
	}

	for _, token := range queryTokens {
		if _, ok := docTokens[token]; !ok {
			return false
		}
	}
	return true
}
