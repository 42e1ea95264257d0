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

package scoring

import (
	"math"
	"slices"
	"strings"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/text"
)

// Score weights.
const (
	SemanticWeight      = 0.6
	CompatibilityWeight = 0.2
	FeasibilityWeight   = 0.2
)

const (
	// DepartmentBonus rewards the first profile seen from each department.
	DepartmentBonus = 0.1

	// SeniorityBonus rewards assistant and associate titles.
	SeniorityBonus = 0.05

	// UnknownFeasibility is the raw feasibility of a profile without activity signals.
	UnknownFeasibility = 0.5

	flatRangeEpsilon = 1e-6
)

// KeywordOverlap returns the fraction of distinct query tokens present in
// the profile tokens, compared case-insensitively. Either side empty gives 0.
func KeywordOverlap(queryTokens, profileTokens []string) float64 {
	querySet := lowerSet(queryTokens)
	profileSet := lowerSet(profileTokens)
	if len(querySet) == 0 || len(profileSet) == 0 {
		return 0
	}

	overlap := 0
	for token := range querySet {
		if _, ok := profileSet[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(querySet))
}

func lowerSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	return set
}

// Normalize min-max scales xs to [0,1]. A range narrower than 1e-6 maps
// every value to 0.
func Normalize(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	lo, hi := slices.Min(xs), slices.Max(xs)
	if hi-lo < flatRangeEpsilon {
		return out
	}
	for i, x := range xs {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

// Clamp01 bounds x to [0,1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return max(0, min(1, x))
}

// Aggregate combines the component scores into a breakdown. Inputs are
// clamped before weighting and the weighted sum is clamped again.
func Aggregate(semantic, compatibility, feasibility float64) core.ScoreBreakdown {
	s, c, f := Clamp01(semantic), Clamp01(compatibility), Clamp01(feasibility)
	return core.ScoreBreakdown{
		Semantic:      s,
		Compatibility: c,
		Feasibility:   f,
		FinalScore:    Clamp01(SemanticWeight*s + CompatibilityWeight*c + FeasibilityWeight*f),
	}
}

// ProfileTokens is the token set compared against the query: the profile's
// keywords plus the tokens of its summary and department.
func ProfileTokens(p *core.Profile) []string {
	return text.Merge(p.Keywords, text.Tokenize(p.Summary), text.Tokenize(p.Department))
}

func seniorityBonus(title string) float64 {
	lowered := strings.ToLower(title)
	if strings.Contains(lowered, "assistant") || strings.Contains(lowered, "associate") {
		return SeniorityBonus
	}
	return 0
}

// compatibility scores profiles in order. The department bonus goes to the
// first profile of each department within this batch only.
func compatibility(queryTokens []string, profiles []*core.Profile) ([]float64, []core.CompatibilityDetail) {
	raw := make([]float64, len(profiles))
	details := make([]core.CompatibilityDetail, len(profiles))
	seen := make(map[string]struct{})

	for i, p := range profiles {
		overlap := KeywordOverlap(queryTokens, ProfileTokens(p))

		department := strings.ToLower(strings.TrimSpace(p.Department))
		var deptBonus float64
		if department != "" {
			if _, ok := seen[department]; !ok {
				deptBonus = DepartmentBonus
			}
			seen[department] = struct{}{}
		}

		seniority := seniorityBonus(p.Title)
		raw[i] = overlap + deptBonus + seniority
		details[i] = core.CompatibilityDetail{
			KeywordOverlap:  overlap,
			DepartmentBonus: deptBonus,
			SeniorityBonus:  seniority,
			RawScore:        raw[i],
		}
	}

	normalized := Normalize(raw)
	for i := range details {
		details[i].NormalizedScore = normalized[i]
	}
	return normalized, details
}

func feasibility(profiles []*core.Profile) ([]float64, []core.FeasibilityDetail) {
	raw := make([]float64, len(profiles))
	details := make([]core.FeasibilityDetail, len(profiles))

	for i, p := range profiles {
		score := UnknownFeasibility
		if p.ActivitySignals != nil {
			score = p.ActivitySignals.RecencyScore()
		}
		raw[i] = score
		details[i] = core.FeasibilityDetail{
			HasActivitySignals: p.ActivitySignals != nil,
			RawScore:           score,
		}
	}

	normalized := Normalize(raw)
	for i := range details {
		details[i].NormalizedScore = normalized[i]
	}
	return normalized, details
}
