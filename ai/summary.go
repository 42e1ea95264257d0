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

package ai

import (
	"context"
	"encoding/json"
	"math"

	"github.com/poiesic/profilematch/core"
)

// SummaryRequest carries everything a summarizer may explain.
type SummaryRequest struct {
	Query     string
	Profile   *core.Profile
	Scores    core.ScoreBreakdown
	Rationale core.Rationale
}

const summarySystemPrompt = `You are an assistant that writes concise, professional rationales for research match scoring. Summaries should be one or two sentences, mention the final score (formatted to two decimal places), highlight the semantic alignment, and optionally explain compatibility or feasibility factors.`

const summaryUserPrompt = `Given the structured data below, produce a short natural-language summary that explains why the profile earned the indicated scores. Mention the final score and key supporting details. Do not include bullet points or JSON.

Data:
`

type summaryPayload struct {
	UserQuery string         `json:"user_query"`
	Profile   summaryProfile `json:"profile"`
	Scores    summaryScores  `json:"scores"`
	Rationale core.Rationale `json:"rationale"`
}

type summaryProfile struct {
	Name       string   `json:"name"`
	Title      string   `json:"title,omitempty"`
	Department string   `json:"department,omitempty"`
	Summary    string   `json:"summary"`
	Keywords   []string `json:"keywords"`
}

type summaryScores struct {
	Semantic      float64 `json:"semantic"`
	Compatibility float64 `json:"compatibility"`
	Feasibility   float64 `json:"feasibility"`
	FinalScore    float64 `json:"final_score"`
}

// SummaryPrompts builds the system and user prompts for a summary request.
func SummaryPrompts(req *SummaryRequest) (system, user string, err error) {
	payload := summaryPayload{
		UserQuery: req.Query,
		Scores: summaryScores{
			Semantic:      round4(req.Scores.Semantic),
			Compatibility: round4(req.Scores.Compatibility),
			Feasibility:   round4(req.Scores.Feasibility),
			FinalScore:    round4(req.Scores.FinalScore),
		},
		Rationale: req.Rationale,
	}
	if req.Profile != nil {
		payload.Profile = summaryProfile{
			Name:       req.Profile.Name,
			Title:      req.Profile.Title,
			Department: req.Profile.Department,
			Summary:    req.Profile.Summary,
			Keywords:   req.Profile.Keywords,
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", "", err
	}
	return summarySystemPrompt, summaryUserPrompt + string(data) + "\n", nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

type unavailableSummarizer struct {
	err error
}

// UnavailableSummarizer returns a Summarizer that fails every call with err.
// Providers use it when no summary backend can be built.
func UnavailableSummarizer(err error) Summarizer {
	return unavailableSummarizer{err: err}
}

func (u unavailableSummarizer) Summarize(context.Context, *SummaryRequest) (string, error) {
	return "", u.err
}
