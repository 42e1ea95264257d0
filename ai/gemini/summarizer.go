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

// Package gemini implements ai.Summarizer with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/profilematch/ai"
	"google.golang.org/genai"
)

// DefaultModel is used when the configured model is not a Gemini model.
const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models the summarizer calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Summarizer struct {
	models    contentGenerator
	model     string
	maxTokens int32
	logger    *slog.Logger
}

var _ ai.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a Gemini-backed summarizer. config.SummaryToken is
// the Gemini API key; when empty ai.ErrMissingCredential is returned.
func NewSummarizer(ctx context.Context, config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(config.SummaryToken)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key not set", ai.ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newSummarizer(client.Models, config.SummaryModel, config.SummaryMaxTokens), nil
}

func newSummarizer(models contentGenerator, model string, maxTokens int) *Summarizer {
	if model = strings.TrimSpace(model); !strings.HasPrefix(model, "gemini") {
		model = DefaultModel
	}
	return &Summarizer{
		models:    models,
		model:     model,
		maxTokens: int32(maxTokens),
		logger:    slog.Default().With("component", "gemini-summarizer"),
	}
}

func (s *Summarizer) Summarize(ctx context.Context, req *ai.SummaryRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil request", ai.ErrEmptySummary)
	}
	system, user, err := ai.SummaryPrompts(req)
	if err != nil {
		return "", err
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temperature,
	}
	if s.maxTokens > 0 {
		config.MaxOutputTokens = s.maxTokens
	}

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(user), config)
	if err != nil {
		s.logger.Warn("failed to generate summary", "err", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	return firstText(resp)
}

// firstText joins the text parts of every candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ai.ErrEmptySummary
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		return "", ai.ErrEmptySummary
	}
	return b.String(), nil
}
