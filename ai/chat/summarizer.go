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

// Package chat implements ai.Summarizer on top of any langchaingo chat model.
//
// The openai and anthropic packages build the model client and hand it to
// NewSummarizer; tests pass a langchaingo fake model.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/profilematch/ai"
	"github.com/tmc/langchaingo/llms"
)

// Summarizer generates score summaries with a chat model.
type Summarizer struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

var _ ai.Summarizer = (*Summarizer)(nil)

// NewSummarizer wraps client. maxTokens <= 0 leaves the model default.
func NewSummarizer(client llms.Model, maxTokens int, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client:    client,
		maxTokens: maxTokens,
		logger:    logger.With("component", "chat-summarizer"),
	}
}

// Summarize asks the model for a one or two sentence rationale.
func (s *Summarizer) Summarize(ctx context.Context, req *ai.SummaryRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil request", ai.ErrEmptySummary)
	}
	system, user, err := ai.SummaryPrompts(req)
	if err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if s.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.maxTokens))
	}

	response, err := s.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		s.logger.Warn("failed to generate summary", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptySummary
	}

	summary := strings.TrimSpace(response.Choices[0].Content)
	if summary == "" {
		return "", ai.ErrEmptySummary
	}
	return summary, nil
}
