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

// Package anthropic implements ai.Summarizer with the Anthropic Messages API.
package anthropic

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/ai/chat"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// NewSummarizer creates a Claude-backed summarizer using config.SummaryModel.
// An empty config.SummaryToken yields ai.ErrMissingCredential; the
// ANTHROPIC_API_KEY environment variable is not consulted.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.SummaryToken == "" {
		return nil, fmt.Errorf("%w: anthropic API key not set", ai.ErrMissingCredential)
	}

	opts := []anthropic.Option{
		anthropic.WithToken(config.SummaryToken),
		anthropic.WithModel(config.SummaryModel),
	}
	if config.SummaryHost != "" {
		opts = append(opts, anthropic.WithBaseURL(config.SummaryHost))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}

	return chat.NewSummarizer(client, config.SummaryMaxTokens,
		slog.Default().With("backend", ai.SummaryBackendAnthropic)), nil
}
