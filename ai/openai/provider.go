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

package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/profilematch/ai"
	"github.com/poiesic/profilematch/ai/anthropic"
	"github.com/poiesic/profilematch/ai/gemini"
)

type Provider struct {
	config     *ai.Config
	embedder   ai.Embedder
	summarizer ai.Summarizer
	logger     *slog.Logger
}

// NewProvider builds the embedder (cached when config.EmbeddingCacheSize > 0)
// and the summarizer selected by config.SummaryBackend.
// Build it once per process and share it between pipelines.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "openai-provider")

	base, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	embedder, err := ai.NewCachingEmbedder(base, config.EmbeddingCacheSize)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(config)
	if errors.Is(err, ai.ErrMissingCredential) {
		logger.Warn("summary credential missing; score summaries disabled", "backend", config.SummaryBackend)
		summarizer = ai.UnavailableSummarizer(err)
	} else if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		summarizer: summarizer,
		logger:     logger,
	}, nil
}

func newSummarizer(config *ai.Config) (ai.Summarizer, error) {
	switch config.SummaryBackend {
	case ai.SummaryBackendAnthropic:
		return anthropic.NewSummarizer(config)
	case ai.SummaryBackendOpenAI:
		return NewSummarizer(config)
	case ai.SummaryBackendGemini:
		return gemini.NewSummarizer(context.Background(), config)
	case ai.SummaryBackendNone:
		return ai.UnavailableSummarizer(fmt.Errorf("%w: summaries disabled", ai.ErrMissingCredential)), nil
	default:
		return nil, fmt.Errorf("unknown summary backend %q", config.SummaryBackend)
	}
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Summarizer() ai.Summarizer {
	return p.summarizer
}

func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
