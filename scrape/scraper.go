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

package scrape

import (
	"context"
	"log/slog"

	"github.com/poiesic/profilematch/core"
)

// Scraper fetches a single page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*core.ScrapePayload, error)
}

// ScraperFunc adapts a function to the Scraper interface.
type ScraperFunc func(ctx context.Context, url string) (*core.ScrapePayload, error)

func (f ScraperFunc) Scrape(ctx context.Context, url string) (*core.ScrapePayload, error) {
	return f(ctx, url)
}

// Batch scrapes urls one at a time and returns one payload per URL, in order.
// It never fails: a scrape error is recorded on the payload for that URL.
func Batch(ctx context.Context, scraper Scraper, urls []string, logger *slog.Logger) []*core.ScrapePayload {
	if logger == nil {
		logger = slog.Default()
	}
	payloads := make([]*core.ScrapePayload, 0, len(urls))
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			payloads = append(payloads, &core.ScrapePayload{URL: url, Error: err.Error()})
			continue
		}
		payload, err := scraper.Scrape(ctx, url)
		if err != nil {
			logger.Warn("scrape failed", "url", url, "error", err)
			payloads = append(payloads, &core.ScrapePayload{URL: url, Error: err.Error()})
			continue
		}
		if payload == nil {
			payload = &core.ScrapePayload{}
		}
		if payload.URL == "" {
			payload.URL = url
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
