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

package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/text"
)

const (
	// DefaultKeywordLimit is how many frequent tokens are added to the seed keywords.
	DefaultKeywordLimit = 12

	// minParagraphLength is the shortest block accepted as a summary paragraph.
	minParagraphLength = 40
)

var (
	headingPattern    = regexp.MustCompile(`(?m)^#{1,3}[ \t]+([^\n#]+)$`)
	departmentPattern = regexp.MustCompile(`(?i)(?:Department of|Dept\. of|School of)\s+([^\n\r]+)`)
)

// Extractor builds ScrapedProfiles from ScrapePayloads. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	keywordLimit int
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "extractor")
		return nil
	}
}

// WithKeywordLimit sets how many frequent tokens are merged into the keywords.
func WithKeywordLimit(n int) Option {
	return func(e *Extractor) error {
		if n < 0 {
			return fmt.Errorf("keyword limit cannot be negative: %d", n)
		}
		e.keywordLimit = n
		return nil
	}
}

// NewExtractor creates an Extractor with DefaultKeywordLimit unless overridden.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		keywordLimit: DefaultKeywordLimit,
		logger:       slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Extract derives a profile from a successful payload. Payloads without a URL
// fail with core.ErrInvalidPayload.
func (e *Extractor) Extract(payload *core.ScrapePayload) (*core.ScrapedProfile, error) {
	if err := core.ValidateScrapePayload(payload); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(payload.URL)
	markdown := payload.Markdown
	metadata := payload.Metadata

	name := metadataString(metadata, "title")
	if name == "" {
		name = firstHeading(markdown)
	}
	if name == "" {
		name = url
	}

	summary := metadataString(metadata, "description")
	if summary == "" {
		summary = firstParagraph(markdown)
	}
	if summary == "" {
		summary = name
	}

	seed := metadataKeywords(metadata)
	frequent := text.TopByFrequency(text.Tokenize(markdown+" "+summary), e.keywordLimit)
	keywords := text.Merge(seed, frequent)

	profile := &core.ScrapedProfile{
		URL:        url,
		Name:       name,
		Department: findDepartment(markdown),
		Summary:    summary,
		Keywords:   keywords,
		Markdown:   markdown,
		Metadata:   metadata,
	}
	e.logger.Debug("extracted profile", "url", url, "name", name, "department", profile.Department, "keywords", len(keywords))
	return profile, nil
}

func firstHeading(markdown string) string {
	m := headingPattern.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// firstParagraph returns the first blank-line separated block of at least
// minParagraphLength characters, else the first non-empty block. Newlines
// inside the block are folded to spaces.
func firstParagraph(markdown string) string {
	var first string
	for _, block := range strings.Split(markdown, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if first == "" {
			first = block
		}
		if utf8.RuneCountInString(block) >= minParagraphLength {
			return foldLines(block)
		}
	}
	return foldLines(first)
}

func foldLines(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func findDepartment(markdown string) string {
	m := departmentPattern.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func metadataString(metadata map[string]any, key string) string {
	s, ok := metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// metadataKeywords reads metadata["keywords"] as a comma separated string or a list.
func metadataKeywords(metadata map[string]any) []string {
	var raw []string
	switch v := metadata["keywords"].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	keywords := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
