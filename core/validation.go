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

package core

import (
	"fmt"
	"strings"
)

// ValidateScrapePayload validates a raw scrape payload before extraction.
//
// Validation rules:
//   - URL must not be empty
//
// NOT validated:
//   - Markdown and Metadata (extraction falls back to the URL for the name)
func ValidateScrapePayload(payload *ScrapePayload) error {
	if payload == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}
	if strings.TrimSpace(payload.URL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, ErrMissingURL)
	}
	return nil
}

// ValidateProfile validates a Profile submitted for scoring or persistence.
//
// Validation rules:
//   - ProfileID must not be empty
//   - Name must not be empty
//   - RerankStrategy, when set, must be semantic or hybrid
func ValidateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if profile.ProfileID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyProfileID)
	}
	if profile.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyName)
	}
	if profile.RerankStrategy != "" {
		if _, err := ParseRerankStrategy(string(profile.RerankStrategy)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
	}
	return nil
}

// ParseRerankStrategy parses a rerank hint. The empty string maps to hybrid.
func ParseRerankStrategy(s string) (RerankStrategy, error) {
	switch RerankStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RerankHybrid:
		return RerankHybrid, nil
	case RerankSemantic:
		return RerankSemantic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRerankStrategy, s)
	}
}
