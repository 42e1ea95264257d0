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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPayload indicates a ScrapePayload failed validation.
	ErrInvalidPayload = errors.New("invalid scrape payload")

	// ErrInvalidProfile indicates a Profile failed validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrMissingURL indicates the URL field is empty.
	ErrMissingURL = errors.New("url cannot be empty")

	// ErrEmptyName indicates the profile Name field is empty.
	ErrEmptyName = errors.New("profile name cannot be empty")

	// ErrEmptyProfileID indicates the ProfileID field is empty.
	ErrEmptyProfileID = errors.New("profile id cannot be empty")

	// ErrInvalidRerankStrategy indicates an unknown rerank strategy.
	ErrInvalidRerankStrategy = errors.New("invalid rerank strategy")
)
