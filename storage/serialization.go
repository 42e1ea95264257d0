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

package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/text"
)

// UnknownName is the name given to records with neither a name nor a URL.
const UnknownName = "Unknown Professor"

// flattenedSignalKeys are activity signal fields that legacy records store at
// the top level instead of under activity_signals.
var flattenedSignalKeys = []string{"recent_publications", "news_mentions", "hiring", "last_updated"}

// ProfileDocument is the persisted shape of a profile.
type ProfileDocument struct {
	ProfileID       string                `json:"profile_id"`
	Name            string                `json:"name"`
	Title           string                `json:"title,omitempty"`
	Department      string                `json:"department,omitempty"`
	ProfileURL      string                `json:"profile_url"`
	Summary         string                `json:"summary"`
	Keywords        []string              `json:"keywords"`
	ActivitySignals *core.ActivitySignals `json:"activity_signals,omitempty"`
	RerankStrategy  string                `json:"rerank_strategy,omitempty"`
	InsertedAt      time.Time             `json:"inserted_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewProfileDocument builds the persisted shape of p.
func NewProfileDocument(p *core.Profile) *ProfileDocument {
	return &ProfileDocument{
		ProfileID:       p.ProfileID,
		Name:            p.Name,
		Title:           p.Title,
		Department:      p.Department,
		ProfileURL:      p.ProfileURL,
		Summary:         p.Summary,
		Keywords:        p.Keywords,
		ActivitySignals: p.ActivitySignals,
		RerankStrategy:  string(p.RerankStrategy),
	}
}

// Profile converts the document back into a core.Profile.
func (d *ProfileDocument) Profile() *core.Profile {
	return &core.Profile{
		ProfileID:       d.ProfileID,
		Name:            d.Name,
		Title:           d.Title,
		Department:      d.Department,
		ProfileURL:      d.ProfileURL,
		Summary:         d.Summary,
		Keywords:        d.Keywords,
		ActivitySignals: d.ActivitySignals,
		RerankStrategy:  core.RerankStrategy(d.RerankStrategy),
	}
}

// MarshalProfileDocument serializes a document to JSON.
func MarshalProfileDocument(doc *ProfileDocument) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalProfileDocument parses a stored JSON record and coerces it
// through DecodeProfileDocument.
func UnmarshalProfileDocument(data []byte) (*ProfileDocument, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return DecodeProfileDocument(raw)
}

// DecodeProfileDocument coerces a loosely shaped record into a
// ProfileDocument and fills the defaulted fields.
func DecodeProfileDocument(raw map[string]any) (*ProfileDocument, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty record", ErrSerializationFailed)
	}
	input := make(map[string]any, len(raw))
	for k, v := range raw {
		input[k] = v
	}
	if err := nestActivitySignals(input); err != nil {
		return nil, fmt.Errorf("%w: activity_signals: %w", ErrSerializationFailed, err)
	}

	var doc ProfileDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	doc.applyDefaults(raw)
	return &doc, nil
}

// nestActivitySignals moves flattened signal fields under activity_signals
// and parses signals stored as a JSON string.
func nestActivitySignals(input map[string]any) error {
	if s, ok := input["activity_signals"].(string); ok {
		if strings.TrimSpace(s) == "" {
			delete(input, "activity_signals")
			return nil
		}
		var nested map[string]any
		if err := json.Unmarshal([]byte(s), &nested); err != nil {
			return err
		}
		input["activity_signals"] = nested
		return nil
	}
	if input["activity_signals"] != nil {
		return nil
	}

	nested := make(map[string]any)
	for _, key := range flattenedSignalKeys {
		if v, ok := input[key]; ok && v != nil {
			nested[key] = v
		}
		delete(input, key)
	}
	if len(nested) > 0 {
		input["activity_signals"] = nested
	}
	return nil
}

func (d *ProfileDocument) applyDefaults(raw map[string]any) {
	d.ProfileURL = strings.TrimSpace(d.ProfileURL)
	d.Name = strings.TrimSpace(d.Name)

	if d.ProfileID == "" {
		d.ProfileID = firstString(raw, "id", "_id")
	}
	if d.ProfileID == "" {
		d.ProfileID = d.ProfileURL
	}
	if d.ProfileID == "" {
		d.ProfileID = uuid.NewString()
	}

	if d.Name == "" {
		d.Name = d.ProfileURL
	}
	if d.Name == "" {
		d.Name = UnknownName
	}

	keywords := make([]string, 0, len(d.Keywords))
	for _, k := range d.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	d.Keywords = text.Merge(keywords)
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// MarshalVector serializes a vector as little-endian float32 values.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *Checkpoint) ([]byte, error) {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &checkpoint, nil
}
