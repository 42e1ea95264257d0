package core

import (
	"encoding/json"
	"strings"
)

// RerankStrategy is a hint accompanying a score request.
// The scoring engine currently applies the same weighted formula for every value.
type RerankStrategy string

const (
	RerankSemantic RerankStrategy = "semantic"
	RerankHybrid   RerankStrategy = "hybrid"
)

// Activity signal weights used by RecencyScore.
const (
	recentPublicationsWeight = 0.4
	newsMentionsWeight       = 0.3
	hiringWeight             = 0.2
	lastUpdatedWeight        = 0.1
)

// ScrapePayload is the raw output of a scraper for a single URL.
// Exactly one of Error or the content fields is meaningful.
type ScrapePayload struct {
	URL      string         `json:"url"`
	Markdown string         `json:"markdown,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// UnmarshalJSON accepts "markdown_content" as an alias for "markdown".
func (p *ScrapePayload) UnmarshalJSON(data []byte) error {
	type plain ScrapePayload
	var aux struct {
		plain
		MarkdownContent string `json:"markdown_content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ScrapePayload(aux.plain)
	if p.Markdown == "" {
		p.Markdown = aux.MarkdownContent
	}
	return nil
}

// Failed reports whether the scraper recorded an error for this URL.
func (p *ScrapePayload) Failed() bool {
	return p.Error != ""
}

// ScrapedProfile is the structured candidate built from one scrape payload.
// It is discarded once it has produced a persistence payload.
type ScrapedProfile struct {
	URL        string
	Name       string
	Department string
	Summary    string
	Keywords   []string
	Markdown   string
	Metadata   map[string]any
}

// ActivitySignals are presence-based indicators of a researcher's recent activity.
type ActivitySignals struct {
	RecentPublications []string `json:"recent_publications,omitempty"`
	NewsMentions       []string `json:"news_mentions,omitempty"`
	Hiring             *bool    `json:"hiring,omitempty"`
	LastUpdated        string   `json:"last_updated,omitempty"`
}

// RecencyScore returns the weighted presence of the signals, clamped to [0,1].
func (s *ActivitySignals) RecencyScore() float64 {
	if s == nil {
		return 0
	}
	var score float64
	if len(s.RecentPublications) > 0 {
		score += recentPublicationsWeight
	}
	if len(s.NewsMentions) > 0 {
		score += newsMentionsWeight
	}
	if s.Hiring != nil && *s.Hiring {
		score += hiringWeight
	}
	if s.LastUpdated != "" {
		score += lastUpdatedWeight
	}
	return min(score, 1.0)
}

// IsEmpty reports whether no signal is present.
func (s *ActivitySignals) IsEmpty() bool {
	return s == nil ||
		(len(s.RecentPublications) == 0 && len(s.NewsMentions) == 0 &&
			(s.Hiring == nil || !*s.Hiring) && s.LastUpdated == "")
}

// Profile is a structured researcher record. It is both the scoring input
// and the persistence payload; ProfileURL is the deduplication key.
type Profile struct {
	ProfileID       string           `json:"profile_id"`
	Name            string           `json:"name"`
	Title           string           `json:"title,omitempty"`
	Department      string           `json:"department,omitempty"`
	ProfileURL      string           `json:"profile_url,omitempty"`
	Summary         string           `json:"summary"`
	Keywords        []string         `json:"keywords"`
	ActivitySignals *ActivitySignals `json:"activity_signals,omitempty"`
	RerankStrategy  RerankStrategy   `json:"rerank_strategy,omitempty"`
}

// EmbeddingText is the text embedded for semantic scoring:
// summary, keywords, department and title, space-joined, empty parts skipped.
func (p *Profile) EmbeddingText() string {
	parts := make([]string, 0, 4)
	if p.Summary != "" {
		parts = append(parts, p.Summary)
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, strings.Join(p.Keywords, " "))
	}
	if p.Department != "" {
		parts = append(parts, p.Department)
	}
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	return strings.Join(parts, " ")
}

// ScoreBreakdown holds the per-profile scores, each in [0,1].
type ScoreBreakdown struct {
	Semantic      float64 `json:"semantic"`
	Compatibility float64 `json:"compatibility"`
	Feasibility   float64 `json:"feasibility"`
	FinalScore    float64 `json:"final_score"`
}

// CompatibilityDetail records how a compatibility score was derived.
type CompatibilityDetail struct {
	KeywordOverlap  float64 `json:"keyword_overlap"`
	DepartmentBonus float64 `json:"department_bonus"`
	SeniorityBonus  float64 `json:"seniority_bonus"`
	RawScore        float64 `json:"raw_score"`
	NormalizedScore float64 `json:"normalized_score"`
}

// FeasibilityDetail records how a feasibility score was derived.
type FeasibilityDetail struct {
	HasActivitySignals bool    `json:"has_activity_signals"`
	RawScore           float64 `json:"raw_score"`
	NormalizedScore    float64 `json:"normalized_score"`
}

// Rationale explains a ScoreBreakdown.
type Rationale struct {
	SemanticScore  float64             `json:"semantic_score"`
	Compatibility  CompatibilityDetail `json:"compatibility_details"`
	Feasibility    FeasibilityDetail   `json:"feasibility_details"`
	EmbeddingModel string              `json:"embedding_model"`
}

// ScoreResult is the scoring output for a single profile.
type ScoreResult struct {
	Profile     *Profile       `json:"profile"`
	Scores      ScoreBreakdown `json:"scores"`
	Rationale   Rationale      `json:"rationale"`
	SummaryText *string        `json:"summary_text"`
}

// ScrapeResult is the outcome for one URL in a scrape batch.
// Success is true iff ID is set and Error is empty.
type ScrapeResult struct {
	URL            string   `json:"url"`
	Success        bool     `json:"success"`
	ID             string   `json:"helix_id,omitempty"`
	Error          string   `json:"error,omitempty"`
	Profile        *Profile `json:"profile,omitempty"`
	EmbeddingModel string   `json:"embedding_model,omitempty"`
	Created        *bool    `json:"created,omitempty"`
}

// ScrapeSummary aggregates a scrape batch. Counts are derived from Results.
type ScrapeSummary struct {
	Results []*ScrapeResult
}

func (s *ScrapeSummary) Total() int {
	return len(s.Results)
}

func (s *ScrapeSummary) SuccessCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Success {
			n++
		}
	}
	return n
}

func (s *ScrapeSummary) FailureCount() int {
	return s.Total() - s.SuccessCount()
}

// MarshalJSON emits the derived counts alongside the results.
func (s *ScrapeSummary) MarshalJSON() ([]byte, error) {
	results := s.Results
	if results == nil {
		results = []*ScrapeResult{}
	}
	return json.Marshal(struct {
		Total        int             `json:"total"`
		SuccessCount int             `json:"success_count"`
		FailureCount int             `json:"failure_count"`
		Results      []*ScrapeResult `json:"results"`
	}{
		Total:        s.Total(),
		SuccessCount: s.SuccessCount(),
		FailureCount: s.FailureCount(),
		Results:      results,
	})
}

// Merge appends the results of other summaries in order.
func (s *ScrapeSummary) Merge(others ...*ScrapeSummary) {
	for _, o := range others {
		if o != nil {
			s.Results = append(s.Results, o.Results...)
		}
	}
}
