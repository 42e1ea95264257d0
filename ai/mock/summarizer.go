package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/profilematch/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	SummarizeFunc func(ctx context.Context, req *ai.SummaryRequest) (string, error)

	mu        sync.Mutex
	callCount int
}

func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a fixed sentence unless SummarizeFunc is set.
func (m *MockSummarizer) Summarize(ctx context.Context, req *ai.SummaryRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, req)
	}

	name := "profile"
	if req.Profile != nil {
		name = req.Profile.Name
	}
	return fmt.Sprintf("%s scored %.2f for %q.", name, req.Scores.FinalScore, req.Query), nil
}

func (m *MockSummarizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *MockSummarizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SummarizeFunc = nil
}
