package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "only punctuation", in: "!?., ;", want: []string{}},
		{name: "lowercases", in: "Machine Learning", want: []string{"machine", "learning"}},
		{name: "keeps hyphen and underscore", in: "CAR-T cell_therapy", want: []string{"car-t", "cell_therapy"}},
		{name: "digits", in: "GPT4 in 2024.", want: []string{"gpt4", "in", "2024"}},
		{name: "splits on punctuation", in: "vision,nlp;robotics", want: []string{"vision", "nlp", "robotics"}},
		{name: "keeps duplicates", in: "ai AI", want: []string{"ai", "ai"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestMerge(t *testing.T) {
	t.Run("case-insensitive dedup keeps first seen order", func(t *testing.T) {
		assert.Equal(t, []string{"ai", "ml"}, Merge([]string{"AI", "ai", "ML"}))
	})

	t.Run("order of first appearance across sources", func(t *testing.T) {
		got := Merge([]string{"Physics", "optics"}, []string{"lasers", "PHYSICS", "quantum"}, []string{"optics"})
		assert.Equal(t, []string{"physics", "optics", "lasers", "quantum"}, got)
	})

	t.Run("no sources", func(t *testing.T) {
		assert.Empty(t, Merge())
	})

	t.Run("skips empty tokens", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, Merge([]string{"", "a", ""}))
	})
}

func TestQueryKeywords(t *testing.T) {
	assert.Equal(t, []string{"deep", "learning", "for", "vision"}, QueryKeywords("Deep learning for vision, deep LEARNING"))
	assert.Empty(t, QueryKeywords(""))
}

func TestTopByFrequency(t *testing.T) {
	t.Run("ranks by count", func(t *testing.T) {
		tokens := []string{"a", "b", "b", "c", "c", "c"}
		assert.Equal(t, []string{"c", "b", "a"}, TopByFrequency(tokens, 10))
	})

	t.Run("ties resolve by first occurrence", func(t *testing.T) {
		tokens := []string{"z", "y", "x", "y", "z"}
		assert.Equal(t, []string{"z", "y", "x"}, TopByFrequency(tokens, 10))
	})

	t.Run("limits to n", func(t *testing.T) {
		tokens := []string{"a", "b", "c", "d"}
		assert.Equal(t, []string{"a", "b"}, TopByFrequency(tokens, 2))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, TopByFrequency(nil, 12))
		assert.Empty(t, TopByFrequency([]string{"a"}, 0))
	})
}

func TestContainsAll(t *testing.T) {
	tests := []struct {
		name     string
		document string
		query    string
		want     bool
	}{
		{name: "all present", document: "Quantum error correction research", query: "quantum correction", want: true},
		{name: "case insensitive", document: "Quantum Computing", query: "QUANTUM computing", want: true},
		{name: "missing token", document: "Quantum computing", query: "quantum biology", want: false},
		{name: "empty query", document: "anything", query: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsAll(tt.document, tt.query))
		})
	}
}
