package extract

import (
	"testing"

	"github.com/poiesic/profilematch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watsonPage = `# Dr. Emily Watson

Department of Physics

Emily Watson studies quantum materials and topological phases of matter
using ultrafast spectroscopy.

## Publications

Quantum spin liquids in layered magnets.`

func newExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := NewExtractor(opts...)
	require.NoError(t, err)
	return e
}

func TestExtract_FromMarkdown(t *testing.T) {
	e := newExtractor(t)

	p, err := e.Extract(&core.ScrapePayload{URL: " https://uni.edu/watson ", Markdown: watsonPage})
	require.NoError(t, err)

	assert.Equal(t, "https://uni.edu/watson", p.URL)
	assert.Equal(t, "Dr. Emily Watson", p.Name)
	assert.Equal(t, "Physics", p.Department)
	assert.Equal(t, "Emily Watson studies quantum materials and topological phases of matter using ultrafast spectroscopy.", p.Summary)
	assert.Equal(t, watsonPage, p.Markdown)
	assert.Contains(t, p.Keywords, "quantum")
	assert.LessOrEqual(t, len(p.Keywords), DefaultKeywordLimit)
	assert.Contains(t, p.Keywords, "emily")
}

func TestExtract_MetadataWins(t *testing.T) {
	e := newExtractor(t)

	p, err := e.Extract(&core.ScrapePayload{
		URL:      "https://uni.edu/chen",
		Markdown: watsonPage,
		Metadata: map[string]any{
			"title":       "  Sarah Chen  ",
			"description": "Machine learning for healthcare.",
			"keywords":    "Deep Learning, healthcare , ,NLP",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Sarah Chen", p.Name)
	assert.Equal(t, "Machine learning for healthcare.", p.Summary)
	assert.Equal(t, []string{"deep learning", "healthcare", "nlp"}, p.Keywords[:3])
}

func TestExtract_MetadataKeywordList(t *testing.T) {
	e := newExtractor(t, WithKeywordLimit(0))

	p, err := e.Extract(&core.ScrapePayload{
		URL:      "https://uni.edu/x",
		Metadata: map[string]any{"keywords": []any{"Robotics", 7, "robotics", "Control"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"robotics", "control"}, p.Keywords)
}

func TestExtract_Fallbacks(t *testing.T) {
	e := newExtractor(t)

	t.Run("no markdown uses url for name and summary", func(t *testing.T) {
		p, err := e.Extract(&core.ScrapePayload{URL: "https://uni.edu/empty"})
		require.NoError(t, err)

		assert.Equal(t, "https://uni.edu/empty", p.Name)
		assert.Equal(t, "https://uni.edu/empty", p.Summary)
		assert.Empty(t, p.Department)
	})

	t.Run("short blocks fall back to the first block", func(t *testing.T) {
		p, err := e.Extract(&core.ScrapePayload{URL: "u", Markdown: "Short intro\nline\n\nAlso short"})
		require.NoError(t, err)

		assert.Equal(t, "Short intro line", p.Summary)
		assert.Equal(t, "u", p.Name, "no heading present")
	})

	t.Run("paragraph length counts characters not bytes", func(t *testing.T) {
		md := "量子计算与机器学习的交叉研究方向\n\nThis block is well over forty characters long for sure."
		p, err := e.Extract(&core.ScrapePayload{URL: "u", Markdown: md})
		require.NoError(t, err)

		assert.Equal(t, "This block is well over forty characters long for sure.", p.Summary)
	})

	t.Run("level four headings are ignored", func(t *testing.T) {
		p, err := e.Extract(&core.ScrapePayload{URL: "u", Markdown: "#### Deep\n\n### Shallow Name"})
		require.NoError(t, err)

		assert.Equal(t, "Shallow Name", p.Name)
	})
}

func TestExtract_Department(t *testing.T) {
	tests := []struct {
		markdown string
		expected string
	}{
		{"Professor, Department of Computer Science\nmore", "Computer Science"},
		{"dept. of  Chemistry  ", "Chemistry"},
		{"SCHOOL OF Medicine\r\nnext", "Medicine"},
		{"no affiliation here", ""},
	}

	e := newExtractor(t)
	for _, tt := range tests {
		t.Run(tt.markdown, func(t *testing.T) {
			p, err := e.Extract(&core.ScrapePayload{URL: "u", Markdown: tt.markdown})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Department)
		})
	}
}

func TestExtract_InvalidPayload(t *testing.T) {
	e := newExtractor(t)

	_, err := e.Extract(&core.ScrapePayload{URL: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	_, err = e.Extract(nil)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

func TestExtract_KeywordsAreUnique(t *testing.T) {
	e := newExtractor(t)

	p, err := e.Extract(&core.ScrapePayload{
		URL:      "u",
		Markdown: "Genomics GENOMICS genomics proteomics",
		Metadata: map[string]any{"keywords": "Genomics"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"genomics", "proteomics"}, p.Keywords)
}

func TestNewExtractor_InvalidLimit(t *testing.T) {
	_, err := NewExtractor(WithKeywordLimit(-1))
	assert.Error(t, err)
}

func TestNewExtractor_NilLoggerFallsBack(t *testing.T) {
	e := newExtractor(t, WithLogger(nil))
	assert.NotNil(t, e.logger)
	assert.Equal(t, DefaultKeywordLimit, e.keywordLimit)
}
