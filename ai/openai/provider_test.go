package openai

import (
	"context"
	"testing"

	"github.com/poiesic/profilematch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func TestNewProvider(t *testing.T) {
	t.Run("missing summary credential disables summaries", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig())
		require.NoError(t, err)
		defer p.Close()

		_, err = p.Summarizer().Summarize(context.Background(), &ai.SummaryRequest{})
		assert.ErrorIs(t, err, ai.ErrMissingCredential)
		assert.Equal(t, "all-minilm", p.Embedder().Model())
		assert.IsType(t, &ai.CachingEmbedder{}, p.Embedder())
	})

	t.Run("no cache when size is zero", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig(ai.WithEmbeddingCacheSize(0), ai.WithSummaryBackend(ai.SummaryBackendNone)))
		require.NoError(t, err)

		assert.IsType(t, &Embedder{}, p.Embedder())
	})

	t.Run("openai summary backend", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig(
			ai.WithSummaryBackend(ai.SummaryBackendOpenAI),
			ai.WithSummaryHost("http://localhost:11434"),
			ai.WithSummaryModel("qwen2.5:3b"),
		))
		require.NoError(t, err)
		assert.NotNil(t, p.Summarizer())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
		assert.Error(t, err)
	})
}

func TestEmbedder(t *testing.T) {
	var seen []string
	client := embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts...)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text))}
		}
		return out, nil
	})
	inner, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	require.NoError(t, err)

	e := newEmbedderFrom(inner, "all-minilm")
	assert.Equal(t, "all-minilm", e.Model())

	v, err := e.EmbedText(context.Background(), "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, []float32{17}, v)
	assert.Equal(t, []string{"line one line two"}, seen)

	vs, err := e.EmbedTexts(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vs)
}
