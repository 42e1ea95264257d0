package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/profilematch/ai/mock"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/scoring"
	"github.com/poiesic/profilematch/storage"
	"github.com/poiesic/profilematch/storage/badger"
)

func newTestRepository(t *testing.T) storage.ProfileRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryProfileRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func newTestSearcher(t *testing.T, repo storage.ProfileRepository, opts ...Option) *Searcher {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	engine, err := scoring.NewEngine(embedder)
	require.NoError(t, err)
	s, err := NewSearcher(repo, embedder, engine, opts...)
	require.NoError(t, err)
	return s
}

func storeProfile(t *testing.T, repo storage.ProfileRepository, name, summary string) {
	t.Helper()
	p := &core.Profile{
		ProfileID:  "https://u.edu/" + name,
		Name:       name,
		ProfileURL: "https://u.edu/" + name,
		Summary:    summary,
		Keywords:   []string{"research"},
	}
	_, _, err := repo.InsertProfile(context.Background(), p, mock.Vector(summary, mock.DefaultDimensions))
	require.NoError(t, err)
}

// recordingMonitor captures the stages a search passes through.
type recordingMonitor struct {
	noopMonitor
	started  string
	hits     int
	skipped  []string
	verbatim []string
	refresh  *core.ScrapeSummary
	finished bool
}

func (m *recordingMonitor) Start(q string)                             { m.started = q }
func (m *recordingMonitor) AfterSemanticSearch(h []*storage.SearchHit) { m.hits = len(h) }
func (m *recordingMonitor) SkippedRecord(id string, _ error)           { m.skipped = append(m.skipped, id) }
func (m *recordingMonitor) VerbatimHit(p *core.Profile)                { m.verbatim = append(m.verbatim, p.Name) }
func (m *recordingMonitor) AfterScrapeRefresh(s *core.ScrapeSummary)   { m.refresh = s }
func (m *recordingMonitor) Finish(_ []*core.ScoreResult)               { m.finished = true }

type refresherFunc func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error)

func (f refresherFunc) Run(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
	return f(ctx, urls, init)
}

// malformedRepository returns a hit whose profile fails validation.
type malformedRepository struct {
	storage.ProfileRepository
}

func (r *malformedRepository) SearchSimilar(ctx context.Context, v []float32, limit int) ([]*storage.SearchHit, error) {
	hits, err := r.ProfileRepository.SearchSimilar(ctx, v, limit)
	if err != nil {
		return nil, err
	}
	bad := &storage.SearchHit{ID: "bad", Profile: &core.Profile{Name: "No Id"}}
	return append(hits, bad, nil), nil
}

func TestNewSearcher(t *testing.T) {
	repo := newTestRepository(t)
	embedder := mock.NewMockEmbedder()
	engine, err := scoring.NewEngine(embedder)
	require.NoError(t, err)

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(repo, embedder, engine)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSearcher(repo, embedder, engine, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, s.logger)
	})

	t.Run("with custom logger", func(t *testing.T) {
		_, err := NewSearcher(repo, embedder, engine, WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder, engine)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(repo, nil, engine)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil scorer", func(t *testing.T) {
		_, err := NewSearcher(repo, embedder, nil)
		assert.Equal(t, ErrScorerRequired, err)
	})
}

func TestSearch_EmptyStore(t *testing.T) {
	s := newTestSearcher(t, newTestRepository(t))

	results, err := s.Search(context.Background(), "quantum materials", Options{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_RanksByVectorSimilarity(t *testing.T) {
	repo := newTestRepository(t)
	storeProfile(t, repo, "ada", "quantum materials")
	storeProfile(t, repo, "grace", "compiler design")
	storeProfile(t, repo, "alan", "computability theory")
	s := newTestSearcher(t, repo)

	monitor := &recordingMonitor{}
	results, err := s.SearchWithMonitor(context.Background(), "quantum materials", Options{Limit: 2}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ada", results[0].Profile.Name)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Scores.FinalScore, 0.0)
		assert.LessOrEqual(t, r.Scores.FinalScore, 1.0)
	}

	assert.Equal(t, "quantum materials", monitor.started)
	assert.Equal(t, 2, monitor.hits)
	assert.Equal(t, []string{"ada"}, monitor.verbatim)
	assert.True(t, monitor.finished)
}

func TestSearch_SkipsMalformedRecords(t *testing.T) {
	inner := newTestRepository(t)
	storeProfile(t, inner, "ada", "quantum materials")
	s := newTestSearcher(t, &malformedRepository{ProfileRepository: inner})

	monitor := &recordingMonitor{}
	results, err := s.SearchWithMonitor(context.Background(), "quantum", Options{}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ada", results[0].Profile.Name)
	assert.Equal(t, []string{"bad"}, monitor.skipped)
}

func TestSearch_Validation(t *testing.T) {
	s := newTestSearcher(t, newTestRepository(t))

	_, err := s.Search(context.Background(), "  ", Options{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Search(context.Background(), "q", Options{Limit: MaxLimit + 1})
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = s.Search(context.Background(), "q", Options{URLs: []string{"https://u.edu/x"}})
	assert.ErrorIs(t, err, ErrRefresherRequired)
}

func TestSearch_RefreshesURLsFirst(t *testing.T) {
	repo := newTestRepository(t)
	var gotURLs []string
	var gotInit bool
	refresher := refresherFunc(func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
		gotURLs, gotInit = urls, init
		storeProfile(t, repo, "ada", "quantum materials")
		return &core.ScrapeSummary{Results: []*core.ScrapeResult{{URL: urls[0], Success: true, ID: "1"}}}, nil
	})
	s := newTestSearcher(t, repo, WithRefresher(refresher))

	monitor := &recordingMonitor{}
	results, err := s.SearchWithMonitor(context.Background(), "quantum materials",
		Options{URLs: []string{"https://u.edu/ada"}, InitializeSchema: true}, monitor)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://u.edu/ada"}, gotURLs)
	assert.True(t, gotInit)
	require.NotNil(t, monitor.refresh)
	assert.Equal(t, 1, monitor.refresh.SuccessCount())
	require.Len(t, results, 1)
}

func TestSearch_RefreshFailure(t *testing.T) {
	refresher := refresherFunc(func(ctx context.Context, urls []string, init bool) (*core.ScrapeSummary, error) {
		return nil, errors.New("schema broken")
	})
	s := newTestSearcher(t, newTestRepository(t), WithRefresher(refresher))

	_, err := s.Search(context.Background(), "q", Options{URLs: []string{"https://u.edu/x"}})
	assert.ErrorIs(t, err, ErrScrapeFailed)
}
