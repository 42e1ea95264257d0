package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/search"
)

// Backend is the set of operations served over HTTP.
type Backend interface {
	Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, string, error)
	Score(ctx context.Context, query string, profiles []*core.Profile, strategy core.RerankStrategy) ([]*core.ScoreResult, error)
	Scrape(ctx context.Context, urls []string, initializeSchema bool) (*core.ScrapeSummary, error)
	Search(ctx context.Context, query string, opts search.Options) ([]*core.ScoreResult, error)
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend        Backend
	pool           *ants.Pool
	requestTimeout time.Duration
	isConfigError  func(error) bool
	logger         *slog.Logger
	router         chi.Router
}

// Option configures a Server.
type Option func(*Server) error

// WithMaxConcurrency bounds the number of requests handled at once.
// Requests beyond the bound wait; when the wait queue is also full the
// server answers 503.
func WithMaxConcurrency(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("max concurrency must be at least 1, got %d", n)
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(n, ants.WithMaxBlockingTasks(n*4))
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithRequestTimeout bounds each request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) error {
		s.requestTimeout = d
		return nil
	}
}

// WithConfigErrorClassifier marks errors that should map to 503.
func WithConfigErrorClassifier(fn func(error) bool) Option {
	return func(s *Server) error {
		if fn != nil {
			s.isConfigError = fn
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "api")
		return nil
	}
}

// NewServer creates a server for backend. Call Release when done.
func NewServer(backend Backend, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	s := &Server{
		backend:       backend,
		isConfigError: func(error) bool { return false },
		logger:        slog.Default().With("component", "api"),
	}
	for _, opt := range append([]Option{WithMaxConcurrency(16)}, opts...) {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limit)
		if s.requestTimeout > 0 {
			r.Use(middleware.Timeout(s.requestTimeout))
		}
		r.Post("/embed", s.handleEmbed)
		r.Post("/score", s.handleScore)
		r.Post("/scrape/professors", s.handleScrape)
		r.Get("/profiles/search", s.handleSearch)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Release frees the worker pool.
func (s *Server) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
