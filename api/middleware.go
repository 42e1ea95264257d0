package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/panjf2000/ants/v2"
)

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestID", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr)
		}()
		next.ServeHTTP(ww, r)
	})
}

// limit runs the handler on the worker pool so at most the pool size of
// requests execute concurrently.
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := make(chan struct{})
		err := s.pool.Submit(func() {
			defer close(done)
			// Workers run outside the router goroutine, so Recoverer cannot see panics here.
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Error("panic in handler", "panic", rec, "path", r.URL.Path)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
		if err != nil {
			if errors.Is(err, ants.ErrPoolOverload) {
				writeError(w, http.StatusServiceUnavailable, "server busy, retry later")
				return
			}
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		<-done
	})
}
