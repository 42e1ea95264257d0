package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/ingestion"
	"github.com/poiesic/profilematch/scoring"
	"github.com/poiesic/profilematch/search"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Texts == nil {
		writeError(w, http.StatusBadRequest, "texts is required")
		return
	}
	normalize := req.Normalize == nil || *req.Normalize

	vectors, model, err := s.backend.Embed(r.Context(), req.Texts, normalize)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, embedResponse{Embeddings: vectors, Model: model})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserQuery) == "" {
		writeError(w, http.StatusBadRequest, "user_query is required")
		return
	}
	if req.Profiles == nil {
		writeError(w, http.StatusBadRequest, "profiles is required")
		return
	}
	strategy, err := core.ParseRerankStrategy(req.RerankStrategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, p := range req.Profiles {
		if err := core.ValidateProfile(p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	results, err := s.backend.Score(r.Context(), req.UserQuery, req.Profiles, strategy)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Results: nonNil(results)})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one URL is required.")
		return
	}

	summary, err := s.backend.Scrape(r.Context(), req.URLs, req.InitializeSchema)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := search.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > search.MaxLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	initSchema := false
	if raw := q.Get("initialize_schema"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "initialize_schema must be a boolean")
			return
		}
		initSchema = b
	}

	var urls []string
	for _, u := range q["urls"] {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	results, err := s.backend.Search(r.Context(), query, search.Options{
		Limit:            limit,
		URLs:             urls,
		InitializeSchema: initSchema,
	})
	if err != nil {
		if errors.Is(err, search.ErrScrapeFailed) {
			s.logger.Error("scraping pipeline failure", "err", err)
			writeError(w, http.StatusBadGateway, "Failed to scrape one or more URLs. Check logs for details.")
			return
		}
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Results: nonNil(results)})
}

// writeServiceError maps backend errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case s.isConfigError(err):
		s.logger.Warn("configuration error", "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, core.ErrInvalidProfile),
		errors.Is(err, core.ErrInvalidRerankStrategy),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scoring.ErrEmbedding), errors.Is(err, ingestion.ErrEmbedding):
		s.logger.Error("embedding service failure", "err", err)
		writeError(w, http.StatusBadGateway, "embedding service failure")
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSON encodes v before sending headers so an unencodable value becomes
// a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "component", "api", "status", status, "err", err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Detail: "internal server error"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func nonNil(results []*core.ScoreResult) []*core.ScoreResult {
	if results == nil {
		return []*core.ScoreResult{}
	}
	return results
}
