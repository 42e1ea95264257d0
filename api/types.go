package api

import "github.com/poiesic/profilematch/core"

type embedRequest struct {
	Texts     []string `json:"texts"`
	Normalize *bool    `json:"normalize,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
}

type scoreRequest struct {
	UserQuery      string          `json:"user_query"`
	Profiles       []*core.Profile `json:"profiles"`
	RerankStrategy string          `json:"rerank_strategy"`
}

type scoreResponse struct {
	Results []*core.ScoreResult `json:"results"`
}

type scrapeRequest struct {
	URLs             []string `json:"urls"`
	InitializeSchema bool     `json:"initialize_schema"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
