package reembed

import "errors"

var (
	// ErrRepositoryRequired is returned when a profile repository is not provided.
	ErrRepositoryRequired = errors.New("profile repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
