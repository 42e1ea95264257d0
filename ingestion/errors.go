package ingestion

import "errors"

var (
	// ErrScraperRequired is returned when a scraper is not provided.
	ErrScraperRequired = errors.New("scraper required")

	// ErrExtractorRequired is returned when a profile extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRepositoryRequired is returned when a profile repository is not provided.
	ErrRepositoryRequired = errors.New("profile repository required")

	// ErrSchemaInitialization is returned when the store could not be prepared.
	ErrSchemaInitialization = errors.New("schema initialization failed")

	// ErrEmbedding is returned when the profile summaries could not be embedded.
	ErrEmbedding = errors.New("embedding failed")
)
