// Package ingestion turns researcher page URLs into stored profiles.
//
// The Orchestrator runs each batch through four stages:
//   - scraping every URL (failures are recorded, never fatal)
//   - extracting a structured profile from each page
//   - embedding all summaries in a single call
//   - inserting each profile, deduplicated by URL
//
// Per-item failures become failed results in the returned summary. Only
// schema initialization and the embedding call can fail a whole run.
package ingestion
