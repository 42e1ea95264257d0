// Package text extracts and deduplicates keyword tokens.
//
// Tokens are lower-cased runs of ASCII letters, digits, underscores and
// hyphens. Keyword lists built here never contain case-insensitive
// duplicates and always preserve first-seen order.
package text
