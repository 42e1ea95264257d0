package scrape

import "errors"

var (
	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("FIRECRAWL_API key is missing")

	// ErrEmptyURL is returned when Scrape is called with a blank URL.
	ErrEmptyURL = errors.New("url is required")

	// ErrUpstream wraps non-success responses from the scraping service.
	ErrUpstream = errors.New("scrape service error")
)
