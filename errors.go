package profilematch

import "errors"

var (
	// ErrScrapingUnavailable is returned by scrape operations when no scraper
	// could be configured, typically because FIRECRAWL_API is unset.
	ErrScrapingUnavailable = errors.New("scraping unavailable")

	// ErrConfigRequired is returned when NewService is called without a config.
	ErrConfigRequired = errors.New("config required")
)
