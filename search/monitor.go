package search

import (
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/storage"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterScrapeRefresh(summary *core.ScrapeSummary)
	AfterSemanticSearch(hits []*storage.SearchHit)
	SkippedRecord(id string, err error)
	VerbatimHit(profile *core.Profile)
	Finish(results []*core.ScoreResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterScrapeRefresh(_ *core.ScrapeSummary)   {}
func (n *noopMonitor) AfterSemanticSearch(_ []*storage.SearchHit) {}
func (n *noopMonitor) SkippedRecord(_ string, _ error)            {}
func (n *noopMonitor) VerbatimHit(_ *core.Profile)                {}
func (n *noopMonitor) Finish(_ []*core.ScoreResult)               {}
