package search

import "github.com/halcyondata/enrich/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterSemanticSearch(matches []*core.ScoredChunk)
	VerbatimHit(chunk *core.Chunk)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.ScoredChunk) {}
func (n *noopMonitor) VerbatimHit(_ *core.Chunk)                 {}
func (n *noopMonitor) Finish(_ []*Result)                        {}
