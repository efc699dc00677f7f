package crawler

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/pipeline"
)

// Session holds the state accumulated by one crawl.
// It is owned by the Spider while crawling and must only be read once
// Crawl has returned.
type Session struct {
	// startTime is when the crawl started.
	startTime time.Time

	// visited contains every normalized URL that entered processing.
	visited mapset.Set[string]

	// discovered contains every distinct internal URL seen, for progress reporting.
	discovered mapset.Set[string]

	// navChecked contains nav link URLs of pages whose checks all ran.
	navChecked mapset.Set[string]

	// graph maps crawled pages to their outbound links.
	graph *model.Graph

	// issues are the recorded issues in detection order.
	issues []model.Issue

	// interrupted is set when the crawl stopped before the frontier was exhausted.
	interrupted bool
}

func newSession() *Session {
	return &Session{
		startTime:  time.Now(),
		visited:    mapset.NewThreadUnsafeSet[string](),
		discovered: mapset.NewThreadUnsafeSet[string](),
		navChecked: mapset.NewThreadUnsafeSet[string](),
		graph:      model.NewGraph(),
	}
}

// VisitedCount returns the number of pages crawled.
func (s *Session) VisitedCount() int {
	return s.visited.Cardinality()
}

// IsVisited reports whether the normalized URL was crawled.
func (s *Session) IsVisited(url string) bool {
	return s.visited.Contains(url)
}

// DiscoveredCount returns the number of distinct internal URLs seen.
func (s *Session) DiscoveredCount() int {
	return s.discovered.Cardinality()
}

// Issues returns a copy of the recorded issues.
func (s *Session) Issues() []model.Issue {
	out := make([]model.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Graph returns a copy of the link graph.
func (s *Session) Graph() *model.Graph {
	return s.graph.Clone()
}

// Interrupted reports whether the crawl was cancelled.
func (s *Session) Interrupted() bool {
	return s.interrupted
}

// Report builds the audit report from the session.
func (s *Session) Report(startURL string) *model.Report {
	r := model.NewReport(startURL, s.VisitedCount(), s.issues, s.graph, s.startTime)
	r.DiscoveredURLs = s.DiscoveredCount()
	r.Interrupted = s.interrupted
	return r
}

// begin marks url as in progress.
func (s *Session) begin(url string) {
	s.visited.Add(url)
	s.graph.AddPage(url)
}

// abandon forgets a page whose processing was interrupted.
func (s *Session) abandon(url string) {
	s.visited.Remove(url)
	s.graph.RemovePage(url)
}

func (s *Session) addIssues(issues ...model.Issue) {
	s.issues = append(s.issues, issues...)
}

func (s *Session) progress() int {
	discovered := s.discovered.Cardinality()
	if discovered == 0 {
		return 100
	}
	p := s.visited.Cardinality() * 100 / discovered
	if p > 100 {
		p = 100
	}
	return p
}

// markNavChecked registers the nav links of a page whose checks completed.
func (s *Session) markNavChecked(links []pipeline.Link) {
	for _, link := range links {
		if link.Nav {
			s.navChecked.Add(link.Href)
		}
	}
}
