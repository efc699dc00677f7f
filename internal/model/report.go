package model

import (
	"sort"
	"time"
)

// Report is the consolidated result of one audit run.
// It has the same shape whether the crawl finished or was interrupted, so
// every serializer and the history store can treat both cases alike.
type Report struct {
	// === Run Information ===

	// StartURL is the configured start URL of the audit.
	StartURL string `json:"startUrl"`

	// Timestamp is when the report was built.
	Timestamp time.Time `json:"timestamp"`

	// Duration is the wall-clock time between crawl start and report build.
	Duration time.Duration `json:"duration"`

	// Interrupted is true when the crawl was stopped before its frontier was exhausted.
	Interrupted bool `json:"interrupted"`

	// === Counters ===

	// PagesCrawled is the number of URLs that entered the visited set.
	PagesCrawled int `json:"pagesCrawled"`

	// DiscoveredURLs is the number of distinct internal URLs seen during the crawl.
	DiscoveredURLs int `json:"discoveredUrls"`

	// TotalIssues equals len(Issues).
	TotalIssues int `json:"totalIssues"`

	// IssuesByType counts issues per Type label.
	IssuesByType map[string]int `json:"issuesByType"`

	// === Findings ===

	// Issues lists every issue in detection order.
	Issues []Issue `json:"issues"`

	// Graph is the link graph of crawled pages.
	Graph *Graph `json:"graph"`
}

// NewReport builds a Report from the state accumulated by a crawl.
// The issue slice and graph are copied, so the caller may keep mutating its own.
func NewReport(startURL string, visitedCount int, issues []Issue, graph *Graph, startTime time.Time) *Report {
	now := time.Now()
	copied := make([]Issue, len(issues))
	copy(copied, issues)

	if graph == nil {
		graph = NewGraph()
	}

	r := &Report{
		StartURL:     startURL,
		Timestamp:    now,
		PagesCrawled: visitedCount,
		TotalIssues:  len(copied),
		IssuesByType: make(map[string]int),
		Issues:       copied,
		Graph:        graph.Clone(),
	}
	if !startTime.IsZero() {
		r.Duration = now.Sub(startTime)
	}
	for _, issue := range copied {
		r.IssuesByType[issue.Type]++
	}
	return r
}

// SeverityCounts returns the number of issues per severity.
func (r *Report) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// IssuesBySeverity returns the issues with the given severity.
func (r *Report) IssuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// TypeCount is one row of the issues-by-type summary.
type TypeCount struct {
	Type  string
	Count int
}

// TypeCounts returns IssuesByType sorted by descending count, then by type.
func (r *Report) TypeCounts() []TypeCount {
	out := make([]TypeCount, 0, len(r.IssuesByType))
	for t, c := range r.IssuesByType {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// HasIssues returns true if the report contains any issue.
func (r *Report) HasIssues() bool {
	return len(r.Issues) > 0
}
