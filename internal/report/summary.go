package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
	"github.com/rodaine/table"
)

// SummaryWriter outputs a human-readable summary for terminal display:
// crawl totals, a severity breakdown and an issues-by-type table.
type SummaryWriter struct {
	baseWriter

	// showIssues appends the full issue list to the summary.
	showIssues bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithIssueList configures the writer to also list every issue.
func WithIssueList(show bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.showIssues = show
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary of report.
func (w *SummaryWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSeverities(&sb, report)
	if report.HasIssues() {
		w.writeTypes(&sb, report)
	}
	if w.showIssues && report.HasIssues() {
		w.writeIssues(&sb, report)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the crawl totals.
func (w *SummaryWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       SITE AUDIT SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:       %s\n", report.StartURL)
	fmt.Fprintf(sb, "Pages Crawled:   %d\n", report.PagesCrawled)
	fmt.Fprintf(sb, "Discovered URLs: %d\n", report.DiscoveredURLs)
	fmt.Fprintf(sb, "Duration:        %s\n", formatDuration(report.Duration))
	fmt.Fprintf(sb, "Status:          %s\n", statusText(report))
	fmt.Fprintf(sb, "Total Issues:    %d\n\n", report.TotalIssues)
}

// writeSeverities writes the per-severity counts.
func (w *SummaryWriter) writeSeverities(sb *strings.Builder, report *model.Report) {
	counts := report.SeverityCounts()
	for _, sev := range model.Severities {
		fmt.Fprintf(sb, "  %-7s %d\n", strings.ToUpper(sev.String())+":", counts[sev])
	}
	sb.WriteString("\n")
}

// writeTypes writes the issues-by-type table.
func (w *SummaryWriter) writeTypes(sb *strings.Builder, report *model.Report) {
	sb.WriteString("Issues by type:\n")
	tbl := table.New("Type", "Count").WithWriter(sb)
	for _, tc := range report.TypeCounts() {
		tbl.AddRow(tc.Type, tc.Count)
	}
	tbl.Print()
	sb.WriteString("\n")
}

// writeIssues writes every issue.
func (w *SummaryWriter) writeIssues(sb *strings.Builder, report *model.Report) {
	sb.WriteString("Issues:\n")
	tbl := table.New("Severity", "Page", "Type", "Link", "Details").WithWriter(sb)
	for _, issue := range report.Issues {
		tbl.AddRow(
			severityLabel(issue.Severity),
			issue.Page,
			issue.Type,
			orDash(issue.Link),
			truncateString(orDash(issue.Details), 60),
		)
	}
	tbl.Print()
	sb.WriteString("\n")
}
