package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/siteaudit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, for example as a
// pull request comment or a CI job summary.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeIssueTypes(md, report)
	w.writeIssues(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Site Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Audit Date", report.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Duration", formatDuration(report.Duration)},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := report.SeverityCounts()
	rows := make([][]string, 0, len(model.Severities)+1)
	for _, sev := range model.Severities {
		rows = append(rows, []string{severityIcon(sev) + " " + severityLabel(sev), strconv.Itoa(counts[sev])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.TotalIssues) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.HasIssues() {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, report, counts)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Severity]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)
	for _, sev := range model.Severities {
		if counts[sev] > 0 {
			chart.LabelAndIntValue(severityLabel(sev), uint64(counts[sev])) //nolint:gosec // counts are non-negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report, counts map[model.Severity]int) {
	if report.Interrupted {
		md.Warning("The crawl was interrupted. Results cover only the pages crawled before the interruption.")
		md.PlainText("")
	}

	switch {
	case counts[model.SeverityHigh] > 0:
		md.Cautionf("%d high severity issue(s) break pages or navigation and should be fixed first.",
			counts[model.SeverityHigh])
	case counts[model.SeverityMedium] > 0:
		md.Importantf("%d medium severity issue(s) degrade the site for users or search engines.",
			counts[model.SeverityMedium])
	case report.HasIssues():
		md.Note("Only low severity issues detected.")
	default:
		md.Tip("No issues detected.")
	}
	md.PlainText("")
}

// writeIssueTypes writes the issues-by-type table.
func (w *MarkdownWriter) writeIssueTypes(md *markdown.Markdown, report *model.Report) {
	if !report.HasIssues() {
		return
	}

	md.H2("Issues by Type")
	md.PlainText("")

	typeCounts := report.TypeCounts()
	rows := make([][]string, 0, len(typeCounts))
	for _, tc := range typeCounts {
		rows = append(rows, []string{tc.Type, strconv.Itoa(tc.Count), model.Recommendation(tc.Type)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeIssues writes all issues grouped by severity.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.Report) {
	md.H2("Issues")
	md.PlainText("")

	if !report.HasIssues() {
		md.PlainText("No issues detected.")
		md.PlainText("")
		return
	}

	for _, sev := range model.Severities {
		issues := report.IssuesBySeverity(sev)
		if len(issues) == 0 {
			continue
		}

		md.H3(severityIcon(sev) + " " + severityLabel(sev))
		md.PlainText("")
		w.writeIssuesTable(md, issues)
	}
}

// writeIssuesTable writes a table of issues.
func (w *MarkdownWriter) writeIssuesTable(md *markdown.Markdown, issues []model.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			truncateString(issue.Page, 60),
			truncateString(orDash(issue.Link), 60),
			issue.Type,
			truncateString(orDash(issue.Details), 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Link", "Type", "Details"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [siteaudit](https://github.com/nao1215/siteaudit)*")
}

// severityIcon returns a colored marker for the severity level.
func severityIcon(sev model.Severity) string {
	switch sev {
	case model.SeverityHigh:
		return "🔴"
	case model.SeverityMedium:
		return "🟠"
	default:
		return "🔵"
	}
}
