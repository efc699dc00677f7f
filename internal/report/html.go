package report

import (
	"bytes"
	"html/template"
	"io"

	"github.com/nao1215/siteaudit/internal/model"
)

// htmlTemplate renders a standalone page. html/template escapes every
// value, so page URLs and details are safe to embed.
var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"severity":  severityLabel,
	"status":    statusText,
	"duration":  formatDuration,
	"orDash":    orDash,
	"recommend": model.Recommendation,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Site Audit Report - {{.Report.StartURL}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
.high { color: #b00020; font-weight: bold; }
.medium { color: #c77700; }
.low { color: #1565c0; }
</style>
</head>
<body>
<h1>Site Audit Report</h1>
<table>
<tr><th>Start URL</th><td><a href="{{.Report.StartURL}}">{{.Report.StartURL}}</a></td></tr>
<tr><th>Audit Date</th><td>{{.Report.Timestamp.Format "2006-01-02 15:04:05 MST"}}</td></tr>
<tr><th>Duration</th><td>{{duration .Report.Duration}}</td></tr>
<tr><th>Pages Crawled</th><td>{{.Report.PagesCrawled}}</td></tr>
<tr><th>Discovered URLs</th><td>{{.Report.DiscoveredURLs}}</td></tr>
<tr><th>Status</th><td>{{status .Report}}</td></tr>
<tr><th>Total Issues</th><td>{{.Report.TotalIssues}}</td></tr>
</table>
<h2>Severity Summary</h2>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{- range .Severities}}
<tr><td class="{{.Name}}">{{.Label}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
{{- if .Report.Issues}}
<h2>Issues by Type</h2>
<table>
<tr><th>Type</th><th>Count</th><th>Recommendation</th></tr>
{{- range .Types}}
<tr><td>{{.Type}}</td><td>{{.Count}}</td><td>{{recommend .Type}}</td></tr>
{{- end}}
</table>
<h2>Issues</h2>
<table>
<tr><th>Severity</th><th>Page</th><th>Link</th><th>Type</th><th>Details</th></tr>
{{- range .Report.Issues}}
<tr><td class="{{.Severity}}">{{severity .Severity}}</td><td><a href="{{.Page}}">{{.Page}}</a></td><td>{{orDash .Link}}</td><td>{{.Type}}</td><td>{{orDash .Details}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No issues detected.</p>
{{- end}}
</body>
</html>
`))

type htmlSeverity struct {
	Name  string
	Label string
	Count int
}

type htmlData struct {
	Report     *model.Report
	Severities []htmlSeverity
	Types      []model.TypeCount
}

// HTMLWriter outputs the report as a standalone HTML page.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as HTML.
func (w *HTMLWriter) Write(report *model.Report) (int, error) {
	counts := report.SeverityCounts()
	data := htmlData{Report: report, Types: report.TypeCounts()}
	for _, sev := range model.Severities {
		data.Severities = append(data.Severities, htmlSeverity{
			Name:  sev.String(),
			Label: severityLabel(sev),
			Count: counts[sev],
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
