package report

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/nao1215/siteaudit/internal/model"
)

// csvRow is one issue in the CSV export.
type csvRow struct {
	Page     string         `csv:"Page"`
	Link     string         `csv:"Link"`
	Type     string         `csv:"Type"`
	Details  string         `csv:"Details"`
	Severity model.Severity `csv:"Severity"`
}

// CSVWriter outputs one row per issue with the columns
// Page, Link, Type, Details and Severity.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the issues of report in detection order.
func (w *CSVWriter) Write(report *model.Report) (int, error) {
	rows := make([]*csvRow, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rows = append(rows, &csvRow{
			Page:     issue.Page,
			Link:     issue.Link,
			Type:     issue.Type,
			Details:  issue.Details,
			Severity: issue.Severity,
		})
	}

	if len(rows) == 0 {
		return io.WriteString(w.output, "Page,Link,Type,Details,Severity\n")
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}
