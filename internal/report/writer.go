package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/siteaudit/internal/model"
)

// Writer defines the interface for report output.
// Implementations write audit results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Format names an output file format.
type Format string

// Supported file formats.
const (
	FormatJSON     Format = "json"
	FormatGraph    Format = "graph"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// AllFormats returns every file format in output order.
func AllFormats() []Format {
	return []Format{FormatJSON, FormatGraph, FormatCSV, FormatHTML, FormatMarkdown}
}

// ParseFormats validates format names and drops repeats.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case "md":
			f = FormatMarkdown
		case FormatJSON, FormatGraph, FormatCSV, FormatHTML, FormatMarkdown:
		default:
			return nil, fmt.Errorf("unknown report format %q", name)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FileName returns the artifact file name of format for a report built at ts.
func FileName(format Format, ts time.Time) string {
	stamp := FileTimestamp(ts)
	switch format {
	case FormatJSON:
		return "crawl-report-" + stamp + ".json"
	case FormatGraph:
		return "site-graph-" + stamp + ".json"
	case FormatCSV:
		return "issues-" + stamp + ".csv"
	case FormatHTML:
		return "report-" + stamp + ".html"
	case FormatMarkdown:
		return "report-" + stamp + ".md"
	default:
		return "report-" + stamp + "." + string(format)
	}
}

// FileTimestamp formats ts as an ISO-8601 UTC timestamp safe for file
// names, e.g. 2025-01-02T03-04-05-678Z.
func FileTimestamp(ts time.Time) string {
	s := ts.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// NewFileWriter returns the Writer for a file format.
func NewFileWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatGraph:
		return NewGraphWriter(output, WithPrettyPrint()), nil
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatHTML:
		return NewHTMLWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// orDash returns "-" for empty strings.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
