package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/siteaudit/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	graph := model.NewGraph()
	graph.AddLinks("https://example.com/", "https://example.com/about", "https://other.example.org/")
	graph.AddPage("https://example.com/about")

	issues := []model.Issue{
		{Page: "https://example.com/", Type: model.TypeMissingTitle, Severity: model.SeverityHigh},
		{
			Page:     "https://example.com/",
			Link:     "https://example.com/gone",
			Type:     model.BrokenLinkType(404),
			Severity: model.SeverityHigh,
		},
		{
			Page:     "https://example.com/about",
			Type:     model.TypePlaceholderText,
			Details:  `Found: "Lorem ipsum", <script>`,
			Severity: model.SeverityMedium,
		},
	}
	report := model.NewReport("https://example.com", 2, issues, graph, time.Now().Add(-3*time.Second))
	report.DiscoveredURLs = 3
	return report
}

// TestSummaryWriter tests the console summary writer.
func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes totals and type table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, expected := range []string{
			"SITE AUDIT SUMMARY",
			"Pages Crawled:   2",
			"Total Issues:    3",
			"HIGH:   2",
			"Issues by type:",
			model.TypeMissingTitle,
		} {
			if !strings.Contains(output, expected) {
				t.Errorf("expected output to contain %q\n%s", expected, output)
			}
		}
		if strings.Contains(output, "Issues:\n") {
			t.Error("issue list should be hidden by default")
		}
	})

	t.Run("issue list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf, WithIssueList(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "https://example.com/gone") {
			t.Error("expected issue list to contain the broken link")
		}
	})

	t.Run("interrupted report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.Interrupted = true
		if _, err := NewSummaryWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Interrupted") {
			t.Error("expected output to indicate interruption")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.Report
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.StartURL != "https://example.com" || parsed.TotalIssues != 3 {
			t.Errorf("unexpected report %+v", parsed)
		}
		if parsed.Issues[2].Severity != model.SeverityMedium {
			t.Errorf("expected severity to round trip, got %v", parsed.Issues[2].Severity)
		}
		if !strings.Contains(buf.String(), `"severity":"high"`) {
			t.Error("severity must be written as text")
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("query strings are not HTML escaped", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Issues[0].Link = "https://example.com/search?q=a&page=2"

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "q=a&page=2") {
			t.Errorf("expected raw ampersand in output: %s", buf.String())
		}
	})
}

// TestGraphWriter tests the graph writer.
func TestGraphWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewGraphWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string][]string
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not a JSON object of arrays: %v", err)
	}
	if len(parsed["https://example.com/"]) != 2 {
		t.Errorf("unexpected links %v", parsed["https://example.com/"])
	}
	if links, ok := parsed["https://example.com/about"]; !ok || len(links) != 0 {
		t.Errorf("expected an empty entry for /about, got %v", links)
	}
}

// TestCSVWriter tests the CSV issue export.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("columns and rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if strings.Join(records[0], ",") != "Page,Link,Type,Details,Severity" {
			t.Errorf("unexpected header %v", records[0])
		}
		if len(records) != 4 {
			t.Fatalf("expected 3 rows, got %d", len(records)-1)
		}
		if records[2][1] != "https://example.com/gone" || records[2][4] != "high" {
			t.Errorf("unexpected row %v", records[2])
		}
		if records[3][3] != `Found: "Lorem ipsum", <script>` {
			t.Errorf("details must survive quoting, got %q", records[3][3])
		}
	})

	t.Run("no issues writes header only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := model.NewReport("https://example.com", 1, nil, nil, time.Time{})
		if _, err := NewCSVWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "Page,Link,Type,Details,Severity" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// TestHTMLWriter tests the HTML report writer.
func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewHTMLWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "<h1>Site Audit Report</h1>") {
		t.Error("expected report heading")
	}
	if strings.Contains(output, "<script>") {
		t.Error("issue details must be escaped")
	}
	if !strings.Contains(output, `class="high"`) {
		t.Error("expected severity classes")
	}
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("with issues", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, expected := range []string{"# Site Audit Report", "Severity Summary", "mermaid", "High", "Issues by Type"} {
			if !strings.Contains(output, expected) {
				t.Errorf("expected output to contain %q", expected)
			}
		}
	})

	t.Run("without issues", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := model.NewReport("https://example.com", 1, nil, nil, time.Time{})
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("no chart expected without issues")
		}
		if !strings.Contains(buf.String(), "No issues detected.") {
			t.Error("expected an empty-state message")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		multi := NewMultiWriter(NewSummaryWriter(&buf1), NewJSONWriter(&buf2))

		n, err := multi.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf1.Len() == 0 || buf2.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != buf1.Len()+buf2.Len() {
			t.Errorf("expected %d bytes, got %d", buf1.Len()+buf2.Len(), n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		multi := NewMultiWriter(NewJSONWriter(failingWriter{}), NewJSONWriter(&buf))
		if _, err := multi.Write(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("writers after a failure must not run")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestParseFormats tests format name validation.
func TestParseFormats(t *testing.T) {
	t.Parallel()

	formats, err := ParseFormats([]string{"JSON", "md", "csv", "json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(formats) != 3 || formats[1] != FormatMarkdown {
		t.Errorf("unexpected formats %v", formats)
	}
	if _, err := ParseFormats([]string{"pdf"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

// TestFileName tests artifact naming.
func TestFileName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	tests := map[Format]string{
		FormatJSON:     "crawl-report-2025-01-02T03-04-05-678Z.json",
		FormatGraph:    "site-graph-2025-01-02T03-04-05-678Z.json",
		FormatCSV:      "issues-2025-01-02T03-04-05-678Z.csv",
		FormatHTML:     "report-2025-01-02T03-04-05-678Z.html",
		FormatMarkdown: "report-2025-01-02T03-04-05-678Z.md",
	}
	for format, expected := range tests {
		if got := FileName(format, ts); got != expected {
			t.Errorf("FileName(%s) = %s, expected %s", format, got, expected)
		}
	}
}

// TestSaveArtifacts tests writing every format to disk.
func TestSaveArtifacts(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	report := createTestReport()

	artifacts, err := SaveArtifacts(context.Background(), dir, report, AllFormats())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artifacts) != len(AllFormats()) {
		t.Fatalf("expected %d artifacts, got %d", len(AllFormats()), len(artifacts))
	}

	for i, a := range artifacts {
		if a.Format != AllFormats()[i] {
			t.Errorf("artifact %d has format %s", i, a.Format)
		}
		info, err := os.Stat(a.Path)
		if err != nil {
			t.Fatalf("artifact %s missing: %v", a.Path, err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
		}
		if int(info.Size()) != a.Bytes {
			t.Errorf("%s: recorded %d bytes, file has %d", a.Format, a.Bytes, info.Size())
		}
	}

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := SaveArtifacts(ctx, t.TempDir(), report, AllFormats()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
