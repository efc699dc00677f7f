package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/siteaudit/internal/model"
)

// JSONWriter writes the full audit report as one JSON document.
// HTML escaping is off so URLs with query strings stay readable.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, starting each line with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes report followed by a newline.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	return w.encode(report)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// GraphWriter writes only the link graph: an object mapping every crawled
// page to its outbound links.
type GraphWriter struct {
	json *JSONWriter
}

// NewGraphWriter creates a GraphWriter.
func NewGraphWriter(output io.Writer, opts ...JSONWriterOption) *GraphWriter {
	return &GraphWriter{json: NewJSONWriter(output, opts...)}
}

// Write encodes the graph of report. A report without graph yields "{}".
func (w *GraphWriter) Write(report *model.Report) (int, error) {
	if report.Graph == nil {
		return w.json.encode(model.NewGraph())
	}
	return w.json.encode(report.Graph)
}
