// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SummaryWriter: Human-readable console summary
//   - JSONWriter: The full report as JSON
//   - GraphWriter: The site link graph as JSON
//   - CSVWriter: One row per issue for spreadsheets
//   - HTMLWriter: A standalone HTML page
//   - MarkdownWriter: A Markdown document with a severity chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. SaveArtifacts
// writes the file formats of a finished audit into an output directory.
package report
