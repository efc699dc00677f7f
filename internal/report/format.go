package report

import (
	"time"

	"github.com/nao1215/siteaudit/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// severityLabel returns the title-cased severity name, e.g. "High".
// A Caser keeps state, so one is created per call.
func severityLabel(sev model.Severity) string {
	return cases.Title(language.English).String(sev.String())
}

// statusText describes whether the crawl ran to completion.
func statusText(report *model.Report) string {
	if report.Interrupted {
		return "Interrupted (partial results)"
	}
	return "Complete"
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
