package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nao1215/siteaudit/internal/model"
)

const (
	// defaultTitle is the title some browsers and generators use for
	// documents without one.
	defaultTitle = "Untitled"

	// MaxMetaDescriptionLength is the description length search engines display.
	MaxMetaDescriptionLength = 160

	// DefaultSlowPageThreshold is the load time above which a page is slow.
	DefaultSlowPageThreshold = 5 * time.Second
)

// TitleCheck flags missing, empty and default titles.
type TitleCheck struct{}

// Name implements Check.
func (TitleCheck) Name() string { return "title" }

// Inspect implements Check.
func (TitleCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	title, err := page.Document.Title()
	if err != nil {
		return nil, fmt.Errorf("failed to read title: %w", err)
	}
	title = strings.TrimSpace(title)
	if title == "" || title == defaultTitle {
		return []model.Issue{page.issue(model.TypeMissingTitle, model.SeverityMedium)}, nil
	}
	return nil, nil
}

// StatusCheck flags pages answering with an HTTP error status.
type StatusCheck struct{}

// Name implements Check.
func (StatusCheck) Name() string { return "http-status" }

// Inspect implements Check.
func (StatusCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	if page.Response == nil || page.Response.Status < 400 {
		return nil, nil
	}
	return []model.Issue{page.issue(model.HTTPErrorType(page.Response.Status), model.SeverityHigh)}, nil
}

// SEOCheck flags meta description and H1 problems.
type SEOCheck struct{}

// Name implements Check.
func (SEOCheck) Name() string { return "seo" }

// Inspect implements Check.
func (SEOCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	var issues []model.Issue

	metas, err := page.Document.QueryAll(SelectorMetaDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta description: %w", err)
	}
	description := ""
	if len(metas) > 0 {
		description = strings.TrimSpace(metas[0].Content)
	}
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		issues = append(issues, page.issue(model.TypeMissingMetaDescription, model.SeverityMedium))
	case n > MaxMetaDescriptionLength:
		issue := page.issue(model.TypeMetaDescriptionTooLong, model.SeverityLow)
		issue.Details = fmt.Sprintf("%d chars", n)
		issues = append(issues, issue)
	}

	h1s, err := page.Document.QueryAll(SelectorH1)
	if err != nil {
		return issues, fmt.Errorf("failed to read h1 elements: %w", err)
	}
	switch {
	case len(h1s) == 0:
		issues = append(issues, page.issue(model.TypeMissingH1, model.SeverityMedium))
	case len(h1s) > 1:
		issue := page.issue(model.TypeMultipleH1, model.SeverityLow)
		issue.Details = fmt.Sprintf("%d found", len(h1s))
		issues = append(issues, issue)
	}

	return issues, nil
}

// PerformanceCheck flags pages slower than a threshold.
type PerformanceCheck struct {
	threshold time.Duration
}

// NewPerformanceCheck creates a PerformanceCheck. A non-positive threshold
// uses DefaultSlowPageThreshold.
func NewPerformanceCheck(threshold time.Duration) *PerformanceCheck {
	if threshold <= 0 {
		threshold = DefaultSlowPageThreshold
	}
	return &PerformanceCheck{threshold: threshold}
}

// Name implements Check.
func (c *PerformanceCheck) Name() string { return "performance" }

// Inspect implements Check. An unknown (zero) load time is never flagged.
func (c *PerformanceCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	if page.Response == nil || page.Response.LoadTime <= c.threshold {
		return nil, nil
	}
	issue := page.issue(model.TypeSlowPageLoad, model.SeverityMedium)
	issue.Details = fmt.Sprintf("%.2fs", page.Response.LoadTime.Seconds())
	return []model.Issue{issue}, nil
}

// ImageCheck flags images without alternative text, one issue per image.
type ImageCheck struct{}

// Name implements Check.
func (ImageCheck) Name() string { return "images" }

// Inspect implements Check.
func (ImageCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	images, err := page.Document.QueryAll(SelectorImages)
	if err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}
	var issues []model.Issue
	for _, img := range images {
		if img.Alt != "" {
			continue
		}
		issue := page.issue(model.TypeImageMissingAlt, model.SeverityMedium)
		issue.Details = img.Src
		issues = append(issues, issue)
	}
	return issues, nil
}
