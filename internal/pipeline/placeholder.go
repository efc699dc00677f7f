package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
)

// PlaceholderMatcher finds configured placeholder literals in text.
// It is compiled once into a case-insensitive alternation of the quoted
// literals, so regular expression metacharacters in a literal match
// themselves.
type PlaceholderMatcher struct {
	re *regexp.Regexp
}

// NewPlaceholderMatcher compiles literals into a matcher.
// Empty literals are ignored; with no literals left it returns nil, and a
// nil matcher matches nothing.
func NewPlaceholderMatcher(literals []string) *PlaceholderMatcher {
	quoted := make([]string, 0, len(literals))
	for _, l := range literals {
		if l == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	if len(quoted) == 0 {
		return nil
	}
	return &PlaceholderMatcher{re: regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))}
}

// FindAll returns every non-overlapping match in s, in order.
func (m *PlaceholderMatcher) FindAll(s string) []string {
	if m == nil || s == "" {
		return nil
	}
	return m.re.FindAllString(s, -1)
}

// Match reports whether s contains any placeholder.
func (m *PlaceholderMatcher) Match(s string) bool {
	if m == nil || s == "" {
		return false
	}
	return m.re.MatchString(s)
}

// distinct removes duplicates, keeping the first occurrence of each value.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// PlaceholderCheck flags template placeholder text in the page body and in
// link URLs and link texts.
type PlaceholderCheck struct {
	matcher *PlaceholderMatcher
}

// NewPlaceholderCheck creates a PlaceholderCheck for the given literals.
func NewPlaceholderCheck(literals []string) *PlaceholderCheck {
	return &PlaceholderCheck{matcher: NewPlaceholderMatcher(literals)}
}

// Name implements Check.
func (c *PlaceholderCheck) Name() string {
	return "placeholders"
}

// Inspect implements Check. A body match yields one issue listing the
// distinct matches; each matching link URL and link text yields its own issue.
func (c *PlaceholderCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	if c.matcher == nil {
		return nil, nil
	}

	var issues []model.Issue

	body, err := page.Document.TextContent(SelectorBody)
	if err == nil {
		if found := distinct(c.matcher.FindAll(body)); len(found) > 0 {
			issue := page.issue(model.TypePlaceholderText, model.SeverityLow)
			issue.Details = "Found: " + strings.Join(found, ", ")
			issues = append(issues, issue)
		}
	}

	for _, link := range page.Links {
		if found := c.matcher.FindAll(link.Href); len(found) > 0 {
			issues = append(issues, page.linkIssue(link.Href, model.TypePlaceholderLinkURL,
				"Found: "+strings.Join(distinct(found), ", "), model.SeverityLow))
		}
		if found := c.matcher.FindAll(link.Text); len(found) > 0 {
			issues = append(issues, page.linkIssue(link.Href, model.TypePlaceholderLinkText,
				"Found: "+strings.Join(distinct(found), ", "), model.SeverityLow))
		}
	}

	return issues, err
}
