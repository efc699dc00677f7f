package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/browser/browsertest"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/retry"
	"github.com/nao1215/siteaudit/internal/weburl"
)

const testURL = "https://example.com/page"

// newTestPage navigates a fake browser to a canned page and returns the
// pipeline snapshot for it.
func newTestPage(t *testing.T, canned *browsertest.Page, links ...Link) *Page {
	t.Helper()

	fake := browsertest.New()
	fake.AddPage(testURL, canned)
	resp, doc, err := fake.Navigate(context.Background(), testURL, time.Second)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	return &Page{
		URL:          testURL,
		SiteHostname: "example.com",
		Response:     resp,
		Document:     doc,
		Links:        links,
	}
}

// issueTypes returns the types of issues in order.
func issueTypes(issues []model.Issue) []string {
	types := make([]string, len(issues))
	for i, issue := range issues {
		types[i] = issue.Type
	}
	return types
}

// hasType reports whether issues contain the given type.
func hasType(issues []model.Issue, issueType string) bool {
	for _, issue := range issues {
		if issue.Type == issueType {
			return true
		}
	}
	return false
}

// TestTitleCheck tests title detection.
func TestTitleCheck(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title    string
		expected int
	}{
		{"Welcome", 0},
		{"", 1},
		{"   ", 1},
		{"Untitled", 1},
	}
	for _, tc := range testCases {
		t.Run("title="+tc.title, func(t *testing.T) {
			t.Parallel()
			page := newTestPage(t, &browsertest.Page{Title: tc.title})
			issues, err := TitleCheck{}.Inspect(context.Background(), page)
			if err != nil {
				t.Fatal(err)
			}
			if len(issues) != tc.expected {
				t.Fatalf("expected %d issues, got %v", tc.expected, issues)
			}
			if tc.expected == 1 && (issues[0].Type != model.TypeMissingTitle || issues[0].Severity != model.SeverityMedium) {
				t.Errorf("unexpected issue %+v", issues[0])
			}
		})
	}
}

// TestStatusCheck tests HTTP status detection.
func TestStatusCheck(t *testing.T) {
	t.Parallel()

	for _, status := range []int{200, 301, 399, 400, 404, 500} {
		page := newTestPage(t, &browsertest.Page{Status: status})
		issues, err := StatusCheck{}.Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		if status < 400 && len(issues) != 0 {
			t.Errorf("status %d: unexpected issues %v", status, issues)
		}
		if status >= 400 {
			if len(issues) != 1 || issues[0].Type != model.HTTPErrorType(status) || issues[0].Severity != model.SeverityHigh {
				t.Errorf("status %d: unexpected issues %v", status, issues)
			}
		}
	}
}

// TestSEOCheck tests meta description and H1 detection.
func TestSEOCheck(t *testing.T) {
	t.Parallel()

	meta := func(content string) []browser.Element {
		return []browser.Element{{Content: content}}
	}
	h1s := func(n int) []browser.Element {
		return make([]browser.Element, n)
	}

	testCases := []struct {
		name     string
		elements map[string][]browser.Element
		expected []string
		details  string
	}{
		{
			name:     "healthy page",
			elements: map[string][]browser.Element{SelectorMetaDescription: meta("A page"), SelectorH1: h1s(1)},
			expected: nil,
		},
		{
			name:     "nothing present",
			elements: map[string][]browser.Element{},
			expected: []string{model.TypeMissingMetaDescription, model.TypeMissingH1},
		},
		{
			name:     "empty description",
			elements: map[string][]browser.Element{SelectorMetaDescription: meta("  "), SelectorH1: h1s(1)},
			expected: []string{model.TypeMissingMetaDescription},
		},
		{
			name:     "long description",
			elements: map[string][]browser.Element{SelectorMetaDescription: meta(strings.Repeat("a", 161)), SelectorH1: h1s(1)},
			expected: []string{model.TypeMetaDescriptionTooLong},
			details:  "161 chars",
		},
		{
			name:     "exactly 160 chars",
			elements: map[string][]browser.Element{SelectorMetaDescription: meta(strings.Repeat("é", 160)), SelectorH1: h1s(1)},
			expected: nil,
		},
		{
			name:     "multiple h1",
			elements: map[string][]browser.Element{SelectorMetaDescription: meta("A page"), SelectorH1: h1s(3)},
			expected: []string{model.TypeMultipleH1},
			details:  "3 found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			page := newTestPage(t, &browsertest.Page{Elements: tc.elements})
			issues, err := SEOCheck{}.Inspect(context.Background(), page)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(issueTypes(issues), "|") != strings.Join(tc.expected, "|") {
				t.Fatalf("got %v, expected %v", issueTypes(issues), tc.expected)
			}
			if tc.details != "" && issues[0].Details != tc.details {
				t.Errorf("got details %q, expected %q", issues[0].Details, tc.details)
			}
		})
	}

	t.Run("query failure", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{QueryErr: errors.New("detached")})
		if _, err := (SEOCheck{}).Inspect(context.Background(), page); err == nil {
			t.Error("expected error")
		}
	})
}

// TestPlaceholderMatcher tests the compiled placeholder matcher.
func TestPlaceholderMatcher(t *testing.T) {
	t.Parallel()

	t.Run("case insensitive find all", func(t *testing.T) {
		t.Parallel()
		m := NewPlaceholderMatcher([]string{"Lorem ipsum", "XX"})
		got := m.FindAll("lorem IPSUM dolor, call xx-xx, LOREM ipsum")
		expected := []string{"lorem IPSUM", "xx", "xx", "LOREM ipsum"}
		if strings.Join(got, "|") != strings.Join(expected, "|") {
			t.Errorf("got %v, expected %v", got, expected)
		}
	})

	t.Run("metacharacters are literal", func(t *testing.T) {
		t.Parallel()
		m := NewPlaceholderMatcher([]string{"$0.00", "[NAME]"})
		if !m.Match("Price: $0.00") || !m.Match("Hello [name]") {
			t.Error("expected literal matches")
		}
		if m.Match("Price: $0a00") || m.Match("Hello N") {
			t.Error("metacharacters must not act as regex operators")
		}
	})

	t.Run("no literals matches nothing", func(t *testing.T) {
		t.Parallel()
		m := NewPlaceholderMatcher([]string{"", ""})
		if m != nil {
			t.Fatal("expected nil matcher")
		}
		if m.Match("anything") || len(m.FindAll("anything")) != 0 {
			t.Error("nil matcher must match nothing")
		}
	})
}

// TestPlaceholderCheck tests body and link placeholder detection.
func TestPlaceholderCheck(t *testing.T) {
	t.Parallel()

	check := NewPlaceholderCheck([]string{"Lorem ipsum", "GOES HERE", "XX"})

	t.Run("one issue for body listing distinct matches", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{Body: "Lorem ipsum dolor sit amet. LOGO GOES HERE. Lorem ipsum again."})
		issues, err := check.Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		if len(issues) != 1 {
			t.Fatalf("expected exactly one issue, got %v", issues)
		}
		if issues[0].Type != model.TypePlaceholderText || issues[0].Severity != model.SeverityLow {
			t.Errorf("unexpected issue %+v", issues[0])
		}
		if issues[0].Details != "Found: Lorem ipsum, GOES HERE" {
			t.Errorf("unexpected details %q", issues[0].Details)
		}
	})

	t.Run("url and text matches are separate issues", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{Body: "Clean content"},
			Link{Href: "https://example.com/xx-page", Text: "Lorem ipsum link"},
			Link{Href: "https://example.com/clean", Text: "Clean"},
			Link{Href: "https://example.com/other", Text: "Name GOES HERE"},
		)
		issues, err := check.Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		expected := []string{model.TypePlaceholderLinkURL, model.TypePlaceholderLinkText, model.TypePlaceholderLinkText}
		if strings.Join(issueTypes(issues), "|") != strings.Join(expected, "|") {
			t.Fatalf("got %v", issueTypes(issues))
		}
		if issues[0].Link != "https://example.com/xx-page" || issues[2].Link != "https://example.com/other" {
			t.Errorf("unexpected links %q %q", issues[0].Link, issues[2].Link)
		}
	})
}

// TestPerformanceCheck tests slow page detection.
func TestPerformanceCheck(t *testing.T) {
	t.Parallel()

	check := NewPerformanceCheck(0)
	testCases := []struct {
		loadTime time.Duration
		details  string
	}{
		{0, ""},
		{4 * time.Second, ""},
		{5 * time.Second, ""},
		{5250 * time.Millisecond, "5.25s"},
	}
	for _, tc := range testCases {
		page := newTestPage(t, &browsertest.Page{LoadTime: tc.loadTime})
		issues, err := check.Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		if tc.details == "" {
			if len(issues) != 0 {
				t.Errorf("load %v: unexpected issues %v", tc.loadTime, issues)
			}
			continue
		}
		if len(issues) != 1 || issues[0].Details != tc.details || issues[0].Severity != model.SeverityMedium {
			t.Errorf("load %v: unexpected issues %v", tc.loadTime, issues)
		}
	}
}

// TestImageCheck tests one issue per image without alt text.
func TestImageCheck(t *testing.T) {
	t.Parallel()

	page := newTestPage(t, &browsertest.Page{Elements: map[string][]browser.Element{
		SelectorImages: {
			browsertest.Image("https://example.com/a.png", "A"),
			browsertest.Image("https://example.com/b.png", ""),
			browsertest.Image("https://example.com/c.png", ""),
		},
	}})
	issues, err := ImageCheck{}.Inspect(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", issues)
	}
	if issues[0].Details != "https://example.com/b.png" || issues[1].Details != "https://example.com/c.png" {
		t.Errorf("unexpected details %q %q", issues[0].Details, issues[1].Details)
	}
}

// TestTelCheck tests telephone link validation.
func TestTelCheck(t *testing.T) {
	t.Parallel()

	check := NewTelCheck([]string{"+1"})

	testCases := []struct {
		name     string
		href     string
		text     string
		expected []string
	}{
		{"valid", "tel:+11234567890", "123.456.7890", nil},
		{"valid upper case scheme", "TEL:+11234567890", "123.456.7890", nil},
		{"wrong country code", "tel:+21234567890", "123.456.7890",
			[]string{model.TypeInvalidTelCountry, model.TypeInvalidTelHref}},
		{"nine digits", "tel:+1123456789", "123.456.7890", []string{model.TypeInvalidTelHref}},
		{"eleven digits", "tel:+112345678901", "123.456.7890", []string{model.TypeInvalidTelHref}},
		{"display without dots", "tel:+11234567890", "1234567890", []string{model.TypeInvalidTelDisplay}},
		{"display empty", "tel:+11234567890", "", []string{model.TypeInvalidTelDisplay}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			page := newTestPage(t, &browsertest.Page{}, Link{Href: tc.href, Text: tc.text})
			issues, err := check.Inspect(context.Background(), page)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(issueTypes(issues), "|") != strings.Join(tc.expected, "|") {
				t.Fatalf("got %v, expected %v", issueTypes(issues), tc.expected)
			}
			for _, issue := range issues {
				if issue.Severity != model.SeverityMedium || issue.Link != tc.href {
					t.Errorf("unexpected issue %+v", issue)
				}
			}
		})
	}

	t.Run("empty allow-list rejects every country code", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{}, Link{Href: "tel:+441234567890", Text: "123.456.7890"})
		issues, err := NewTelCheck(nil).Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		expected := []string{model.TypeInvalidTelCountry, model.TypeInvalidTelHref}
		if strings.Join(issueTypes(issues), "|") != strings.Join(expected, "|") {
			t.Fatalf("got %v, expected %v", issueTypes(issues), expected)
		}
		if !strings.Contains(issues[0].Details, "(none configured)") {
			t.Errorf("unexpected details %q", issues[0].Details)
		}
	})

	t.Run("blank codes are ignored", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{}, Link{Href: "tel:+11234567890", Text: "123.456.7890"})
		issues, _ := NewTelCheck([]string{" ", "+1"}).Inspect(context.Background(), page)
		if len(issues) != 0 {
			t.Errorf("unexpected issues %v", issueTypes(issues))
		}
	})

	t.Run("non tel links are ignored", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, &browsertest.Page{}, Link{Href: "https://example.com/", Text: ""})
		issues, _ := check.Inspect(context.Background(), page)
		if len(issues) != 0 {
			t.Errorf("unexpected issues %v", issues)
		}
	})
}

// TestLinkCheck tests outbound link verification.
func TestLinkCheck(t *testing.T) {
	t.Parallel()

	fastRetry := retry.Policy{MaxAttempts: 2, Delay: time.Millisecond}

	t.Run("classifies links", func(t *testing.T) {
		t.Parallel()

		fake := browsertest.New()
		fake.LinkStatus["https://example.com/missing"] = 404
		fake.LinkErr["https://down.example.net/"] = errors.New("connection refused")

		check := NewLinkCheck(fake, WithLinkRetry(fastRetry), WithLinkLogger(discardLogger()))
		page := newTestPage(t, &browsertest.Page{},
			Link{Href: "https://example.com/ok", RawHref: "/ok", Text: "OK"},
			Link{Href: "https://example.com/missing", RawHref: "/missing", Text: "Missing"},
			Link{Href: "https://example.com/abs", RawHref: "https://example.com/abs", Text: "Absolute"},
			Link{Href: "https://example.com/notext", RawHref: "/notext", Text: ""},
			Link{Href: "https://down.example.net/", RawHref: "https://down.example.net/", Text: ""},
			Link{Href: "mailto:a@example.com", RawHref: "mailto:a@example.com", Text: ""},
		)

		issues, err := check.Inspect(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		expected := []string{
			model.BrokenLinkType(404),
			model.TypeAbsoluteInternalLink,
			model.TypeLinkMissingText,
			model.TypeLinkCheckFailed,
		}
		if strings.Join(issueTypes(issues), "|") != strings.Join(expected, "|") {
			t.Fatalf("got %v, expected %v", issueTypes(issues), expected)
		}
		if issues[3].Details != "connection refused" || issues[3].Severity != model.SeverityMedium {
			t.Errorf("unexpected link check failure %+v", issues[3])
		}
		if fake.CountStatusChecks("https://down.example.net/") != 2 {
			t.Errorf("expected 2 attempts, got %d", fake.CountStatusChecks("https://down.example.net/"))
		}
		if fake.CountStatusChecks("mailto:a@example.com") != 0 {
			t.Error("non-http links must not be checked")
		}
	})

	t.Run("skips excluded and repeated nav links", func(t *testing.T) {
		t.Parallel()

		fake := browsertest.New()
		check := NewLinkCheck(fake,
			WithLinkRetry(fastRetry),
			WithLinkExclusions(weburl.NewMatcher(nil, []string{"logout"})),
		)
		page := newTestPage(t, &browsertest.Page{},
			Link{Href: "https://example.com/logout", Text: "Logout"},
			Link{Href: "https://example.com/about", Text: "About", Nav: true, Repeated: true},
			Link{Href: "https://example.com/contact", Text: "Contact", Nav: true},
		)
		if _, err := check.Inspect(context.Background(), page); err != nil {
			t.Fatal(err)
		}
		if len(fake.StatusChecks) != 1 || fake.StatusChecks[0] != "https://example.com/contact" {
			t.Errorf("unexpected status checks %v", fake.StatusChecks)
		}
	})

	t.Run("cancellation stops checking", func(t *testing.T) {
		t.Parallel()

		fake := browsertest.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		check := NewLinkCheck(fake, WithLinkRetry(fastRetry))
		page := newTestPage(t, &browsertest.Page{}, Link{Href: "https://example.com/a", Text: "A"})
		issues, err := check.Inspect(ctx, page)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(issues) != 0 {
			t.Errorf("cancellation must not be recorded as an issue: %v", issues)
		}
	})
}

// TestDefaultPipelineRun tests a full pipeline over a page.
func TestDefaultPipelineRun(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	p := DefaultPipeline(Settings{
		Checks:          AllChecks(),
		Placeholders:    []string{"Lorem ipsum"},
		TelCountryCodes: []string{"+1"},
		Retry:           retry.Policy{MaxAttempts: 1},
		Logger:          discardLogger(),
	}, fake, WithContinueOnError(true))

	page := newTestPage(t, &browsertest.Page{
		Title: "Home",
		Body:  "Lorem ipsum",
		Elements: map[string][]browser.Element{
			SelectorMetaDescription: {{Content: "desc"}},
			SelectorH1:              {{}},
		},
	}, Link{Href: "tel:+11234567890", Text: "123.456.7890"}, Link{Href: "https://example.com/a", RawHref: "/a", Text: "A"})

	issues, err := p.Run(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || !hasType(issues, model.TypePlaceholderText) {
		t.Errorf("expected only the placeholder issue, got %v", issueTypes(issues))
	}
}
