package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/retry"
	"github.com/nao1215/siteaudit/internal/weburl"
)

var (
	// telHrefPattern is the only accepted tel: href form: +1 and ten digits.
	telHrefPattern = regexp.MustCompile(`(?i)^tel:\+1\d{10}$`)

	// telDisplayPattern is the accepted display form of a phone number.
	telDisplayPattern = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{4}$`)
)

// TelCheck validates tel: links: allowed country code, href format and
// display format are checked independently.
type TelCheck struct {
	countryCodes []string
}

// NewTelCheck creates a TelCheck for the allowed country codes (e.g. "+1").
// With no codes every tel: link fails the country code check.
func NewTelCheck(countryCodes []string) *TelCheck {
	codes := make([]string, 0, len(countryCodes))
	for _, c := range countryCodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return &TelCheck{countryCodes: codes}
}

// Name implements Check.
func (c *TelCheck) Name() string { return "tel-links" }

// Inspect implements Check.
func (c *TelCheck) Inspect(_ context.Context, page *Page) ([]model.Issue, error) {
	var issues []model.Issue
	for _, link := range page.Links {
		if !weburl.IsTel(link.Href) {
			continue
		}
		href := strings.TrimSpace(link.Href)

		if !c.allowed(href) {
			issues = append(issues, page.linkIssue(href, model.TypeInvalidTelCountry,
				"Telephone link does not start with allowed country codes: "+c.allowedList(),
				model.SeverityMedium))
		}
		if !telHrefPattern.MatchString(href) {
			issues = append(issues, page.linkIssue(href, model.TypeInvalidTelHref,
				"Expected tel:+1 followed by 10 digits", model.SeverityMedium))
		}
		if !telDisplayPattern.MatchString(link.Text) {
			issues = append(issues, page.linkIssue(href, model.TypeInvalidTelDisplay,
				"Expected ddd.ddd.dddd, got "+quoteOrEmpty(link.Text), model.SeverityMedium))
		}
	}
	return issues, nil
}

// allowedList formats the allowed codes for issue details.
func (c *TelCheck) allowedList() string {
	if len(c.countryCodes) == 0 {
		return "(none configured)"
	}
	return strings.Join(c.countryCodes, ", ")
}

// allowed reports whether href starts with an allowed code. An empty
// allow-list matches nothing.
func (c *TelCheck) allowed(href string) bool {
	lower := strings.ToLower(href)
	for _, code := range c.countryCodes {
		if strings.HasPrefix(lower, "tel:"+strings.ToLower(code)) {
			return true
		}
	}
	return false
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "empty text"
	}
	return `"` + s + `"`
}

// LinkCheck verifies outbound http(s) links: status, absolute internal
// references and missing link text.
type LinkCheck struct {
	checker    browser.StatusChecker
	policy     retry.Policy
	timeout    time.Duration
	exclusions *weburl.Matcher
	logger     *slog.Logger
}

// LinkCheckOption configures a LinkCheck.
type LinkCheckOption func(*LinkCheck)

// WithLinkRetry sets the retry policy for status requests.
func WithLinkRetry(p retry.Policy) LinkCheckOption {
	return func(c *LinkCheck) {
		c.policy = p
	}
}

// WithLinkTimeout sets the timeout of one status request.
func WithLinkTimeout(timeout time.Duration) LinkCheckOption {
	return func(c *LinkCheck) {
		c.timeout = timeout
	}
}

// WithLinkExclusions skips links matching m.
func WithLinkExclusions(m *weburl.Matcher) LinkCheckOption {
	return func(c *LinkCheck) {
		c.exclusions = m
	}
}

// WithLinkLogger sets the logger used for retry notifications.
func WithLinkLogger(logger *slog.Logger) LinkCheckOption {
	return func(c *LinkCheck) {
		c.logger = logger
	}
}

// NewLinkCheck creates a LinkCheck using checker for status requests.
func NewLinkCheck(checker browser.StatusChecker, opts ...LinkCheckOption) *LinkCheck {
	c := &LinkCheck{
		checker: checker,
		policy:  retry.DefaultPolicy(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Name implements Check.
func (c *LinkCheck) Name() string { return "links" }

// Inspect implements Check. Excluded links and repeated nav links are not
// checked. A link whose status request keeps failing yields a single
// "link check failed" issue and no further link issues.
func (c *LinkCheck) Inspect(ctx context.Context, page *Page) ([]model.Issue, error) {
	var issues []model.Issue

	for _, link := range page.Links {
		if !weburl.IsHTTP(link.Href) || link.Repeated || c.exclusions.Match(link.Href) {
			continue
		}

		status, err := retry.Do(ctx, c.policy, func() (int, error) {
			return c.checker.RequestStatus(ctx, link.Href, c.timeout)
		}, func(attempt int, err error, wait time.Duration) {
			c.logger.Debug("retrying link check",
				"link", link.Href,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		})
		if err != nil {
			if ctx.Err() != nil {
				return issues, ctx.Err()
			}
			issues = append(issues, page.linkIssue(link.Href, model.TypeLinkCheckFailed, err.Error(), model.SeverityMedium))
			continue
		}

		if status >= 400 {
			issues = append(issues, page.linkIssue(link.Href, model.BrokenLinkType(status), "", model.SeverityHigh))
		}
		if weburl.IsInternal(link.Href, page.SiteHostname) && weburl.IsAbsolute(link.RawHref) {
			issues = append(issues, page.linkIssue(link.Href, model.TypeAbsoluteInternalLink, "", model.SeverityLow))
		}
		if link.Text == "" {
			issues = append(issues, page.linkIssue(link.Href, model.TypeLinkMissingText, "", model.SeverityMedium))
		}
	}

	return issues, nil
}
