package model

import (
	"fmt"
	"strings"
)

// Issue is one finding recorded while auditing a page.
// Issues are append-only: the same page and type may appear more than once
// when a check detects the problem on several elements of that page.
type Issue struct {
	// Page is the normalized URL of the page the issue was found on.
	Page string `json:"page"`

	// Link is the outbound link the issue refers to, if any.
	Link string `json:"link,omitempty"`

	// Type is the human-readable category label, e.g. "Missing H1 tag".
	Type string `json:"type"`

	// Details is optional free text, e.g. "183 chars" or an error message.
	Details string `json:"details,omitempty"`

	// Severity is one of low, medium or high.
	Severity Severity `json:"severity"`
}

// Issue type labels. The dynamic ones (HTTP errors, broken links) are built
// with HTTPErrorType and BrokenLinkType.
const (
	TypeMissingTitle           = "Missing or empty title"
	TypeMissingMetaDescription = "Missing meta description"
	TypeMetaDescriptionTooLong = "Meta description too long"
	TypeMissingH1              = "Missing H1 tag"
	TypeMultipleH1             = "Multiple H1 tags"
	TypePlaceholderText        = "Placeholder text detected"
	TypePlaceholderLinkURL     = "Placeholder in link URL"
	TypePlaceholderLinkText    = "Placeholder in link text"
	TypeSlowPageLoad           = "Slow page load"
	TypeImageMissingAlt        = "Image missing alt text"
	TypeAbsoluteInternalLink   = "Absolute internal link (should be relative)"
	TypeLinkMissingText        = "Link missing text"
	TypeLinkCheckFailed        = "Link check failed"
	TypeInvalidTelCountry      = "Invalid tel: link format"
	TypeInvalidTelHref         = "Incorrect tel: link href format"
	TypeInvalidTelDisplay      = "Incorrect tel: link display format"
	TypeTimeoutExceeded        = "Timeout exceeded"
	TypeCrawlFailed            = "Crawl failed"
	TypeCrawlSetupFailed       = "Crawl setup failed"

	httpErrorPrefix  = "HTTP Error "
	brokenLinkPrefix = "Broken link (Status: "
)

// HTTPErrorType returns the issue type for a page answering with status.
func HTTPErrorType(status int) string {
	return fmt.Sprintf("%s%d", httpErrorPrefix, status)
}

// BrokenLinkType returns the issue type for a link answering with status.
func BrokenLinkType(status int) string {
	return fmt.Sprintf("%s%d)", brokenLinkPrefix, status)
}

// recommendations maps issue types to remediation advice shown in the
// HTML and Markdown reports.
var recommendations = map[string]string{
	TypeMissingTitle:           "Give every page a unique, descriptive <title>.",
	TypeMissingMetaDescription: "Add a <meta name=\"description\"> summarising the page.",
	TypeMetaDescriptionTooLong: "Keep the meta description under 160 characters so it is not truncated in search results.",
	TypeMissingH1:              "Add exactly one <h1> describing the page.",
	TypeMultipleH1:             "Use a single <h1> and demote the others to <h2> or lower.",
	TypePlaceholderText:        "Replace template placeholder text with real content before publishing.",
	TypePlaceholderLinkURL:     "Point the link at its real destination.",
	TypePlaceholderLinkText:    "Replace the placeholder link text.",
	TypeSlowPageLoad:           "Reduce page weight, defer non-critical scripts and enable caching.",
	TypeImageMissingAlt:        "Describe the image in an alt attribute, or use alt=\"\" for decorative images.",
	TypeAbsoluteInternalLink:   "Use a relative URL for links within the same site.",
	TypeLinkMissingText:        "Give the link visible text or an accessible label.",
	TypeLinkCheckFailed:        "Verify the link target is reachable.",
	TypeInvalidTelCountry:      "Use a country code from the allowed list in tel: links.",
	TypeInvalidTelHref:         "Format tel: links as tel:+1 followed by ten digits.",
	TypeInvalidTelDisplay:      "Display phone numbers as ddd.ddd.dddd.",
	TypeTimeoutExceeded:        "Check why the page does not finish loading within the timeout.",
	TypeCrawlFailed:            "Check that the page is reachable and renders without errors.",
	TypeCrawlSetupFailed:       "Check the start URL and sitemap configuration.",
}

// Recommendation returns remediation advice for an issue type, or an empty
// string when none is known.
func Recommendation(issueType string) string {
	switch {
	case strings.HasPrefix(issueType, httpErrorPrefix):
		return "Fix the server response or remove links to this page."
	case strings.HasPrefix(issueType, brokenLinkPrefix):
		return "Update or remove the broken link."
	}
	return recommendations[issueType]
}
