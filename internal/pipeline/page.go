package pipeline

import (
	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/model"
)

// Selectors used to read the document.
const (
	SelectorLinks           = "a[href]"
	SelectorImages          = "img"
	SelectorMetaDescription = `meta[name="description"]`
	SelectorH1              = "h1"
	SelectorBody            = "body"
)

// Page is the snapshot of one rendered page handed to every check.
type Page struct {
	// URL is the normalized URL of the page.
	URL string

	// SiteHostname is the hostname of the audited site.
	SiteHostname string

	// Response is the navigation response.
	Response *browser.Response

	// Document is the loaded document. It is only valid during the pipeline run.
	Document browser.Document

	// Links are the outbound links of the page in document order.
	Links []Link
}

// Link is one outbound anchor of a page.
type Link struct {
	// Href is the absolute target with its fragment removed.
	Href string

	// RawHref is the href attribute as written in the markup.
	RawHref string

	// Text is the trimmed visible text.
	Text string

	// Nav is true when the anchor matches the navigation selector.
	Nav bool

	// Repeated is true for nav links already link-checked on another page.
	Repeated bool
}

// issue creates an issue attributed to the page.
func (p *Page) issue(issueType string, severity model.Severity) model.Issue {
	return model.Issue{
		Page:     p.URL,
		Type:     issueType,
		Severity: severity,
	}
}

// linkIssue creates an issue attributed to one of the page's links.
func (p *Page) linkIssue(link, issueType, details string, severity model.Severity) model.Issue {
	return model.Issue{
		Page:     p.URL,
		Link:     link,
		Type:     issueType,
		Details:  details,
		Severity: severity,
	}
}
