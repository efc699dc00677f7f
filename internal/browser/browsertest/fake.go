// Package browsertest provides an in-memory browser.Browser for tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/siteaudit/internal/browser"
)

// Page is a canned page served by Fake.
type Page struct {
	// Status is the response status. Zero means 200.
	Status int

	// FinalURL simulates a redirect when non-empty.
	FinalURL string

	// Title is the document title.
	Title string

	// Body is returned by TextContent("body").
	Body string

	// LoadTime is reported as navigation timing.
	LoadTime time.Duration

	// Elements maps CSS selectors to the elements QueryAll returns.
	Elements map[string][]browser.Element

	// Err is returned by Navigate instead of the page.
	Err error

	// QueryErr is returned by every QueryAll call on the page.
	QueryErr error
}

// Fake serves canned pages and link statuses.
// Unknown pages answer 404 with an empty document; unknown links answer 200.
type Fake struct {
	// Pages maps URLs to canned pages.
	Pages map[string]*Page

	// LinkStatus maps URLs to RequestStatus results.
	LinkStatus map[string]int

	// LinkErr maps URLs to RequestStatus errors.
	LinkErr map[string]error

	// OnNavigate is called before each navigation with the requested URL.
	OnNavigate func(url string)

	// Navigations records every navigated URL in order.
	Navigations []string

	// StatusChecks records every URL passed to RequestStatus in order.
	StatusChecks []string

	// Closed is set by Close.
	Closed bool
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Pages:      make(map[string]*Page),
		LinkStatus: make(map[string]int),
		LinkErr:    make(map[string]error),
	}
}

// AddPage registers page under url and returns it for further setup.
func (f *Fake) AddPage(url string, page *Page) *Page {
	if page.Elements == nil {
		page.Elements = make(map[string][]browser.Element)
	}
	f.Pages[url] = page
	return page
}

// Navigate implements browser.Browser.
func (f *Fake) Navigate(ctx context.Context, url string, _ time.Duration) (*browser.Response, browser.Document, error) {
	if f.OnNavigate != nil {
		f.OnNavigate(url)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f.Navigations = append(f.Navigations, url)

	page, ok := f.Pages[url]
	if !ok {
		return &browser.Response{Status: 404, FinalURL: url}, &document{page: &Page{}}, nil
	}
	if page.Err != nil {
		return nil, nil, page.Err
	}

	resp := &browser.Response{Status: page.Status, FinalURL: url, LoadTime: page.LoadTime}
	if resp.Status == 0 {
		resp.Status = 200
	}
	if page.FinalURL != "" {
		resp.FinalURL = page.FinalURL
	}
	return resp, &document{page: page}, nil
}

// RequestStatus implements browser.StatusChecker.
func (f *Fake) RequestStatus(ctx context.Context, url string, _ time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.StatusChecks = append(f.StatusChecks, url)
	if err, ok := f.LinkErr[url]; ok {
		return 0, err
	}
	if status, ok := f.LinkStatus[url]; ok {
		return status, nil
	}
	return 200, nil
}

// Close implements browser.Browser.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// CountStatusChecks returns how many times url was status-checked.
func (f *Fake) CountStatusChecks(url string) int {
	n := 0
	for _, u := range f.StatusChecks {
		if u == url {
			n++
		}
	}
	return n
}

type document struct {
	page *Page
}

func (d *document) Title() (string, error) {
	return d.page.Title, nil
}

func (d *document) QueryAll(selector string) ([]browser.Element, error) {
	if d.page.QueryErr != nil {
		return nil, d.page.QueryErr
	}
	return d.page.Elements[selector], nil
}

func (d *document) TextContent(selector string) (string, error) {
	if strings.TrimSpace(selector) != "body" {
		return "", fmt.Errorf("browsertest: unsupported text selector %q", selector)
	}
	return d.page.Body, nil
}

// Link returns an anchor element whose href is used verbatim.
func Link(href, text string) browser.Element {
	return browser.Element{Href: href, RawHref: href, Text: text}
}

// Image returns an img element.
func Image(src, alt string) browser.Element {
	return browser.Element{Src: src, Alt: alt}
}
