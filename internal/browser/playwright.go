package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// viewport matches a common laptop screen so responsive layouts render
// their desktop navigation.
var viewport = &playwright.Size{Width: 1280, Height: 720}

// navigationTimingScript reads responseEnd from the Navigation Timing API,
// in milliseconds since navigation start.
const navigationTimingScript = `() => {
	const [nav] = performance.getEntriesByType('navigation');
	return nav ? nav.responseEnd : 0;
}`

// elementsScript serialises the element properties read by the audit.
// EvaluateAll does not wait for elements to appear, unlike locator actions.
const elementsScript = `els => els.map(e => ({
	href: typeof e.href === 'string' ? e.href : '',
	rawHref: e.getAttribute('href') || '',
	text: (e.textContent || '').trim(),
	src: typeof e.src === 'string' ? e.src : '',
	alt: e.getAttribute('alt') || '',
	content: e.getAttribute('content') || ''
}))`

const firstTextScript = `els => els.length ? (els[0].textContent || '') : ''`

// Playwright renders pages in headless Chromium.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// LaunchPlaywright starts the Playwright driver and opens one Chromium page.
// The Chromium build must already be installed (playwright install chromium).
func LaunchPlaywright(opts Options) (*Playwright, error) {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	p := &Playwright{pw: pw}

	p.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.Headed),
	})
	if err != nil {
		_ = p.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	headers := map[string]string{"Accept-Language": "en-US"}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	p.context, err = p.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(userAgent),
		Viewport:         viewport,
		ExtraHttpHeaders: headers,
	})
	if err != nil {
		_ = p.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	p.page, err = p.context.NewPage()
	if err != nil {
		_ = p.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return p, nil
}

type gotoResult struct {
	resp playwright.Response
	err  error
}

// Navigate loads url in the page. Cancelling ctx abandons the navigation.
func (p *Playwright) Navigate(ctx context.Context, rawURL string, timeout time.Duration) (*Response, Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	done := make(chan gotoResult, 1)
	go func() {
		resp, err := p.page.Goto(rawURL, playwright.PageGotoOptions{
			Timeout:   playwright.Float(float64(timeout.Milliseconds())),
			WaitUntil: playwright.WaitUntilStateLoad,
		})
		done <- gotoResult{resp: resp, err: err}
	}()

	var res gotoResult
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("navigating to %s: %w", rawURL, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		if errors.Is(res.err, playwright.ErrTimeout) {
			return nil, nil, fmt.Errorf("%w: navigating to %s after %s", ErrTimeout, rawURL, timeout)
		}
		return nil, nil, fmt.Errorf("navigating to %s: %w", rawURL, res.err)
	}

	out := &Response{
		FinalURL: p.page.URL(),
		LoadTime: p.loadTime(),
	}
	if res.resp != nil {
		out.Status = res.resp.Status()
	}
	return out, &playwrightDocument{page: p.page}, nil
}

// RequestStatus fetches url through the browser context's request API,
// sharing its cookies and headers, without navigating the page.
func (p *Playwright) RequestStatus(ctx context.Context, rawURL string, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := p.page.Request().Get(rawURL, playwright.APIRequestContextGetOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return 0, fmt.Errorf("%w: requesting %s after %s", ErrTimeout, rawURL, timeout)
		}
		return 0, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Dispose() //nolint:errcheck // response body is not needed

	return resp.Status(), nil
}

// Close closes the page's context, the browser and the driver.
func (p *Playwright) Close() error {
	var errs []error
	if p.context != nil {
		errs = append(errs, p.context.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	return errors.Join(errs...)
}

// loadTime returns the navigation responseEnd, or zero when the timing
// entry is not available.
func (p *Playwright) loadTime() time.Duration {
	v, err := p.page.Evaluate(navigationTimingScript)
	if err != nil {
		return 0
	}
	var ms float64
	switch n := v.(type) {
	case float64:
		ms = n
	case int:
		ms = float64(n)
	default:
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// playwrightDocument implements Document over the live page.
type playwrightDocument struct {
	page playwright.Page
}

func (d *playwrightDocument) Title() (string, error) {
	return d.page.Title()
}

func (d *playwrightDocument) QueryAll(selector string) ([]Element, error) {
	v, err := d.page.Locator(selector).EvaluateAll(elementsScript)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}

	elements := make([]Element, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		elements = append(elements, Element{
			Href:    stringField(m, "href"),
			RawHref: stringField(m, "rawHref"),
			Text:    stringField(m, "text"),
			Src:     stringField(m, "src"),
			Alt:     stringField(m, "alt"),
			Content: stringField(m, "content"),
		})
	}
	return elements, nil
}

func (d *playwrightDocument) TextContent(selector string) (string, error) {
	v, err := d.page.Locator(selector).EvaluateAll(firstTextScript)
	if err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	s, _ := v.(string)
	return s, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
