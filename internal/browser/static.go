package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/siteaudit/internal/weburl"
)

// DefaultMaxBodySize caps how much of a document the static engine reads.
const DefaultMaxBodySize = 10 * 1024 * 1024

// Static loads pages over plain HTTP and queries them with goquery.
// It does not execute JavaScript.
type Static struct {
	// client performs every request. Redirects are followed.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// maxBodySize limits the bytes read from a document.
	maxBodySize int64

	logger *slog.Logger
}

// StaticOption configures a Static browser.
type StaticOption func(*Static)

// WithHTTPClient sets the HTTP client used by the static engine.
func WithHTTPClient(client *http.Client) StaticOption {
	return func(s *Static) {
		s.client = client
	}
}

// WithMaxBodySize sets the maximum number of bytes read from a document.
func WithMaxBodySize(size int64) StaticOption {
	return func(s *Static) {
		s.maxBodySize = size
	}
}

// NewStatic creates a static browser.
func NewStatic(opts Options, options ...StaticOption) *Static {
	s := &Static{
		client:      &http.Client{},
		userAgent:   opts.UserAgent,
		headers:     opts.Headers,
		maxBodySize: DefaultMaxBodySize,
		logger:      opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Navigate fetches url and parses the response body.
func (s *Static) Navigate(ctx context.Context, rawURL string, timeout time.Duration) (*Response, Document, error) {
	reqCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	req, err := s.newRequest(reqCtx, http.MethodGet, rawURL)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, classify(ctx, reqCtx, "navigating to "+rawURL, timeout, err)
	}
	defer resp.Body.Close()

	doc, err := s.parse(resp)
	if err != nil {
		return nil, nil, classify(ctx, reqCtx, "reading "+rawURL, timeout, err)
	}

	return &Response{
		Status:   resp.StatusCode,
		FinalURL: resp.Request.URL.String(),
		LoadTime: time.Since(start),
	}, doc, nil
}

// RequestStatus checks url with HEAD and falls back to GET for servers
// that do not implement HEAD.
func (s *Static) RequestStatus(ctx context.Context, rawURL string, timeout time.Duration) (int, error) {
	status, err := s.status(ctx, http.MethodHead, rawURL, timeout)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		return s.status(ctx, http.MethodGet, rawURL, timeout)
	}
	return status, nil
}

// Close is a no-op for the static engine.
func (s *Static) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Static) status(ctx context.Context, method, rawURL string, timeout time.Duration) (int, error) {
	reqCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	req, err := s.newRequest(reqCtx, method, rawURL)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, classify(ctx, reqCtx, "requesting "+rawURL, timeout, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse

	return resp.StatusCode, nil
}

func (s *Static) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (s *Static) parse(resp *http.Response) (*staticDocument, error) {
	contentType := resp.Header.Get("Content-Type")
	base := resp.Request.URL.String()

	if !isMarkup(contentType) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(""))
		if err != nil {
			return nil, err
		}
		return &staticDocument{doc: doc, base: base, logger: s.logger}, nil
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, s.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &staticDocument{doc: doc, base: base, logger: s.logger}, nil
}

// isMarkup reports whether a Content-Type can be parsed as HTML.
// A missing Content-Type is sniffed as HTML.
func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// withTimeout derives a request context. A zero timeout means no limit.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify turns a transport error into a timeout error when the
// per-request deadline fired, and keeps cancellation of the parent
// context recognisable.
func classify(parent, reqCtx context.Context, what string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s: %w", what, parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || IsTimeout(err) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, what, timeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// staticDocument implements Document over a parsed goquery document.
type staticDocument struct {
	doc    *goquery.Document
	base   string
	logger *slog.Logger
}

func (d *staticDocument) Title() (string, error) {
	return strings.Join(strings.Fields(d.doc.Find("title").First().Text()), " "), nil
}

func (d *staticDocument) QueryAll(selector string) ([]Element, error) {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	var elements []Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, d.element(s))
	})
	return elements, nil
}

func (d *staticDocument) TextContent(selector string) (string, error) {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return d.doc.Find(selector).First().Text(), nil
}

func (d *staticDocument) element(s *goquery.Selection) Element {
	rawHref, _ := s.Attr("href")
	src, _ := s.Attr("src")
	alt, _ := s.Attr("alt")
	content, _ := s.Attr("content")

	return Element{
		Href:    d.resolve(rawHref),
		RawHref: rawHref,
		Text:    strings.TrimSpace(s.Text()),
		Src:     d.resolve(src),
		Alt:     alt,
		Content: content,
	}
}

// resolve resolves raw against the document URL without its fragment.
// A malformed reference resolves to "" so callers drop it.
func (d *staticDocument) resolve(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	resolved, err := weburl.Resolve(raw, d.base)
	if err != nil {
		d.logger.Debug("dropping malformed reference", "ref", raw, "page", d.base, "error", err)
		return ""
	}
	return resolved
}
