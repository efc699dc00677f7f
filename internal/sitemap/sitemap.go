// Package sitemap turns a sitemap.xml tree into crawl seed URLs.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nao1215/siteaudit/internal/weburl"
)

const (
	// DefaultMaxNesting bounds how many sitemap index levels are followed.
	DefaultMaxNesting = 3

	// DefaultMaxBodySize caps the bytes read from one sitemap document.
	DefaultMaxBodySize = 50 * 1024 * 1024

	defaultTimeout = 30 * time.Second
)

// ErrUnexpectedFormat is returned for XML that is neither a urlset nor a sitemapindex.
var ErrUnexpectedFormat = errors.New("unexpected sitemap format")

// urlSet is <urlset><url><loc>.
type urlSet struct {
	URLs []entry `xml:"url"`
}

// index is <sitemapindex><sitemap><loc>.
type index struct {
	Sitemaps []entry `xml:"sitemap"`
}

type entry struct {
	Loc string `xml:"loc"`
}

// Resolver fetches sitemaps and collects the page URLs they list.
type Resolver struct {
	client      *http.Client
	userAgent   string
	maxNesting  int
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

// WithMaxNesting sets how many index levels are followed below the root.
func WithMaxNesting(n int) Option {
	return func(r *Resolver) {
		r.maxNesting = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:      &http.Client{Timeout: defaultTimeout},
		maxNesting:  DefaultMaxNesting,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultURL returns <startURL>/sitemap.xml.
func DefaultURL(startURL string) string {
	return strings.TrimSuffix(startURL, "/") + "/sitemap.xml"
}

// ResolveSeedURLs returns the page URLs listed under rootURL, following
// nested sitemap indexes, in document order without duplicates.
// Sitemaps that cannot be fetched or parsed are logged and skipped.
func (r *Resolver) ResolveSeedURLs(ctx context.Context, rootURL string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	visited := mapset.NewThreadUnsafeSet[string]()
	var urls []string

	var walk func(sitemapURL string, level int)
	walk = func(sitemapURL string, level int) {
		if ctx.Err() != nil || !visited.Add(sitemapURL) {
			return
		}
		pages, children, err := r.fetch(ctx, sitemapURL)
		if err != nil {
			r.logger.Warn("failed to load sitemap", "url", sitemapURL, "error", err)
			return
		}
		r.logger.Debug("sitemap fetched", "url", sitemapURL, "pages", len(pages), "sitemaps", len(children))

		for _, p := range pages {
			if seen.Add(p) {
				urls = append(urls, p)
			}
		}
		for _, child := range children {
			if level >= r.maxNesting {
				r.logger.Warn("sitemap nesting limit reached", "url", child, "limit", r.maxNesting)
				continue
			}
			walk(child, level+1)
		}
	}
	walk(rootURL, 0)
	return urls
}

// Seeds resolves the seed URLs for a crawl of startURL. sitemapURL may be
// empty, in which case DefaultURL(startURL) is used. The start URL alone is
// returned when the sitemap yields nothing.
func (r *Resolver) Seeds(ctx context.Context, startURL, sitemapURL string) []string {
	if sitemapURL == "" {
		sitemapURL = DefaultURL(startURL)
	}
	seeds := r.ResolveSeedURLs(ctx, sitemapURL)
	if len(seeds) == 0 {
		r.logger.Warn("no URLs found in sitemap, using start URL", "sitemap", sitemapURL, "start_url", startURL)
		return []string{startURL}
	}
	r.logger.Info("loaded seed URLs from sitemap", "sitemap", sitemapURL, "count", len(seeds))
	return seeds
}

// fetch downloads and decodes one sitemap document.
func (r *Resolver) fetch(ctx context.Context, sitemapURL string) (pages, children []string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return Parse(data)
}

// Parse decodes a urlset or sitemapindex document. Entries with an empty
// or malformed <loc> are dropped.
func Parse(data []byte) (pages, children []string, err error) {
	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
	}

	switch root.XMLName.Local {
	case "urlset":
		var set urlSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
		}
		return locations(set.URLs), nil, nil
	case "sitemapindex":
		var idx index
		if err := xml.Unmarshal(data, &idx); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUnexpectedFormat, err)
		}
		return nil, locations(idx.Sitemaps), nil
	default:
		return nil, nil, fmt.Errorf("%w: root element <%s>", ErrUnexpectedFormat, root.XMLName.Local)
	}
}

func locations(entries []entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		loc, err := weburl.Normalize(e.Loc)
		if err != nil {
			continue
		}
		out = append(out, loc)
	}
	return out
}
