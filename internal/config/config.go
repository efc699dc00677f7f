package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "siteaudit"

	// DefaultMaxDepth is the number of link hops followed from the seed pages.
	DefaultMaxDepth = 4

	// DefaultTimeout bounds each navigation and link status request.
	DefaultTimeout = 10 * time.Second

	// DefaultOutputDir is where report files are written.
	DefaultOutputDir = "crawl-results"

	// DefaultNavSelector identifies navigation anchors.
	DefaultNavSelector = "nav a[href]"

	// DefaultRequestDelay is the politeness wait before every navigation.
	DefaultRequestDelay = 1 * time.Second

	// DefaultRetryAttempts is the total number of attempts for navigations and link checks.
	DefaultRetryAttempts = 3

	// DefaultRetryDelay is the wait between two attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultSlowPageThreshold is the load time above which a page is reported as slow.
	DefaultSlowPageThreshold = 5 * time.Second

	// DefaultEngine renders pages with headless Chromium.
	DefaultEngine = "playwright"

	// DefaultCrawlOrder visits the first link of a page before its siblings.
	DefaultCrawlOrder = "depth-first"
)

// DefaultPlaceholders are text fragments that indicate unfinished content.
var DefaultPlaceholders = []string{
	"https://SITENAME.com/",
	"SITENAME.com",
	"GOES HERE",
	"XX",
	"https://www.placeholder1.com/",
	"https://placeholder2.com/",
	"placeholdertext.",
	"Lorem ipsum",
	"000",
	"000.000.0000",
	"XXX.XXX.XXXX",
	"ADDRESS",
	"CITY",
	"STATE",
	"ZIP",
	"placeholder",
	"placeholders",
}

// Checks switches the individual audit checks on and off.
type Checks struct {
	Title        bool `yaml:"title"`
	HTTPStatus   bool `yaml:"httpStatus"`
	SEO          bool `yaml:"seo"`
	Placeholders bool `yaml:"placeholders"`
	Links        bool `yaml:"links"`
	Performance  bool `yaml:"performance"`
	Images       bool `yaml:"images"`
	TelLinks     bool `yaml:"telLinks"`
}

// Retry configures how navigations and link checks are retried.
type Retry struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int `yaml:"attempts"`

	// Delay is the fixed wait between attempts.
	Delay time.Duration `yaml:"delay"`
}

// Config holds all configuration options for one audit.
// It is populated from defaults, then the YAML file, then CLI flags, and is
// passed through the application rather than kept in global state.
//
// Durations are written in YAML as Go duration strings ("10s", "500ms").
type Config struct {
	// StartURL is the site to audit. Its hostname decides which links are internal.
	StartURL string `yaml:"startUrl"`

	// MaxDepth is the maximum number of link hops from a seed page.
	// 0 means only the seed pages.
	MaxDepth int `yaml:"maxDepth"`

	// MaxPages caps the number of pages crawled. 0 means no limit.
	MaxPages int `yaml:"maxPages"`

	// Timeout bounds each navigation and link status request.
	Timeout time.Duration `yaml:"timeout"`

	// OutputDir is where report files are written.
	OutputDir string `yaml:"outputDir"`

	// UseSitemap seeds the crawl from the sitemap instead of the start URL only.
	UseSitemap bool `yaml:"useSitemap"`

	// SitemapURL overrides the default <startUrl>/sitemap.xml location.
	SitemapURL string `yaml:"sitemapUrl"`

	// SkipRepeatedNavLinks link-checks a navigation link only on the first page it appears on.
	SkipRepeatedNavLinks bool `yaml:"skipRepeatedNavLinks"`

	// NavSelector identifies navigation anchors.
	NavSelector string `yaml:"navSelector"`

	// RequestDelay is the politeness wait before every navigation.
	RequestDelay time.Duration `yaml:"requestDelay"`

	// Placeholders are literal text fragments reported when found on a page.
	Placeholders []string `yaml:"placeholders"`

	// ExcludeURLs are URLs, matched as substrings, that are never crawled or link-checked.
	ExcludeURLs []string `yaml:"excludeUrls"`

	// ExcludePatterns are substrings; a URL containing any of them is never crawled or link-checked.
	ExcludePatterns []string `yaml:"excludePatterns"`

	// Checks selects the audit checks to run.
	Checks Checks `yaml:"checks"`

	// TelCountryCodes are the accepted tel: link country prefixes.
	TelCountryCodes []string `yaml:"telCountryCodes"`

	// Retry configures retries of navigations and link checks.
	Retry Retry `yaml:"retry"`

	// SlowPageThreshold is the load time above which a page is reported as slow.
	SlowPageThreshold time.Duration `yaml:"slowPageThreshold"`

	// Engine selects the page renderer: "playwright" or "static".
	Engine string `yaml:"engine"`

	// Headed shows the browser window. Only used by the playwright engine.
	Headed bool `yaml:"headed"`

	// UserAgent overrides the browser User-Agent.
	UserAgent string `yaml:"userAgent"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers"`

	// CrawlOrder is "depth-first" or "breadth-first".
	CrawlOrder string `yaml:"crawlOrder"`

	// RespectRobots skips URLs disallowed by the site's robots.txt.
	RespectRobots bool `yaml:"respectRobots"`

	// Formats are the report files written to OutputDir.
	Formats []string `yaml:"formats"`

	// SaveHistory records each audit in the history database.
	SaveHistory bool `yaml:"saveHistory"`

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/siteaudit on Linux).
	DBDir string `yaml:"dbDir"`

	// Verbose enables debug logging. Set from the command line only.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the file the configuration was loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:             DefaultMaxDepth,
		Timeout:              DefaultTimeout,
		OutputDir:            DefaultOutputDir,
		UseSitemap:           true,
		SkipRepeatedNavLinks: true,
		NavSelector:          DefaultNavSelector,
		RequestDelay:         DefaultRequestDelay,
		Placeholders:         append([]string(nil), DefaultPlaceholders...),
		ExcludePatterns:      []string{"login", "logout"},
		Checks: Checks{
			Title:        true,
			Placeholders: true,
			Links:        true,
			TelLinks:     true,
		},
		TelCountryCodes:   []string{"+1"},
		Retry:             Retry{Attempts: DefaultRetryAttempts, Delay: DefaultRetryDelay},
		SlowPageThreshold: DefaultSlowPageThreshold,
		Engine:            DefaultEngine,
		CrawlOrder:        DefaultCrawlOrder,
		Formats:           []string{"json", "graph", "csv", "html", "markdown"},
		SaveHistory:       true,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for siteaudit.
// On Linux: ~/.local/share/siteaudit
// On macOS: ~/Library/Application Support/siteaudit
// On Windows: %LOCALAPPDATA%\siteaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for siteaudit.
// On Linux: ~/.config/siteaudit
// On macOS: ~/Library/Application Support/siteaudit
// On Windows: %APPDATA%\siteaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found, wrapping one of the sentinel errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StartURL) == "" {
		return ErrNoStartURL
	}
	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidStartURL, c.StartURL)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.RequestDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.Retry.Attempts < 1 || c.Retry.Delay < 0 {
		return ErrInvalidRetry
	}

	switch strings.ToLower(c.Engine) {
	case "playwright", "static":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Engine)
	}

	switch strings.ToLower(c.CrawlOrder) {
	case "depth-first", "breadth-first", "dfs", "bfs":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrder, c.CrawlOrder)
	}

	for _, f := range c.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "json", "graph", "csv", "html", "markdown", "md":
		default:
			return fmt.Errorf("%w: %q", ErrInvalidFormat, f)
		}
	}

	return nil
}
