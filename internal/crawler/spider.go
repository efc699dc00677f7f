package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/pipeline"
	"github.com/nao1215/siteaudit/internal/retry"
	"github.com/nao1215/siteaudit/internal/weburl"
)

// Default crawl settings.
const (
	DefaultMaxDepth    = 4
	DefaultDelay       = 1 * time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultNavSelector = "nav a[href]"
)

// State is the outcome of one dequeued work-list item.
type State int

const (
	// StatePending is the state of an item still in the work-list.
	StatePending State = iota
	// StateExcluded means the URL matched an exclusion rule.
	StateExcluded
	// StateDuplicate means the URL was already visited.
	StateDuplicate
	// StateDepthCut means the item was deeper than the maximum depth.
	StateDepthCut
	// StateInProgress is the state of the page being processed.
	StateInProgress
	// StateCompleted means the page was audited, or redirected.
	StateCompleted
	// StateFailed means the page could not be loaded.
	StateFailed
)

// String returns a lower-case name of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExcluded:
		return "excluded"
	case StateDuplicate:
		return "duplicate"
	case StateDepthCut:
		return "depth-cut"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Visit describes one processed work-list item.
type Visit struct {
	// URL is the normalized URL, or the raw URL when normalization failed.
	URL string

	// Depth is the link distance from the seed.
	Depth int

	// State is the final state of the item.
	State State

	// RedirectedTo is the final URL when the navigation was redirected.
	RedirectedTo string
}

// Spider walks a site page by page and runs the audit pipeline on each page.
// A Spider is not safe for concurrent use; run one Crawl at a time.
type Spider struct {
	// browser loads pages.
	browser browser.Browser

	// pipeline inspects every loaded page.
	pipeline *pipeline.Pipeline

	// siteHostname decides which links are internal.
	siteHostname string

	// maxDepth limits how deep to crawl from the seeds.
	// 0 means only the seeds, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the number of pages crawled. 0 means no limit.
	maxPages int

	// delay is the politeness wait before every navigation.
	delay time.Duration

	// timeout bounds each navigation.
	timeout time.Duration

	// retryPolicy is applied to navigations.
	retryPolicy retry.Policy

	// exclusions are URLs and substrings never crawled.
	exclusions *weburl.Matcher

	// robots is the optional robots.txt rule set.
	robots *Robots

	// skipRepeatedNav skips link checks for nav links seen on earlier pages.
	skipRepeatedNav bool

	// navSelector identifies navigation anchors.
	navSelector string

	// order is the visiting order of discovered links.
	order Order

	// logger receives progress messages.
	logger *slog.Logger

	// onVisit is called after each item reaches its final state.
	onVisit func(Visit)
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to crawl. 0 disables the limit.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay before each navigation.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithTimeout sets the navigation timeout.
func WithTimeout(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.timeout = d
	}
}

// WithRetryPolicy sets how failed navigations are retried.
func WithRetryPolicy(p retry.Policy) SpiderOption {
	return func(s *Spider) {
		s.retryPolicy = p
	}
}

// WithExclusions sets the URLs and patterns that are never crawled.
func WithExclusions(m *weburl.Matcher) SpiderOption {
	return func(s *Spider) {
		s.exclusions = m
	}
}

// WithRobots makes the spider honour robots.txt rules.
func WithRobots(r *Robots) SpiderOption {
	return func(s *Spider) {
		s.robots = r
	}
}

// WithNavDedup configures navigation link de-duplication. When enabled, a
// nav link is link-checked only on the first page it appears on.
func WithNavDedup(enabled bool, selector string) SpiderOption {
	return func(s *Spider) {
		s.skipRepeatedNav = enabled
		if selector != "" {
			s.navSelector = selector
		}
	}
}

// WithOrder sets the visiting order.
func WithOrder(o Order) SpiderOption {
	return func(s *Spider) {
		s.order = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithVisitHook registers fn to be called after every processed item.
func WithVisitHook(fn func(Visit)) SpiderOption {
	return func(s *Spider) {
		s.onVisit = fn
	}
}

// NewSpider creates a Spider that audits the site of siteURL.
// Only links whose hostname equals the hostname of siteURL are followed.
func NewSpider(b browser.Browser, p *pipeline.Pipeline, siteURL string, opts ...SpiderOption) (*Spider, error) {
	normalized, err := weburl.Normalize(siteURL)
	if err != nil {
		return nil, err
	}
	hostname := weburl.Hostname(normalized)
	if hostname == "" {
		return nil, fmt.Errorf("%w: %s has no host", weburl.ErrMalformedURL, siteURL)
	}

	s := &Spider{
		browser:         b,
		pipeline:        p,
		siteHostname:    hostname,
		maxDepth:        DefaultMaxDepth,
		delay:           DefaultDelay,
		timeout:         DefaultTimeout,
		retryPolicy:     retry.DefaultPolicy(),
		skipRepeatedNav: true,
		navSelector:     DefaultNavSelector,
		order:           DepthFirst,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New()
	}
	return s, nil
}

// SiteHostname returns the hostname treated as internal.
func (s *Spider) SiteHostname() string {
	return s.siteHostname
}

// Crawl audits the site starting from seeds, all at depth 0.
//
// The returned Session is never nil. When ctx is cancelled the crawl stops
// at the next suspension point, the page in progress is discarded, and the
// Session is returned along with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seeds []string) (*Session, error) {
	sess := newSession()
	work := newFrontier(s.order)
	for _, seed := range seeds {
		if normalized, err := weburl.Normalize(seed); err == nil {
			sess.discovered.Add(normalized)
		}
		work.pushBack(queueItem{url: seed, depth: 0})
	}

	for work.len() > 0 {
		select {
		case <-ctx.Done():
			sess.interrupted = true
			s.logger.Warn("crawl interrupted", "visited", sess.VisitedCount(), "pending", work.len())
			return sess, ctx.Err()
		default:
		}

		if s.maxPages > 0 && sess.VisitedCount() >= s.maxPages {
			s.logger.Info("page limit reached", "limit", s.maxPages, "pending", work.len())
			break
		}

		item := work.pop()
		visit, err := s.process(ctx, sess, work, item)
		if err != nil {
			sess.interrupted = true
			s.logger.Warn("crawl interrupted", "url", visit.URL, "visited", sess.VisitedCount())
			return sess, err
		}
		if s.onVisit != nil {
			s.onVisit(visit)
		}
	}

	s.logger.Info("crawl finished",
		"visited", sess.VisitedCount(),
		"issues", len(sess.issues),
		"duration", time.Since(sess.startTime).Round(time.Millisecond))
	return sess, nil
}

// process moves one item to its final state. A non-nil error is only
// returned when ctx was cancelled while the page was in progress.
func (s *Spider) process(ctx context.Context, sess *Session, work *frontier, item queueItem) (Visit, error) {
	visit := Visit{URL: item.url, Depth: item.depth}

	normalized, err := weburl.Normalize(item.url)
	if err != nil {
		s.logger.Warn("skipping malformed URL", "url", item.url, "error", err)
		if item.depth == 0 {
			sess.addIssues(model.Issue{
				Page:     item.url,
				Type:     model.TypeCrawlSetupFailed,
				Details:  err.Error(),
				Severity: model.SeverityHigh,
			})
		}
		visit.State = StateFailed
		return visit, nil
	}
	visit.URL = normalized

	switch {
	case s.excluded(normalized):
		s.logger.Debug("skipping excluded URL", "url", normalized)
		visit.State = StateExcluded
		return visit, nil
	case sess.IsVisited(normalized):
		visit.State = StateDuplicate
		return visit, nil
	case item.depth > s.maxDepth:
		visit.State = StateDepthCut
		return visit, nil
	}

	sess.begin(normalized)
	sess.discovered.Add(normalized)
	s.logger.Info("crawling",
		"url", normalized,
		"depth", item.depth,
		"visited", sess.VisitedCount(),
		"discovered", sess.DiscoveredCount(),
		"progress", fmt.Sprintf("%d%%", sess.progress()))

	visit.State, visit.RedirectedTo, err = s.crawlPage(ctx, sess, work, normalized, item.depth)
	if err != nil {
		sess.abandon(normalized)
		visit.State = StateInProgress
		return visit, err
	}
	return visit, nil
}

// navigation bundles the results of one successful page load.
type navigation struct {
	response *browser.Response
	document browser.Document
}

// crawlPage loads and audits one page. Issues, graph links and children are
// committed only once the page is fully processed.
func (s *Spider) crawlPage(ctx context.Context, sess *Session, work *frontier, pageURL string, depth int) (State, string, error) {
	if err := sleep(ctx, s.delay); err != nil {
		return StateInProgress, "", err
	}

	nav, err := retry.Do(ctx, s.retryPolicy, func() (navigation, error) {
		resp, doc, err := s.browser.Navigate(ctx, pageURL, s.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return navigation{}, retry.Permanent(ctx.Err())
			}
			return navigation{}, err
		}
		return navigation{response: resp, document: doc}, nil
	}, func(attempt int, err error, wait time.Duration) {
		s.logger.Warn("navigation failed, retrying",
			"url", pageURL, "attempt", attempt, "wait", wait, "error", err)
	})
	if ctx.Err() != nil {
		return StateInProgress, "", ctx.Err()
	}
	if err != nil {
		s.logger.Error("failed to crawl page", "url", pageURL, "error", err)
		sess.addIssues(failureIssue(pageURL, err))
		return StateFailed, "", nil
	}

	if final, err := weburl.Normalize(nav.response.FinalURL); err == nil && final != pageURL {
		// The final URL is audited as its own page at the same depth.
		// The source URL keeps an empty graph entry.
		s.logger.Info("redirected", "from", pageURL, "to", final)
		work.pushNext(queueItem{url: final, depth: depth})
		return StateCompleted, final, nil
	}

	links, err := s.extractLinks(nav.document, sess)
	if err != nil {
		s.logger.Warn("failed to extract links", "url", pageURL, "error", err)
	}

	page := &pipeline.Page{
		URL:          pageURL,
		SiteHostname: s.siteHostname,
		Response:     nav.response,
		Document:     nav.document,
		Links:        links,
	}
	issues, err := s.pipeline.Run(ctx, page)
	if ctx.Err() != nil {
		return StateInProgress, "", ctx.Err()
	}
	if err != nil {
		sess.addIssues(issues...)
		sess.addIssues(model.Issue{
			Page:     pageURL,
			Type:     model.TypeCrawlFailed,
			Details:  err.Error(),
			Severity: model.SeverityHigh,
		})
		return StateFailed, "", nil
	}

	sess.addIssues(issues...)
	sess.markNavChecked(links)
	children := s.commitLinks(sess, pageURL, links)
	work.pushChildren(children, depth+1)
	return StateCompleted, "", nil
}

// extractLinks reads the anchors of doc and flags navigation links. A nav
// link is repeated when an earlier committed page or an earlier anchor of
// this page already carried it. The session is not modified.
func (s *Spider) extractLinks(doc browser.Document, sess *Session) ([]pipeline.Link, error) {
	anchors, err := doc.QueryAll(pipeline.SelectorLinks)
	if err != nil {
		return nil, err
	}

	navHrefs := mapset.NewThreadUnsafeSet[string]()
	if s.skipRepeatedNav {
		navAnchors, err := doc.QueryAll(s.navSelector)
		if err != nil {
			s.logger.Warn("invalid nav selector", "selector", s.navSelector, "error", err)
		}
		for _, a := range navAnchors {
			navHrefs.Add(weburl.StripFragment(a.Href))
		}
	}

	pageNav := mapset.NewThreadUnsafeSet[string]()
	links := make([]pipeline.Link, 0, len(anchors))
	for _, a := range anchors {
		if a.Href == "" {
			continue
		}
		href := weburl.StripFragment(a.Href)
		if weburl.IsHTTP(href) {
			normalized, err := weburl.Normalize(href)
			if err != nil {
				s.logger.Debug("skipping malformed link", "href", a.RawHref, "error", err)
				continue
			}
			href = normalized
		}

		link := pipeline.Link{
			Href:    href,
			RawHref: a.RawHref,
			Text:    a.Text,
			Nav:     navHrefs.Contains(href),
		}
		if link.Nav {
			link.Repeated = sess.navChecked.Contains(href) || !pageNav.Add(href)
		}
		links = append(links, link)
	}
	return links, nil
}

// commitLinks records the page's outbound links in the graph and returns
// the internal URLs to queue, in document order without repeats.
func (s *Spider) commitLinks(sess *Session, pageURL string, links []pipeline.Link) []string {
	queued := mapset.NewThreadUnsafeSet[string]()
	children := make([]string, 0, len(links))
	for _, link := range links {
		if !weburl.IsHTTP(link.Href) {
			continue
		}
		sess.graph.AddLinks(pageURL, link.Href)

		if !weburl.IsInternal(link.Href, s.siteHostname) || s.excluded(link.Href) {
			continue
		}
		if sess.IsVisited(link.Href) || !queued.Add(link.Href) {
			continue
		}
		sess.discovered.Add(link.Href)
		children = append(children, link.Href)
	}
	return children
}

func (s *Spider) excluded(u string) bool {
	if s.exclusions.Match(u) {
		return true
	}
	return s.robots != nil && !s.robots.Allowed(u)
}

// failureIssue classifies a navigation error.
func failureIssue(pageURL string, err error) model.Issue {
	if browser.IsTimeout(err) {
		return model.Issue{
			Page:     pageURL,
			Type:     model.TypeTimeoutExceeded,
			Details:  err.Error(),
			Severity: model.SeverityMedium,
		}
	}
	return model.Issue{
		Page:     pageURL,
		Type:     model.TypeCrawlFailed,
		Details:  err.Error(),
		Severity: model.SeverityHigh,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
