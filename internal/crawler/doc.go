// Package crawler provides the crawl traversal engine of siteaudit.
//
// # Architecture
//
// The crawler package is designed around the Spider type, which drives a
// browser.Browser through the site. It processes an explicit work-list of
// (url, depth) items instead of recursing, so the visiting order is a
// policy (depth-first or breadth-first) rather than an artifact of the call
// stack.
//
// All mutable crawl state lives in a Session: the visited set, the link
// graph, the recorded issues, the navigation link registry and the progress
// counters. The Spider is the only writer, and it runs one navigation at a
// time, so the Session needs no locking.
//
// # Item states
//
// Each dequeued item ends in exactly one state:
//
//   - Excluded: matches an exclusion URL or pattern (or robots.txt)
//   - Duplicate: its normalized URL was already visited
//   - DepthCut: its depth exceeds the maximum
//   - Completed: the page was audited, or it redirected and the final URL
//     was queued at the same depth
//   - Failed: navigation failed after retries; an issue is recorded
//
// # Politeness
//
// The crawler is designed to be polite:
//   - A fixed delay is observed before every navigation
//   - robots.txt can be honoured (optional)
//   - Links are checked one at a time, never in parallel
//
// # Interruption
//
// Cancelling the context stops the crawl at the next suspension point. A
// page whose processing is interrupted is discarded as a whole, so the
// Session only ever holds fully processed pages.
//
// # Usage
//
//	spider, err := crawler.NewSpider(b, p, "https://example.com", crawler.WithMaxDepth(3))
//	session, err := spider.Crawl(ctx, seeds)
//	report := session.Report("https://example.com")
package crawler
