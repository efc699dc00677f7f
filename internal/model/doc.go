// Package model holds the audit data shared by the crawler, the checks,
// the report writers and the history store.
//
// An Issue is one finding on a page, ranked by Severity. The Graph maps each
// crawled page to its outbound links in document order. A Report bundles
// both with the run counters and round-trips through JSON.
package model
