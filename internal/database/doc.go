// Package database provides SQLite-based storage for audit history.
//
// Every audit run is stored with:
//   - Its summary counters (pages crawled, issues, interrupted flag)
//   - The complete report as JSON, so any past run can be re-rendered
//   - One row per issue, for per-type trend queries
//
// The database is a single file (siteaudit.db) in the XDG data directory,
// opened with modernc.org/sqlite, a CGO-free driver.
package database
