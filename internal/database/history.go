package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/siteaudit/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "siteaudit.db"

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no audit run has the requested ID.
var ErrRunNotFound = errors.New("audit run not found")

// HistoryDB provides SQLite-based storage for audit runs.
// Each run keeps its full report as JSON plus one row per issue, so history
// listings and per-type trends never need to decode the report.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per audit run
	CREATE TABLE IF NOT EXISTS audit_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		discovered_urls INTEGER NOT NULL DEFAULT 0,
		total_issues INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0,
		severity_summary TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON audit_runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON audit_runs(timestamp);

	-- Issues of every run, for trend queries
	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		page TEXT NOT NULL,
		link TEXT,
		type TEXT NOT NULL,
		details TEXT,
		severity TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_type ON issues(type);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary contains summary information about a stored audit run.
// It is used for displaying history without loading the full report.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// StartURL is the audited start URL.
	StartURL string `json:"startUrl"`

	// Timestamp is when the report was built.
	Timestamp time.Time `json:"timestamp"`

	// Duration is the crawl wall-clock time.
	Duration time.Duration `json:"duration"`

	// PagesCrawled is the number of pages visited.
	PagesCrawled int `json:"pagesCrawled"`

	// DiscoveredURLs is the number of distinct internal URLs seen.
	DiscoveredURLs int `json:"discoveredUrls"`

	// TotalIssues is the number of issues recorded.
	TotalIssues int `json:"totalIssues"`

	// Interrupted is true when the crawl was stopped early.
	Interrupted bool `json:"interrupted"`

	// SeveritySummary contains counts of issues by severity name.
	SeveritySummary map[string]int `json:"severitySummary"`
}

// SaveReport stores report and its issues in one transaction and returns the new run ID.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (id int64, err error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	severitySummary := make(map[string]int, len(model.Severities))
	for _, s := range model.Severities {
		severitySummary[s.String()] = 0
	}
	for s, n := range report.SeverityCounts() {
		severitySummary[s.String()] = n
	}
	summaryJSON, _ := json.Marshal(severitySummary) //nolint:errcheck,errchkjson // map[string]int always marshals

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO audit_runs (start_url, timestamp, duration_ms, pages_crawled, discovered_urls,
		total_issues, interrupted, severity_summary, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.StartURL,
		report.Timestamp.UTC().Format(timestampLayout),
		report.Duration.Milliseconds(),
		report.PagesCrawled,
		report.DiscoveredURLs,
		report.TotalIssues,
		report.Interrupted,
		string(summaryJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit run: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO issues (run_id, page, link, type, details, severity)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for _, issue := range report.Issues {
		if _, err = stmt.ExecContext(ctx, id, issue.Page, issue.Link, issue.Type, issue.Details, issue.Severity.String()); err != nil {
			return 0, fmt.Errorf("failed to save issue: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit audit run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first. An empty startURL lists
// runs of every site; a limit of zero or less means no limit.
func (hdb *HistoryDB) ListRuns(ctx context.Context, startURL string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, start_url, timestamp, duration_ms, pages_crawled, discovered_urls,
		total_issues, interrupted, severity_summary
	FROM audit_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if startURL != "" {
		query += " AND start_url = ?"
		args = append(args, startURL)
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			run         RunSummary
			timestamp   string
			durationMS  int64
			summaryJSON sql.NullString
		)
		if err := rows.Scan(
			&run.ID,
			&run.StartURL,
			&timestamp,
			&durationMS,
			&run.PagesCrawled,
			&run.DiscoveredURLs,
			&run.TotalIssues,
			&run.Interrupted,
			&summaryJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}

		run.Timestamp = parseTimestamp(timestamp)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.SeveritySummary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &run.SeveritySummary); err != nil {
				run.SeveritySummary = make(map[string]int)
			}
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetReport retrieves a stored report by its run ID.
func (hdb *HistoryDB) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, "SELECT report_json FROM audit_runs WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit run: %w", err)
	}
	return decodeReport(reportJSON)
}

// GetLatestReport retrieves the most recent report for startURL together
// with its run ID.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, startURL string) (int64, *model.Report, error) {
	query := `
	SELECT id, report_json FROM audit_runs
	WHERE start_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var (
		id         int64
		reportJSON string
	)
	err := hdb.db.QueryRowContext(ctx, query, startURL).Scan(&id, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("%w: no run for %s", ErrRunNotFound, startURL)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get audit run: %w", err)
	}
	report, err := decodeReport(reportJSON)
	if err != nil {
		return 0, nil, err
	}
	return id, report, nil
}

// ListStartURLs returns every audited start URL in alphabetical order.
func (hdb *HistoryDB) ListStartURLs(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, "SELECT DISTINCT start_url FROM audit_runs ORDER BY start_url")
	if err != nil {
		return nil, fmt.Errorf("failed to list start URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan start URL: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// IssueCountsByType returns the issue counts of run id, highest count first.
func (hdb *HistoryDB) IssueCountsByType(ctx context.Context, id int64) ([]model.TypeCount, error) {
	query := `
	SELECT type, COUNT(*) AS n FROM issues
	WHERE run_id = ?
	GROUP BY type
	ORDER BY n DESC, type ASC
	`

	rows, err := hdb.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}
	defer rows.Close()

	var counts []model.TypeCount
	for rows.Next() {
		var tc model.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan issue count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// DeleteRun removes run id and its issues.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM issues WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete issues: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM audit_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete audit run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	return tx.Commit()
}

func decodeReport(reportJSON string) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if report.Graph == nil {
		report.Graph = model.NewGraph()
	}
	if report.IssuesByType == nil {
		report.IssuesByType = make(map[string]int)
	}
	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries every known format and returns the zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
