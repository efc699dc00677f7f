package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/database"
	"github.com/nao1215/siteaudit/internal/report"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [start-url]",
		Short: "Show past audit runs",
		Long: `History lists the audit runs saved in the local history database.

Without arguments, the most recent runs of every site are listed.
With a start URL, only the runs of that site are listed.

Examples:
  # List recent runs
  siteaudit history

  # List the runs of one site
  siteaudit history https://example.com/

  # Show one run in full
  siteaudit history --id 12

  # Output the run list as JSON
  siteaudit history --json

  # List every audited site
  siteaudit history --list-sites

  # Remove a run
  siteaudit history --delete 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Show the full report of the run with this ID")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List every audited start URL")
	cmd.Flags().Int64("delete", 0,
		"Delete the run with this ID")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// openHistory opens the database named by --db-dir, or the one in the XDG
// data directory.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case deleteID > 0:
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run #%d\n", deleteID)
		return nil
	case listSites:
		return listAuditedSites(ctx, db, out, jsonOutput)
	case id > 0:
		return showRun(ctx, db, out, id, jsonOutput)
	default:
		startURL := ""
		if len(args) > 0 {
			startURL = args[0]
		}
		return listRuns(ctx, db, out, startURL, limit, jsonOutput)
	}
}

// listAuditedSites prints every start URL found in the database.
func listAuditedSites(ctx context.Context, db *database.HistoryDB, out io.Writer, jsonOutput bool) error {
	sites, err := db.ListStartURLs(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, sites)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No audited sites found in the database.")
		fmt.Fprintln(out, "\nUse 'siteaudit audit <start-url>' to audit a site.")
		return nil
	}

	fmt.Fprintf(out, "Audited sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	return nil
}

// listRuns prints the run table, newest first.
func listRuns(ctx context.Context, db *database.HistoryDB, out io.Writer, startURL string, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, startURL, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []database.RunSummary{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		if startURL != "" {
			fmt.Fprintf(out, "No audit history found for %s\n", startURL)
		} else {
			fmt.Fprintln(out, "No audit history found.")
		}
		fmt.Fprintln(out, "\nUse 'siteaudit audit <start-url>' to audit a site.")
		return nil
	}

	tbl := table.New("ID", "Date", "Start URL", "Pages", "Issues", "Severity", "Status").WithWriter(out)
	for _, run := range runs {
		status := "complete"
		if run.Interrupted {
			status = "interrupted"
		}
		tbl.AddRow(
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.StartURL,
			run.PagesCrawled,
			run.TotalIssues,
			formatSeveritySummary(run.SeveritySummary),
			status,
		)
	}
	tbl.Print()

	fmt.Fprintln(out, "\nUse 'siteaudit history --id <id>' to show a run in full.")
	return nil
}

// showRun prints one stored report.
func showRun(ctx context.Context, db *database.HistoryDB, out io.Writer, id int64, jsonOutput bool) error {
	auditReport, err := db.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if jsonOutput {
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).Write(auditReport)
		return err
	}

	fmt.Fprintf(out, "Run #%d\n", id)
	_, err = report.NewSummaryWriter(out, report.WithIssueList(true)).Write(auditReport)
	return err
}

// formatSeveritySummary formats severity counts as "H:1 M:2 L:0".
func formatSeveritySummary(summary map[string]int) string {
	if len(summary) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, 3)
	for _, name := range []string{"high", "medium", "low"} {
		parts = append(parts, fmt.Sprintf("%s:%d", strings.ToUpper(name[:1]), summary[name]))
	}
	return strings.Join(parts, " ")
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
