package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/siteaudit/internal/database"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

const (
	trendImproved  = "improved"
	trendWorsened  = "worsened"
	trendUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <start-url>",
		Short: "Compare the latest audit run of a site with an earlier one",
		Long: `Compare shows how the issues of a site changed between two stored runs:
severity and per-type deltas, issues that appeared and issues that were fixed.

By default the latest run is compared with the run before it.

Examples:
  # Latest run against the previous one
  siteaudit compare https://example.com/

  # Latest run against run 7
  siteaudit compare --with-id 7 https://example.com/

  # Machine readable output
  siteaudit compare --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with this run instead of the previous one")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := compareLatest(cmd.Context(), db, args[0], withID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printComparison(cmd.OutOrStdout(), result)
	return nil
}

// runRef identifies one side of a comparison.
type runRef struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Pages       int       `json:"pagesCrawled"`
	TotalIssues int       `json:"totalIssues"`
	Interrupted bool      `json:"interrupted"`
}

// countDelta is a before/after pair for one severity or issue type.
type countDelta struct {
	Name     string `json:"name"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

func (d countDelta) delta() int { return d.Current - d.Previous }

// comparison is the difference between two runs of one site.
type comparison struct {
	StartURL   string        `json:"startUrl"`
	Previous   runRef        `json:"previous"`
	Current    runRef        `json:"current"`
	Trend      string        `json:"trend"`
	Severities []countDelta  `json:"severities"`
	Types      []countDelta  `json:"types"`
	New        []model.Issue `json:"newIssues"`
	Fixed      []model.Issue `json:"fixedIssues"`
	Unchanged  int           `json:"unchanged"`
}

// compareLatest loads the latest run of startURL and the run it is compared
// with: withID when positive, otherwise the run before the latest.
func compareLatest(ctx context.Context, db *database.HistoryDB, startURL string, withID int64) (*comparison, error) {
	currentID, current, err := db.GetLatestReport(ctx, startURL)
	if err != nil {
		return nil, err
	}

	previousID := withID
	if previousID <= 0 {
		runs, err := db.ListRuns(ctx, startURL, 2)
		if err != nil {
			return nil, err
		}
		if len(runs) < 2 {
			return nil, fmt.Errorf("at least 2 runs of %s are required for comparison (found %d)", startURL, len(runs))
		}
		previousID = runs[1].ID
	}
	if previousID == currentID {
		return nil, errors.New("cannot compare a run with itself")
	}

	previous, err := db.GetReport(ctx, previousID)
	if err != nil {
		return nil, err
	}
	if previous.StartURL != startURL {
		return nil, fmt.Errorf("run %d audited %s, not %s", previousID, previous.StartURL, startURL)
	}

	previousCounts, err := db.IssueCountsByType(ctx, previousID)
	if err != nil {
		return nil, err
	}
	currentCounts, err := db.IssueCountsByType(ctx, currentID)
	if err != nil {
		return nil, err
	}

	result := compareReports(previous, current, previousCounts, currentCounts)
	result.Previous.ID = previousID
	result.Current.ID = currentID
	return result, nil
}

// compareReports diffs two reports. Issues are matched on page, link and
// type; details are ignored since they carry timings and error text.
func compareReports(previous, current *model.Report, previousCounts, currentCounts []model.TypeCount) *comparison {
	result := &comparison{
		StartURL: current.StartURL,
		Previous: refOf(previous),
		Current:  refOf(current),
	}

	prevSev, curSev := previous.SeverityCounts(), current.SeverityCounts()
	score := 0
	for _, s := range model.Severities {
		d := countDelta{Name: s.String(), Previous: prevSev[s], Current: curSev[s]}
		result.Severities = append(result.Severities, d)
		score += d.delta() * severityWeight(s)
	}
	switch {
	case score < 0:
		result.Trend = trendImproved
	case score > 0:
		result.Trend = trendWorsened
	default:
		result.Trend = trendUnchanged
	}

	result.Types = typeDeltas(previousCounts, currentCounts)

	before := make(map[string]int)
	for _, issue := range previous.Issues {
		before[issueKey(issue)]++
	}
	for _, issue := range current.Issues {
		key := issueKey(issue)
		if before[key] > 0 {
			before[key]--
			result.Unchanged++
			continue
		}
		result.New = append(result.New, issue)
	}
	for _, issue := range previous.Issues {
		key := issueKey(issue)
		if before[key] > 0 {
			before[key]--
			result.Fixed = append(result.Fixed, issue)
		}
	}
	return result
}

func refOf(r *model.Report) runRef {
	return runRef{
		Timestamp:   r.Timestamp,
		Pages:       r.PagesCrawled,
		TotalIssues: r.TotalIssues,
		Interrupted: r.Interrupted,
	}
}

func severityWeight(s model.Severity) int {
	switch s {
	case model.SeverityHigh:
		return 50
	case model.SeverityMedium:
		return 10
	default:
		return 1
	}
}

func issueKey(i model.Issue) string {
	return i.Page + "|" + i.Link + "|" + i.Type
}

// typeDeltas merges two per-type count lists, largest change first. Types
// whose count did not change are left out.
func typeDeltas(previous, current []model.TypeCount) []countDelta {
	byType := make(map[string]*countDelta)
	for _, tc := range previous {
		byType[tc.Type] = &countDelta{Name: tc.Type, Previous: tc.Count}
	}
	for _, tc := range current {
		d, ok := byType[tc.Type]
		if !ok {
			d = &countDelta{Name: tc.Type}
			byType[tc.Type] = d
		}
		d.Current = tc.Count
	}

	deltas := make([]countDelta, 0, len(byType))
	for _, d := range byType {
		if d.delta() != 0 {
			deltas = append(deltas, *d)
		}
	}
	sort.Slice(deltas, func(i, j int) bool {
		ai, aj := abs(deltas[i].delta()), abs(deltas[j].delta())
		if ai != aj {
			return ai > aj
		}
		return deltas[i].Name < deltas[j].Name
	})
	return deltas
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func printComparison(out io.Writer, c *comparison) {
	const layout = "2006-01-02 15:04:05"

	fmt.Fprintf(out, "Comparison for %s\n", c.StartURL)
	fmt.Fprintf(out, "  previous: run #%d  %s  %d pages\n", c.Previous.ID, c.Previous.Timestamp.Local().Format(layout), c.Previous.Pages)
	fmt.Fprintf(out, "  current:  run #%d  %s  %d pages\n", c.Current.ID, c.Current.Timestamp.Local().Format(layout), c.Current.Pages)
	fmt.Fprintf(out, "\nTrend: %s\n\n", c.Trend)

	sev := table.New("Severity", "Previous", "Current", "Change").WithWriter(out)
	for _, d := range c.Severities {
		sev.AddRow(d.Name, d.Previous, d.Current, signed(d.delta()))
	}
	sev.AddRow("total", c.Previous.TotalIssues, c.Current.TotalIssues, signed(c.Current.TotalIssues-c.Previous.TotalIssues))
	sev.Print()

	if len(c.Types) > 0 {
		fmt.Fprintln(out)
		types := table.New("Issue Type", "Previous", "Current", "Change").WithWriter(out)
		for _, d := range c.Types {
			types.AddRow(d.Name, d.Previous, d.Current, signed(d.delta()))
		}
		types.Print()
	}

	if len(c.New) > 0 {
		fmt.Fprintf(out, "\nNew issues (%d):\n", len(c.New))
		for _, i := range c.New {
			fmt.Fprintf(out, "  [+] [%s] %s: %s\n", i.Severity, i.Type, issueTarget(i))
		}
	}
	if len(c.Fixed) > 0 {
		fmt.Fprintf(out, "\nFixed issues (%d):\n", len(c.Fixed))
		for _, i := range c.Fixed {
			fmt.Fprintf(out, "  [-] [%s] %s: %s\n", i.Severity, i.Type, issueTarget(i))
		}
	}
	fmt.Fprintf(out, "\nUnchanged: %d issues\n", c.Unchanged)
}

func issueTarget(i model.Issue) string {
	if i.Link != "" {
		return i.Page + " -> " + i.Link
	}
	return i.Page
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
