package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/database"
	"github.com/nao1215/siteaudit/internal/log"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/pipeline"
	"github.com/nao1215/siteaudit/internal/report"
	"github.com/nao1215/siteaudit/internal/retry"
	"github.com/nao1215/siteaudit/internal/sitemap"
	"github.com/nao1215/siteaudit/internal/weburl"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [start-url]",
		Short: "Crawl a website and report quality issues",
		Long: `Audit crawls a website from its start URL and checks every page for:
- HTTP errors and broken links
- Missing or empty titles, meta descriptions and H1 tags
- Placeholder text left in content and links
- Images without alt text and slow page loads
- Malformed tel: links

Seeds come from the sitemap when available. Press Ctrl+C to stop early:
the pages audited so far are still reported.

Examples:
  # Audit a site with the settings from .siteaudit.yaml
  siteaudit audit

  # Audit a site two links deep, breadth-first
  siteaudit audit -d 2 --order breadth-first https://example.com/

  # Plain HTTP engine, CSV and Markdown only
  siteaudit audit --engine static --format csv,markdown https://example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAuditCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteaudit.yaml in current, XDG config or home directory)")

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth from the seed pages")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages to crawl (0 = no limit)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each navigation and link check")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Wait before every page navigation")
	cmd.Flags().Bool("no-sitemap", false,
		"Start from the start URL only, without reading the sitemap")
	cmd.Flags().String("engine", config.DefaultEngine,
		"Rendering engine: playwright or static")
	cmd.Flags().String("order", config.DefaultCrawlOrder,
		"Crawl order: depth-first or breadth-first")
	cmd.Flags().Bool("respect-robots", false,
		"Skip URLs disallowed by robots.txt")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory for the report files")
	cmd.Flags().StringSlice("format", nil,
		"Report formats: json, graph, csv, html, markdown (default: all)")
	cmd.Flags().Bool("no-history", false,
		"Do not save this run in the history database")
	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON lines")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose, jsonLogs)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout())
}

// newLogger builds the redacting logger in text or JSON form.
func newLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return log.NewJSONLogger(w, verbose)
	}
	return log.NewLogger(w, verbose)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig loads the configuration file and applies the flags that were set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.RequestDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-sitemap") {
		noSitemap, err := flags.GetBool("no-sitemap")
		if err != nil {
			return nil, err
		}
		cfg.UseSitemap = !noSitemap
	}
	if flags.Changed("engine") {
		if cfg.Engine, err = flags.GetString("engine"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("order") {
		if cfg.CrawlOrder, err = flags.GetString("order"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("respect-robots") {
		if cfg.RespectRobots, err = flags.GetBool("respect-robots"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("format") {
		if cfg.Formats, err = flags.GetStringSlice("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveHistory = !noHistory
	}

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runAudit crawls the site and writes every report. Only a browser launch
// failure aborts the run; an interrupted crawl is reported like a finished one.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	formats, err := report.ParseFormats(cfg.Formats)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if len(formats) == 0 {
		formats = report.AllFormats()
	}
	order, err := crawler.ParseOrder(cfg.CrawlOrder)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = browser.DefaultUserAgent
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	logger.Info("starting audit",
		"startUrl", cfg.StartURL,
		"engine", cfg.Engine,
		"maxDepth", cfg.MaxDepth,
		"order", order.String(),
	)

	seeds := []string{cfg.StartURL}
	if cfg.UseSitemap {
		resolver := sitemap.NewResolver(
			sitemap.WithHTTPClient(httpClient),
			sitemap.WithUserAgent(userAgent),
			sitemap.WithLogger(logger),
		)
		seeds = resolver.Seeds(ctx, cfg.StartURL, cfg.SitemapURL)
	}
	fmt.Fprintf(out, "Auditing %s (%d seed URLs)...\n", cfg.StartURL, len(seeds))

	b, err := browser.New(strings.ToLower(cfg.Engine), browser.Options{
		UserAgent: userAgent,
		Headers:   cfg.Headers,
		Headed:    cfg.Headed,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	retryPolicy := retry.Policy{MaxAttempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay}
	exclusions := weburl.NewMatcher(cfg.ExcludeURLs, cfg.ExcludePatterns)

	p := pipeline.DefaultPipeline(pipeline.Settings{
		Checks:            pipeline.Checks(cfg.Checks),
		Placeholders:      cfg.Placeholders,
		TelCountryCodes:   cfg.TelCountryCodes,
		SlowPageThreshold: cfg.SlowPageThreshold,
		LinkTimeout:       cfg.Timeout,
		Retry:             retryPolicy,
		Exclusions:        exclusions,
		Logger:            logger,
	}, b, pipeline.WithContinueOnError(true))

	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.RequestDelay),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithRetryPolicy(retryPolicy),
		crawler.WithExclusions(exclusions),
		crawler.WithNavDedup(cfg.SkipRepeatedNavLinks, cfg.NavSelector),
		crawler.WithOrder(order),
		crawler.WithLogger(logger),
		crawler.WithVisitHook(progressPrinter(out)),
	}
	if cfg.RespectRobots {
		robots, err := crawler.LoadRobots(ctx, httpClient, cfg.StartURL, userAgent)
		if err != nil {
			logger.Warn("robots.txt ignored", "error", err)
		} else {
			spiderOpts = append(spiderOpts, crawler.WithRobots(robots))
		}
	}

	spider, err := crawler.NewSpider(b, p, cfg.StartURL, spiderOpts...)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	sess, crawlErr := spider.Crawl(ctx, seeds)
	if crawlErr != nil && !errors.Is(crawlErr, context.Canceled) && !errors.Is(crawlErr, context.DeadlineExceeded) {
		logger.Error("crawl stopped", "error", crawlErr)
	}
	auditReport := sess.Report(cfg.StartURL)

	// The crawl context may be cancelled; saving must still complete.
	saveCtx := context.WithoutCancel(ctx)
	return finishAudit(saveCtx, cfg, auditReport, formats, logger, out)
}

// finishAudit prints the summary, writes the report files and records the run.
func finishAudit(ctx context.Context, cfg *config.Config, auditReport *model.Report, formats []report.Format, logger *slog.Logger, out io.Writer) error {
	if auditReport.Interrupted {
		fmt.Fprintln(out, "\nCrawl interrupted. Generating report with the pages audited so far.")
	}

	if _, err := report.NewSummaryWriter(out).Write(auditReport); err != nil {
		logger.Error("failed to print summary", "error", err)
	}

	artifacts, err := report.SaveArtifacts(ctx, cfg.OutputDir, auditReport, formats)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	for _, a := range artifacts {
		fmt.Fprintf(out, "%-9s report saved to %s\n", a.Format, a.Path)
	}

	if cfg.SaveHistory {
		if err := saveHistory(ctx, cfg.DBDir, auditReport, logger, out); err != nil {
			logger.Error("failed to save audit history", "error", err)
		}
	}
	return nil
}

// saveHistory stores the report in the history database in dbDir.
func saveHistory(ctx context.Context, dbDir string, auditReport *model.Report, logger *slog.Logger, out io.Writer) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveReport(ctx, auditReport)
	if err != nil {
		return err
	}
	logger.Debug("audit run saved", "id", id, "db", db.Path())
	fmt.Fprintf(out, "Run #%d saved to history\n", id)
	return nil
}

// progressPrinter returns a visit hook that prints one line per audited page.
func progressPrinter(out io.Writer) func(crawler.Visit) {
	return func(v crawler.Visit) {
		switch v.State {
		case crawler.StateCompleted:
			if v.RedirectedTo != "" {
				fmt.Fprintf(out, "  [depth %d] %s -> %s\n", v.Depth, v.URL, v.RedirectedTo)
				return
			}
			fmt.Fprintf(out, "  [depth %d] %s\n", v.Depth, v.URL)
		case crawler.StateFailed:
			fmt.Fprintf(out, "  [depth %d] %s (failed)\n", v.Depth, v.URL)
		default:
		}
	}
}
