package main

import (
	"os"

	"github.com/spf13/cobra"
)

const rootLong = `siteaudit crawls a website and reports quality issues:
broken links, HTTP errors, missing titles and meta descriptions, H1 problems,
placeholder text, images without alt text, slow pages and malformed tel: links.

Reports are written as JSON, CSV, HTML and Markdown, and every run is kept
in a local history database.`

// NewRootCmd assembles the siteaudit command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "siteaudit",
		Short:         "Website audit crawler",
		Long:          rootLong,
		Version:       currentBuild().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	root.AddCommand(
		NewAuditCmd(),
		NewCompareCmd(),
		NewHistoryCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)
	return root
}

// Execute runs the command tree and exits with status 1 on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
