package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden at link time with -ldflags "-X main.version=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo identifies the running binary.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// currentBuild reports the linker values, falling back to the module and
// VCS metadata embedded by the go command.
func currentBuild() buildInfo {
	info, _ := debug.ReadBuildInfo()
	return resolveBuild(buildInfo{Version: version, Commit: commit, Date: date}, info)
}

func resolveBuild(linked buildInfo, info *debug.BuildInfo) buildInfo {
	b := buildInfo{Version: "(devel)", Commit: "unknown", Date: "unknown"}
	if info != nil {
		if info.Main.Version != "" {
			b.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Commit = s.Value
				if len(b.Commit) > 7 {
					b.Commit = b.Commit[:7]
				}
			case "vcs.time":
				b.Date = s.Value
			}
		}
	}
	if linked.Version != "" {
		b.Version = linked.Version
	}
	if linked.Commit != "" {
		b.Commit = linked.Commit
	}
	if linked.Date != "" {
		b.Date = linked.Date
	}
	return b
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of siteaudit.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			b := currentBuild()
			fmt.Fprintf(cmd.OutOrStdout(), "siteaudit version %s\n  commit: %s\n  built:  %s\n",
				b.Version, b.Commit, b.Date)
		},
	}
}
