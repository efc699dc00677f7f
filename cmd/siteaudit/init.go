package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/siteaudit.yaml
var configTemplate []byte

var errConfigExists = errors.New("configuration file already exists")

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Init writes a commented .siteaudit.yaml holding every option at its
default value. Edit the start URL, exclusions and checks, then run
'siteaudit audit'.

Examples:
  siteaudit init
  siteaudit init -o staging.yaml
  siteaudit init -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			if err := writeConfigTemplate(path, force); err != nil {
				if errors.Is(err, errConfigExists) {
					return fmt.Errorf("%w: %s (use -f to overwrite)", err, path)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path of the file to create")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing file")
	return cmd
}

// writeConfigTemplate writes the embedded template to path, creating parent
// directories. The file is private to the user since it may carry headers
// with credentials.
func writeConfigTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errConfigExists
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, configTemplate, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
