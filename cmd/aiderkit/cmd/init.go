package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/config"
)

func (a *app) newInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .aiderkit.yaml",
		Long: `Write a commented default configuration to .aiderkit.yaml in the current
directory, or the one given with --dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting current directory: %w", err)
				}
				dir = cwd
			}
			configPath := filepath.Join(dir, ".aiderkit.yaml")

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}
			if err := config.AtomicWrite(configPath, []byte(config.DefaultConfigYAML)); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", successStyle.Render("✓"), configPath)
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Next: aiderkit doctor"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	cmd.Flags().StringVar(&dir, "dir", "", "directory to write into (default: current directory)")
	return cmd
}
