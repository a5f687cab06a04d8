package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kitstrap",
		Short: "Kitstrap - Framework Component Installer",
		Long: `Kitstrap installs framework components into a target environment through
a plugin pipeline ordered by declared dependencies.

Features:
  - Dependency-ordered plugin installation with priority tie-breaking
  - Post-install verification across all components
  - Best-effort rollback of a failed installation
  - Snapshot backup and restore of the target environment
  - Rego policy gating of the install plan
  - SQLite-backed install history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kitstrap.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand(version))
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newRollbackCommand())
	rootCmd.AddCommand(newPluginsCommand())
	rootCmd.AddCommand(newBackupCommand())
	rootCmd.AddCommand(newRestoreCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
