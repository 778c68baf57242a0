// Package main provides the entry point for the strata CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/strata/cmd/strata/commands"
	"github.com/Sumatoshi-tech/strata/pkg/version"
)

var (
	configPath string
	quiet      bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Strata - line classification history for source trees",
		Long: `Strata classifies source lines into typed runs and tracks how those
runs evolve across git history.

Commands:
  scan      Classify a working tree and print the distribution
  history   Walk first-parent history into a revision log`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .strata.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "strata %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
