package app

import (
	"github.com/spf13/cobra"
)

var (
	journalPath string

	// RootCmd is the root command for toolstrap
	RootCmd = &cobra.Command{
		Use:   "toolstrap",
		Short: "Bootstrap a tool-chain on an arbitrary machine",
		Long: `toolstrap checks whether each tool-chain dependency (version control,
managed runtime, target CLI) is already present at an acceptable version
and, if not, drives it through a cascade of installation strategies until
one succeeds or all are exhausted:

  1. Package manager, user scope (no elevation)
  2. Package manager, machine scope (relaunches elevated, once)
  3. Direct download of the vendor installer

Quick Start:
  1. toolstrap doctor       # see what is already installed
  2. toolstrap install      # bootstrap with the default profile
  3. toolstrap status       # review what the last run did

Named profiles live in ~/.toolstrap/profiles/<name>.yaml:
  toolstrap install myteam

Examples:
  # Probe only, install nothing
  toolstrap doctor

  # Full bootstrap, default profile
  toolstrap install

  # Re-fetch configuration assets, keeping existing files
  toolstrap assets --skip-existing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "journal database path (default: ~/.toolstrap/journal.db)")
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
