package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/toolstrap/internal/journal"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the last bootstrap run did",
	Long: `Display the most recent orchestration run from the journal.

Shows:
  • When the run started and how it ended
  • Every probe result the run recorded
  • Every install attempt, with strategy, exit code and diagnostic

This command helps understand why a bootstrap failed without re-running it.`,
	Example: `  # Show the last run
  toolstrap status`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := getJournalPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No journal yet. Run 'toolstrap install' first.")
		return nil
	}

	store, err := journal.New(path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer store.Close()

	run, err := store.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("No runs recorded yet. Run 'toolstrap install' first.")
		return nil
	}

	fmt.Printf("Last run: profile %q, started %s\n", run.Profile, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	switch run.Status {
	case journal.StatusSucceeded:
		fmt.Printf("Status:   ✓ %s\n", run.Status)
	case journal.StatusFailed:
		fmt.Printf("Status:   ✗ %s\n", run.Status)
	default:
		fmt.Printf("Status:   %s (interrupted?)\n", run.Status)
	}
	fmt.Println()

	probes, err := store.RunProbes(run.ID)
	if err != nil {
		return err
	}
	if len(probes) > 0 {
		fmt.Println("Probes:")
		for _, p := range probes {
			if p.Found {
				version := p.Version
				if version == "" {
					version = "version unknown"
				}
				fmt.Printf("  %-12s %-4s found %s (%s)\n", p.Dependency, p.Phase, p.Path, version)
			} else {
				fmt.Printf("  %-12s %-4s not found\n", p.Dependency, p.Phase)
			}
		}
		fmt.Println()
	}

	attempts, err := store.RunAttempts(run.ID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("No install attempts were needed.")
		return nil
	}

	fmt.Println("Install attempts:")
	for _, a := range attempts {
		if a.Succeeded {
			fmt.Printf("  ✓ %-12s %s\n", a.Dependency, a.Strategy)
		} else {
			fmt.Printf("  ✗ %-12s %s (exit %d)\n", a.Dependency, a.Strategy, a.ExitCode)
			if a.Diagnostic != "" {
				fmt.Printf("      %s\n", a.Diagnostic)
			}
		}
	}
	return nil
}
