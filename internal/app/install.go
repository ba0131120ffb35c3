package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/toolstrap/internal/assets"
	"github.com/blackwell-systems/toolstrap/internal/config"
	"github.com/blackwell-systems/toolstrap/internal/elevate"
	"github.com/blackwell-systems/toolstrap/internal/envpath"
	"github.com/blackwell-systems/toolstrap/internal/installer"
	"github.com/blackwell-systems/toolstrap/internal/journal"
	"github.com/blackwell-systems/toolstrap/internal/output"
	"github.com/blackwell-systems/toolstrap/internal/probe"
	"github.com/blackwell-systems/toolstrap/internal/shell"
	"github.com/spf13/cobra"
)

// settleTimeout bounds the post-install wait for an installed binary to
// appear before the verification re-probe.
const settleTimeout = 10 * time.Second

var installSkipExisting bool

var installCmd = &cobra.Command{
	Use:   "install [profile]",
	Short: "Resolve all dependencies and install the target CLI",
	Long: `Runs the complete bootstrap for the given profile (default profile when
none is named).

Steps performed:
  1. Resolve each dependency in order: probe, install if needed, verify
  2. Install the target CLI through its own strategy cascade
  3. Fetch configuration assets into the user config tree

Exit code 0 means every dependency resolved and the target CLI verified;
exit code 1 means a dependency could not be resolved or the target install
failed after all methods were exhausted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installSkipExisting, "skip-existing", true, "leave already-present asset files untouched")
	RootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(args)
	if err != nil {
		return err
	}

	fmt.Printf("toolstrap: bootstrapping profile %q\n\n", profile.Name)

	// The journal is best effort: a machine broken enough to refuse the
	// journal database must still be bootstrappable.
	var recorder *journal.Recorder
	if path, jerr := getJournalPath(); jerr == nil {
		if store, jerr := journal.New(path); jerr == nil {
			defer store.Close()
			if rec, jerr := store.BeginRun(profile.Name); jerr == nil {
				recorder = rec
			}
		} else {
			fmt.Fprintf(os.Stderr, "warning: journal unavailable: %v\n", jerr)
		}
	}

	orch := buildOrchestrator(profile, recorder)

	runErr := orch.Run(context.Background())

	if recorder != nil {
		status := journal.StatusSucceeded
		if runErr != nil {
			status = journal.StatusFailed
		}
		if ferr := recorder.Finish(status); ferr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", ferr)
		}
	}

	if runErr != nil {
		return fmt.Errorf("bootstrap failed: %w", runErr)
	}
	return nil
}

// buildOrchestrator wires the production collaborators: real prober, real
// subprocess runner, the platform package manager, the single-shot
// escalator, and the environment snapshot refresh between install and
// verification.
func buildOrchestrator(profile *config.Profile, recorder *journal.Recorder) *installer.Orchestrator {
	cache := installer.NewCache()
	runner := spinnerRunner{inner: installer.ExecRunner{}}
	escalator := elevate.New()
	manager := installer.DetectManager()
	prober := probe.New()
	relaunchArgs := os.Args[1:]

	resolver := &installer.Resolver{
		Prober: prober,
		Refresh: func() error {
			return envpath.Capture().Refresh()
		},
		Await: func(ctx context.Context, dep config.Dependency) {
			dirs := append([]string{}, dep.CandidateDirs...)
			dirs = append(dirs, envpath.Capture().Entries()...)
			envpath.AwaitBinary(ctx, dirs, dep.Exe, settleTimeout)
		},
		Persist: persistResolved,
	}
	if recorder != nil {
		resolver.Journal = recorder
	}

	return &installer.Orchestrator{
		Profile:              profile,
		Resolve:              resolver.Resolve,
		DependencyStrategies: installer.NewDependencyStrategies(manager, cache, runner, escalator, relaunchArgs),
		TargetStrategies:     installer.NewTargetStrategies(manager, cache, runner, escalator, relaunchArgs),
		FetchAssets: func(ctx context.Context) error {
			return fetchProfileAssets(ctx, profile, installSkipExisting)
		},
		Manager: manager,
		Out:     os.Stdout,
	}
}

// spinnerRunner wraps the subprocess runner with a spinner so long installer
// waits show signs of life on a terminal.
type spinnerRunner struct {
	inner installer.Runner
	// out overrides the spinner's writer when set.
	out io.Writer
}

func (r spinnerRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	sp := output.NewSpinner("Running " + filepath.Base(name))
	if r.out != nil {
		sp.SetWriter(r.out)
	}
	sp.Start()
	defer sp.Stop()
	return r.inner.Run(ctx, name, args...)
}

// persistResolved makes a verified binary reachable for later processes: its
// directory goes on PATH, and the profile's named env var records the exact
// path. Called by the resolver only when the binary is not already
// PATH-reachable.
func persistResolved(dep config.Dependency, path string) error {
	dir := filepath.Dir(path)
	added, pathConfig, err := shell.EnsurePathEntry(dir)
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("  ✓ Added %s to PATH (%s)\n", dir, pathConfig)
	}

	configFile, err := shell.PersistEnvVar(dep.PersistEnv, path)
	if err != nil {
		return err
	}
	fmt.Printf("  ✓ Persisted %s=%s (%s)\n", dep.PersistEnv, path, configFile)
	return nil
}

// fetchProfileAssets runs the asset-fetch collaborator with a progress bar
// and reports per-file failures.
func fetchProfileAssets(ctx context.Context, profile *config.Profile, skipExisting bool) error {
	list := profile.ExpandAssetDir()
	bar := output.NewProgress(len(list), "Fetching assets")

	results := assets.Fetch(ctx, nil, list, skipExisting)
	for range results {
		bar.Increment()
	}
	bar.Finish()

	failed := assets.Failed(results)
	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", f.Asset.URL, f.Err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d assets failed", len(failed), len(list))
	}
	return nil
}
