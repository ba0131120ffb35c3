package installer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// ResolveFunc resolves one dependency through a strategy cascade.
type ResolveFunc func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error)

// Orchestrator runs the resolver over the profile's dependency list in
// declared order, then the target-CLI cascade, then the asset fetch
// collaborator. Execution is single-threaded and fully synchronous: each
// dependency may assume every earlier one is present.
type Orchestrator struct {
	Profile *config.Profile
	Resolve ResolveFunc
	// DependencyStrategies builds the fixed cascade for a regular
	// dependency: package-manager user scope, package-manager machine
	// scope, direct download.
	DependencyStrategies func(dep config.Dependency) []Strategy
	// TargetStrategies builds the target CLI's cascade: package manager,
	// then the profile's ordered vendor channels.
	TargetStrategies func(t config.Target) []Strategy
	// FetchAssets invokes the asset-fetch collaborator. Runs only after
	// every dependency and the target resolve; its failures are reported
	// but do not fail the run.
	FetchAssets func(ctx context.Context) error
	// Manager is consulted for manual-remediation hints.
	Manager *PackageManager

	Out io.Writer
}

func (o *Orchestrator) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Run executes the full bootstrap. The first unresolved dependency aborts
// the run: later dependencies are assumed to require the failed one and are
// never probed.
func (o *Orchestrator) Run(ctx context.Context) error {
	w := o.out()
	steps := 3

	fmt.Fprintf(w, "Step 1/%d: Resolving dependencies\n", steps)
	for _, dep := range o.Profile.Dependencies {
		outcome, err := o.Resolve(ctx, dep, o.DependencyStrategies(dep))
		if err != nil {
			fmt.Fprintf(w, "  ✗ %s could not be resolved\n", dep.Name)
			return o.failure(dep, err)
		}
		o.reportResolved(w, dep.Name, outcome)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Step 2/%d: Installing %s\n", steps, o.Profile.Target.Name)
	target := o.Profile.Target
	outcome, err := o.Resolve(ctx, target.Dependency, o.TargetStrategies(target))
	if err != nil {
		fmt.Fprintf(w, "  ✗ %s install failed\n", target.Name)
		return o.failure(target.Dependency, err)
	}
	o.reportResolved(w, target.Name, outcome)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Step 3/%d: Fetching configuration assets\n", steps)
	if o.FetchAssets == nil || len(o.Profile.Assets) == 0 {
		fmt.Fprintln(w, "  ✓ No assets declared, skipping")
	} else if err := o.FetchAssets(ctx); err != nil {
		// Asset failures are the collaborator's concern; the bootstrap
		// itself has succeeded.
		fmt.Fprintf(w, "  ⚠ Some assets could not be fetched: %v\n", err)
	} else {
		fmt.Fprintf(w, "  ✓ %d assets fetched\n", len(o.Profile.Assets))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Bootstrap complete!")
	fmt.Fprintf(w, "  %s is installed and verified.\n", target.Name)
	return nil
}

func (o *Orchestrator) reportResolved(w io.Writer, name string, outcome Outcome) {
	switch outcome.State {
	case StateSatisfied:
		if outcome.Result.RawVersion != "" {
			fmt.Fprintf(w, "  ✓ %s already satisfied (%s)\n", name, outcome.Result.RawVersion)
		} else {
			fmt.Fprintf(w, "  ✓ %s already satisfied\n", name)
		}
	case StateVerified:
		strategy := ""
		if outcome.LastAttempt != nil {
			strategy = " via " + outcome.LastAttempt.Strategy
		}
		fmt.Fprintf(w, "  ✓ %s installed and verified%s\n", name, strategy)
	}
}

// failure builds the terminal error: dependency name, last diagnostic, and
// an equivalent manual command the user can run themselves.
func (o *Orchestrator) failure(dep config.Dependency, err error) error {
	hint := o.remediationHint(dep)
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w\n  Manual remediation: %s", err, hint)
}

func (o *Orchestrator) remediationHint(dep config.Dependency) string {
	if o.Manager != nil {
		if pkg, ok := dep.Packages[o.Manager.Name]; ok {
			args := o.Manager.InstallArgs(pkg, ScopeUser)
			hint := o.Manager.Bin
			for _, a := range args {
				hint += " " + a
			}
			return hint
		}
	}
	if dep.Download != nil && dep.Download.URL != "" {
		return "download and run " + dep.Download.URL
	}
	return ""
}

// NewDependencyStrategies builds the production cascade for one dependency.
// Order is fixed: package-manager user scope, package-manager machine scope
// (requires elevation), direct download. Machine scope is skipped by the
// resolver when user scope already verified, since verification ends the
// cascade.
func NewDependencyStrategies(mgr *PackageManager, cache *Cache, runner Runner, esc Escalator, relaunchArgs []string) func(config.Dependency) []Strategy {
	return func(dep config.Dependency) []Strategy {
		return []Strategy{
			NewPackageManagerStrategy(ScopeUser, mgr, cache, runner, esc, relaunchArgs),
			NewPackageManagerStrategy(ScopeMachine, mgr, cache, runner, esc, relaunchArgs),
			NewDownloadStrategy("direct-download", nil, runner, nil),
		}
	}
}

// NewTargetStrategies builds the target CLI's cascade: package-manager
// install, then each vendor channel in declared order.
func NewTargetStrategies(mgr *PackageManager, cache *Cache, runner Runner, esc Escalator, relaunchArgs []string) func(config.Target) []Strategy {
	return func(t config.Target) []Strategy {
		strategies := []Strategy{
			NewPackageManagerStrategy(ScopeUser, mgr, cache, runner, esc, relaunchArgs),
		}
		for i := range t.Channels {
			name := fmt.Sprintf("vendor-channel-%d", i+1)
			strategies = append(strategies, NewDownloadStrategy(name, nil, runner, &t.Channels[i]))
		}
		return strategies
	}
}
