package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// Attempt is the outcome of one strategy execution. Transient: the resolver
// logs it to the journal and discards it.
type Attempt struct {
	Strategy   string
	Succeeded  bool
	ExitCode   int
	Diagnostic string
	// Err carries the underlying error for callers that need to
	// distinguish failure classes (elevation refusal in particular).
	Err error
}

// Strategy is one concrete method of installing a dependency. Attempt must
// not panic; every failure mode becomes a failed Attempt.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, dep config.Dependency) Attempt
}

// Escalator is the slice of elevate.Escalator the machine-scope strategy
// needs.
type Escalator interface {
	EnsureElevated(args []string) error
}

// pmStrategy drives the system package manager at a fixed scope.
type pmStrategy struct {
	scope     Scope
	mgr       *PackageManager
	cache     *Cache
	runner    Runner
	escalator Escalator
	// relaunchArgs are forwarded to the elevated child so it re-runs the
	// same orchestration.
	relaunchArgs []string
}

// NewPackageManagerStrategy returns the package-manager strategy for scope.
// Machine scope requires an escalator; user scope ignores it.
func NewPackageManagerStrategy(scope Scope, mgr *PackageManager, cache *Cache, runner Runner, esc Escalator, relaunchArgs []string) Strategy {
	return &pmStrategy{
		scope:        scope,
		mgr:          mgr,
		cache:        cache,
		runner:       runner,
		escalator:    esc,
		relaunchArgs: relaunchArgs,
	}
}

func (s *pmStrategy) Name() string {
	if s.mgr == nil {
		return "package-manager/" + s.scope.String()
	}
	return fmt.Sprintf("%s/%s", s.mgr.Name, s.scope)
}

func (s *pmStrategy) Attempt(ctx context.Context, dep config.Dependency) Attempt {
	fail := func(diag string, err error) Attempt {
		return Attempt{Strategy: s.Name(), Diagnostic: diag, ExitCode: -1, Err: err}
	}

	if s.mgr == nil {
		return fail("no package manager known for this platform", nil)
	}
	pkg, ok := dep.Packages[s.mgr.Name]
	if !ok {
		return fail(fmt.Sprintf("no %s package mapping for %s", s.mgr.Name, dep.Name), nil)
	}
	if s.scope == ScopeUser && !s.mgr.SupportsUser {
		return fail(fmt.Sprintf("%s has no per-user install mode", s.mgr.Name), nil)
	}

	// Structural unavailability fails fast, before any subprocess call.
	// The cache makes this a one-time check per run.
	if !s.mgr.Usable(s.cache) {
		return fail(fmt.Sprintf("%s not available on this machine", s.mgr.Bin), nil)
	}

	if s.scope == ScopeMachine {
		if err := s.escalator.EnsureElevated(s.relaunchArgs); err != nil {
			// Does not return on the relaunch path; reaching here means
			// elevation was refused or already spent.
			return fail(fmt.Sprintf("cannot elevate for machine-scope install: %v", err), err)
		}
	}

	args := s.mgr.InstallArgs(pkg, s.scope)
	code, output, err := s.runner.Run(ctx, s.mgr.Bin, args...)
	if err != nil {
		return Attempt{
			Strategy:   s.Name(),
			ExitCode:   code,
			Diagnostic: fmt.Sprintf("%s %s failed: %v (output: %s)", s.mgr.Bin, strings.Join(args, " "), err, trimOutput(output)),
			Err:        err,
		}
	}

	return Attempt{Strategy: s.Name(), Succeeded: true, ExitCode: code}
}

// trimOutput keeps diagnostics readable; installer output can run to
// thousands of lines.
func trimOutput(s string) string {
	s = strings.TrimSpace(s)
	const max = 2000
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
