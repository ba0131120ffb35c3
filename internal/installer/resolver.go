package installer

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/blackwell-systems/toolstrap/internal/config"
	"github.com/blackwell-systems/toolstrap/internal/probe"
)

// State is a dependency's position in the resolution state machine:
// Unchecked → Probed → (Satisfied | NeedsInstall) → Attempting →
// Verified | Unresolved.
type State int

const (
	StateUnchecked State = iota
	StateProbed
	StateSatisfied
	StateNeedsInstall
	StateAttempting
	StateVerified
	StateUnresolved
)

func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateProbed:
		return "probed"
	case StateSatisfied:
		return "satisfied"
	case StateNeedsInstall:
		return "needs-install"
	case StateAttempting:
		return "attempting"
	case StateVerified:
		return "verified"
	case StateUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of resolving one dependency.
type Outcome struct {
	State  State
	Result probe.Result
	// LastAttempt is the final strategy attempt, kept for diagnostics when
	// the dependency ends Unresolved.
	LastAttempt *Attempt
}

// Prober is the read-only capability check the resolver sequences around.
type Prober interface {
	Probe(dep config.Dependency) probe.Result
}

// Journal receives resolution events. Implementations must tolerate being
// called for every dependency in a run.
type Journal interface {
	Probed(dep, phase string, res probe.Result)
	Attempted(dep string, a Attempt)
}

type noopJournal struct{}

func (noopJournal) Probed(string, string, probe.Result) {}
func (noopJournal) Attempted(string, Attempt)           {}

// Resolver sequences probe → (skip | strategy cascade) → re-probe for one
// dependency at a time. The strategy list is passed per call because the
// target CLI runs a different cascade through the same machinery.
type Resolver struct {
	Prober Prober
	// Refresh recomputes the process PATH from persisted state before a
	// post-install re-probe. Optional.
	Refresh func() error
	// Await blocks briefly until the installed binary shows up in the
	// dependency's candidate directories. Optional.
	Await func(ctx context.Context, dep config.Dependency)
	// Persist records a user-scope environment variable pointing at the
	// resolved executable when it is not reachable via PATH. Optional.
	Persist func(dep config.Dependency, path string) error
	// LookPath is a seam for testing the persist decision.
	LookPath func(file string) (string, error)
	// Journal receives probe and attempt events. Optional.
	Journal Journal
}

func (r *Resolver) journal() Journal {
	if r.Journal == nil {
		return noopJournal{}
	}
	return r.Journal
}

// Resolve drives dep through the state machine with the given strategy
// cascade. The returned error is non-nil only for terminal failure
// (Unresolved, or a malformed minimum version in the profile).
func (r *Resolver) Resolve(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
	min, err := probe.ParseMinimum(dep.MinVersion)
	if err != nil {
		return Outcome{State: StateUnresolved}, fmt.Errorf("dependency %s: %w", dep.Name, err)
	}

	res := r.Prober.Probe(dep)
	r.journal().Probed(dep.Name, "pre", res)

	if res.Satisfies(min) {
		// Probe-only short circuit: no strategy runs.
		return Outcome{State: StateSatisfied, Result: res}, nil
	}

	var last *Attempt
	for _, strat := range strategies {
		attempt := strat.Attempt(ctx, dep)
		last = &attempt
		r.journal().Attempted(dep.Name, attempt)

		if !attempt.Succeeded {
			continue
		}

		// A strategy claiming success is not trusted until a fresh probe
		// confirms the version requirement. The new binary may need a PATH
		// recompute, and some installers release before linking finishes.
		if r.Refresh != nil {
			if err := r.Refresh(); err != nil {
				attempt.Diagnostic = fmt.Sprintf("refreshing environment: %v", err)
			}
		}
		if r.Await != nil {
			r.Await(ctx, dep)
		}

		verify := r.Prober.Probe(dep)
		r.journal().Probed(dep.Name, "post", verify)

		if !verify.Satisfies(min) {
			// Installed the wrong thing, or the install silently failed.
			// Counts as a strategy failure; move on to the next one.
			failed := attempt
			failed.Succeeded = false
			failed.Diagnostic = verifyDiagnostic(dep, verify)
			last = &failed
			continue
		}

		r.persistIfHidden(dep, verify)
		return Outcome{State: StateVerified, Result: verify, LastAttempt: &attempt}, nil
	}

	out := Outcome{State: StateUnresolved, LastAttempt: last}
	diag := "no install strategies available"
	if last != nil {
		diag = last.Diagnostic
	}
	return out, fmt.Errorf("dependency %s unresolved: %s", dep.Name, diag)
}

// persistIfHidden writes the dependency's named env var when the verified
// binary is not reachable via PATH, so the target CLI launched in a separate
// process can still find it.
func (r *Resolver) persistIfHidden(dep config.Dependency, res probe.Result) {
	if r.Persist == nil || dep.PersistEnv == "" || res.Path == "" {
		return
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(dep.Exe); err == nil {
		return
	}
	// Best effort: a failed persist does not fail the resolution.
	_ = r.Persist(dep, res.Path)
}

func verifyDiagnostic(dep config.Dependency, res probe.Result) string {
	switch {
	case !res.Found:
		return fmt.Sprintf("install reported success but %s still not found", dep.Exe)
	case res.Version == nil && dep.MinVersion != "":
		return fmt.Sprintf("install reported success but %s version is unreadable (need >= %s)", dep.Exe, dep.MinVersion)
	default:
		return fmt.Sprintf("install reported success but %s is %s (need >= %s)", dep.Exe, res.RawVersion, dep.MinVersion)
	}
}
