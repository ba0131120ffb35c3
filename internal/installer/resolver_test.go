package installer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blackwell-systems/toolstrap/internal/config"
	"github.com/blackwell-systems/toolstrap/internal/probe"
)

// scriptedProber replays a queue of probe results.
type scriptedProber struct {
	results []probe.Result
	calls   int
}

func (p *scriptedProber) Probe(dep config.Dependency) probe.Result {
	if p.calls >= len(p.results) {
		return probe.Result{}
	}
	res := p.results[p.calls]
	p.calls++
	return res
}

// scriptedStrategy reports a fixed outcome and counts invocations.
type scriptedStrategy struct {
	name    string
	succeed bool
	calls   int
}

func (s *scriptedStrategy) Name() string { return s.name }

func (s *scriptedStrategy) Attempt(ctx context.Context, dep config.Dependency) Attempt {
	s.calls++
	if s.succeed {
		return Attempt{Strategy: s.name, Succeeded: true}
	}
	return Attempt{Strategy: s.name, ExitCode: 1, Diagnostic: s.name + " failed"}
}

func found(version string) probe.Result {
	res := probe.Result{Found: true, Path: "/usr/local/bin/node", RawVersion: version}
	res.Version = probe.ParseVersion(version)
	return res
}

func runtimeDep() config.Dependency {
	return config.Dependency{Name: "runtime", Exe: "node", MinVersion: "18.0.0"}
}

func newTestResolver(p Prober) *Resolver {
	return &Resolver{
		Prober:   p,
		LookPath: func(string) (string, error) { return "/usr/local/bin/node", nil },
	}
}

func TestResolveSatisfiedRunsNoStrategy(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{found("v20.3.0")}}
	strat := &scriptedStrategy{name: "s1", succeed: true}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{strat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != StateSatisfied {
		t.Errorf("state %s, want satisfied", out.State)
	}
	if strat.calls != 0 {
		t.Error("satisfied dependency must not invoke any strategy")
	}
}

func TestResolveStrategiesTriedInOrderAndStopAtFirstVerified(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{
		{},              // pre-probe: absent
		found("20.3.0"), // post-install verify after strategy 2
	}}
	s1 := &scriptedStrategy{name: "s1"}
	s2 := &scriptedStrategy{name: "s2", succeed: true}
	s3 := &scriptedStrategy{name: "s3", succeed: true}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{s1, s2, s3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != StateVerified {
		t.Errorf("state %s, want verified", out.State)
	}
	if s1.calls != 1 || s2.calls != 1 {
		t.Errorf("strategies 1 and 2 should each run once: %d, %d", s1.calls, s2.calls)
	}
	if s3.calls != 0 {
		t.Error("strategy 3 must never run after strategy 2 verifies")
	}
}

func TestResolveSuccessWithoutVerificationAdvances(t *testing.T) {
	// Strategy 1 claims success but the re-probe still sees 16.0.0;
	// the resolver must treat that as a failure and try strategy 2.
	prober := &scriptedProber{results: []probe.Result{
		found("16.0.0"), // pre
		found("16.0.0"), // post s1: still wrong
		found("20.3.0"), // post s2: good
	}}
	s1 := &scriptedStrategy{name: "s1", succeed: true}
	s2 := &scriptedStrategy{name: "s2", succeed: true}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{s1, s2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != StateVerified {
		t.Errorf("state %s, want verified", out.State)
	}
	if s2.calls != 1 {
		t.Error("unverified success must fall through to the next strategy")
	}
}

func TestResolveAllStrategiesExhausted(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{found("16.0.0")}}
	s1 := &scriptedStrategy{name: "s1"}
	s2 := &scriptedStrategy{name: "s2"}
	s3 := &scriptedStrategy{name: "s3"}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{s1, s2, s3})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if out.State != StateUnresolved {
		t.Errorf("state %s, want unresolved", out.State)
	}
	if !strings.Contains(err.Error(), "runtime") {
		t.Errorf("diagnostic should name the dependency: %v", err)
	}
	if out.LastAttempt == nil || out.LastAttempt.Strategy != "s3" {
		t.Error("last attempt should be the final strategy")
	}
}

func TestResolveRefreshRunsBeforeVerification(t *testing.T) {
	order := []string{}
	prober := &proberFunc{fn: func(config.Dependency) probe.Result {
		order = append(order, "probe")
		if len(order) == 1 {
			return probe.Result{}
		}
		return found("20.3.0")
	}}
	s1 := &scriptedStrategy{name: "s1", succeed: true}

	r := newTestResolver(prober)
	r.Refresh = func() error {
		order = append(order, "refresh")
		return nil
	}

	if _, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{s1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"probe", "refresh", "probe"}
	if len(order) != len(want) {
		t.Fatalf("order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order %v, want %v", order, want)
		}
	}
}

type proberFunc struct {
	fn func(config.Dependency) probe.Result
}

func (p *proberFunc) Probe(dep config.Dependency) probe.Result { return p.fn(dep) }

func TestResolvePersistsEnvVarWhenNotOnPATH(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{
		{},
		found("20.3.0"),
	}}
	s1 := &scriptedStrategy{name: "s1", succeed: true}

	persisted := map[string]string{}
	r := newTestResolver(prober)
	r.LookPath = func(string) (string, error) { return "", errors.New("not on PATH") }
	r.Persist = func(dep config.Dependency, path string) error {
		persisted[dep.PersistEnv] = path
		return nil
	}

	dep := runtimeDep()
	dep.PersistEnv = "TOOLSTRAP_RUNTIME_PATH"
	if _, err := r.Resolve(context.Background(), dep, []Strategy{s1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if persisted["TOOLSTRAP_RUNTIME_PATH"] != "/usr/local/bin/node" {
		t.Errorf("persisted %v, want the resolved path", persisted)
	}
}

func TestResolveSkipsPersistWhenOnPATH(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{
		{},
		found("20.3.0"),
	}}
	s1 := &scriptedStrategy{name: "s1", succeed: true}

	r := newTestResolver(prober)
	r.Persist = func(dep config.Dependency, path string) error {
		t.Error("persist must not run when the binary is PATH-reachable")
		return nil
	}

	dep := runtimeDep()
	dep.PersistEnv = "TOOLSTRAP_RUNTIME_PATH"
	if _, err := r.Resolve(context.Background(), dep, []Strategy{s1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// End-to-end scenario: runtime absent, user-scope strategy succeeds,
// re-probe finds 20.3.0 >= 18.0.0.
func TestScenarioAbsentRuntimeInstalledAndVerified(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{
		{},
		found("20.3.0"),
	}}
	userScope := &scriptedStrategy{name: "brew/user", succeed: true}
	machineScope := &scriptedStrategy{name: "brew/machine", succeed: true}
	download := &scriptedStrategy{name: "direct-download", succeed: true}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), []Strategy{userScope, machineScope, download})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.State != StateVerified {
		t.Errorf("state %s, want verified", out.State)
	}
	if machineScope.calls != 0 || download.calls != 0 {
		t.Error("later strategies must not run after user scope verifies")
	}
}

// End-to-end scenario: runtime present at 16.0.0 < 18.0.0, all three
// strategies fail; terminal state Unresolved and the diagnostic names the
// dependency.
func TestScenarioOutdatedRuntimeUnresolved(t *testing.T) {
	prober := &scriptedProber{results: []probe.Result{found("16.0.0")}}
	strategies := []Strategy{
		&scriptedStrategy{name: "brew/user"},
		&scriptedStrategy{name: "brew/machine"},
		&scriptedStrategy{name: "direct-download"},
	}

	r := newTestResolver(prober)
	out, err := r.Resolve(context.Background(), runtimeDep(), strategies)
	if err == nil {
		t.Fatal("expected unresolved error")
	}
	if out.State != StateUnresolved {
		t.Errorf("state %s, want unresolved", out.State)
	}
	if !strings.Contains(err.Error(), "runtime") {
		t.Errorf("error should name the dependency: %v", err)
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateUnchecked:    "unchecked",
		StateProbed:       "probed",
		StateSatisfied:    "satisfied",
		StateNeedsInstall: "needs-install",
		StateAttempting:   "attempting",
		StateVerified:     "verified",
		StateUnresolved:   "unresolved",
	}
	for state, want := range states {
		if state.String() != want {
			t.Errorf("%d.String() = %q, want %q", state, state.String(), want)
		}
	}
}
