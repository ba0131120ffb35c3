package installer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/blackwell-systems/toolstrap/internal/config"
	"github.com/blackwell-systems/toolstrap/internal/probe"
)

func testProfile() *config.Profile {
	return &config.Profile{
		Name: "test",
		Dependencies: []config.Dependency{
			{Name: "git", Exe: "git"},
			{Name: "runtime", Exe: "node", MinVersion: "18.0.0"},
		},
		Target: config.Target{
			Dependency: config.Dependency{Name: "target-cli", Exe: "toolcli"},
		},
	}
}

func noStrategies(config.Dependency) []Strategy   { return nil }
func noTargetStrategies(config.Target) []Strategy { return nil }

func TestOrchestratorAbortsOnFirstUnresolved(t *testing.T) {
	resolved := []string{}
	resolve := func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
		resolved = append(resolved, dep.Name)
		if dep.Name == "git" {
			return Outcome{State: StateUnresolved}, fmt.Errorf("dependency git unresolved: no strategies")
		}
		return Outcome{State: StateSatisfied}, nil
	}

	o := &Orchestrator{
		Profile:              testProfile(),
		Resolve:              resolve,
		DependencyStrategies: noStrategies,
		TargetStrategies:     noTargetStrategies,
		Out:                  &bytes.Buffer{},
	}

	err := o.Run(context.Background())
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if len(resolved) != 1 || resolved[0] != "git" {
		t.Errorf("resolved %v; later dependencies must never be attempted", resolved)
	}
	if !strings.Contains(err.Error(), "git") {
		t.Errorf("error should name the failed dependency: %v", err)
	}
}

func TestOrchestratorRunsTargetAfterDependencies(t *testing.T) {
	resolved := []string{}
	resolve := func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
		resolved = append(resolved, dep.Name)
		return Outcome{State: StateSatisfied, Result: probe.Result{Found: true}}, nil
	}

	var out bytes.Buffer
	o := &Orchestrator{
		Profile:              testProfile(),
		Resolve:              resolve,
		DependencyStrategies: noStrategies,
		TargetStrategies:     noTargetStrategies,
		Out:                  &out,
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"git", "runtime", "target-cli"}
	if len(resolved) != len(want) {
		t.Fatalf("resolved %v, want %v", resolved, want)
	}
	for i := range want {
		if resolved[i] != want[i] {
			t.Fatalf("resolved %v, want declared order %v", resolved, want)
		}
	}
	if !strings.Contains(out.String(), "Bootstrap complete!") {
		t.Error("success summary missing")
	}
}

func TestOrchestratorTargetFailureFailsRun(t *testing.T) {
	resolve := func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
		if dep.Name == "target-cli" {
			return Outcome{State: StateUnresolved}, fmt.Errorf("dependency target-cli unresolved: all channels failed")
		}
		return Outcome{State: StateSatisfied}, nil
	}

	o := &Orchestrator{
		Profile:              testProfile(),
		Resolve:              resolve,
		DependencyStrategies: noStrategies,
		TargetStrategies:     noTargetStrategies,
		Out:                  &bytes.Buffer{},
	}

	if err := o.Run(context.Background()); err == nil {
		t.Fatal("target failure must fail the run")
	}
}

func TestOrchestratorAssetFailureDoesNotFailRun(t *testing.T) {
	resolve := func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
		return Outcome{State: StateSatisfied}, nil
	}

	profile := testProfile()
	profile.Assets = []config.Asset{{URL: "https://example.com/a", Dest: "a"}}

	var out bytes.Buffer
	o := &Orchestrator{
		Profile:              profile,
		Resolve:              resolve,
		DependencyStrategies: noStrategies,
		TargetStrategies:     noTargetStrategies,
		FetchAssets: func(ctx context.Context) error {
			return fmt.Errorf("1 of 1 assets failed")
		},
		Out: &out,
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("asset failure must not fail the bootstrap: %v", err)
	}
	if !strings.Contains(out.String(), "⚠") {
		t.Error("asset failure should be reported as a warning")
	}
}

func TestOrchestratorRemediationHint(t *testing.T) {
	mgr := testManager()
	resolve := func(ctx context.Context, dep config.Dependency, strategies []Strategy) (Outcome, error) {
		return Outcome{State: StateUnresolved}, fmt.Errorf("dependency runtime unresolved: boom")
	}

	profile := &config.Profile{
		Name: "test",
		Dependencies: []config.Dependency{
			{Name: "runtime", Exe: "node", Packages: map[string]string{"brew": "node"}},
		},
		Target: config.Target{Dependency: config.Dependency{Name: "target-cli", Exe: "toolcli"}},
	}

	o := &Orchestrator{
		Profile:              profile,
		Resolve:              resolve,
		DependencyStrategies: noStrategies,
		TargetStrategies:     noTargetStrategies,
		Manager:              mgr,
		Out:                  &bytes.Buffer{},
	}

	err := o.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "install node") {
		t.Errorf("error should carry the equivalent manual command: %v", err)
	}
}

func TestNewTargetStrategiesOrdersChannels(t *testing.T) {
	mgr := testManager()
	cache := NewCache()
	target := config.Target{
		Dependency: config.Dependency{Name: "target-cli", Exe: "toolcli"},
		Channels: []config.Download{
			{URL: "https://downloads.example.com/install.sh"},
			{URL: "https://mirror.example.com/install.sh"},
		},
	}

	strategies := NewTargetStrategies(mgr, cache, &fakeRunner{}, &fakeEscalator{}, nil)(target)
	if len(strategies) != 3 {
		t.Fatalf("got %d strategies, want package manager + 2 channels", len(strategies))
	}
	if strategies[1].Name() != "vendor-channel-1" || strategies[2].Name() != "vendor-channel-2" {
		t.Errorf("channels out of order: %s, %s", strategies[1].Name(), strategies[2].Name())
	}
}

func TestNewDependencyStrategiesFixedOrder(t *testing.T) {
	mgr := testManager()
	strategies := NewDependencyStrategies(mgr, NewCache(), &fakeRunner{}, &fakeEscalator{}, nil)(testDep())

	if len(strategies) != 3 {
		t.Fatalf("got %d strategies, want 3", len(strategies))
	}
	wantNames := []string{"brew/user", "brew/machine", "direct-download"}
	for i, want := range wantNames {
		if strategies[i].Name() != want {
			t.Errorf("strategy %d is %q, want %q", i, strategies[i].Name(), want)
		}
	}
}
