package shell

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestPersistEnvVarWritesBashProfile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell config only")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	configFile, err := PersistEnvVar("TOOLSTRAP_NODE", "/opt/node/bin/node")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".bash_profile")
	if configFile != want {
		t.Errorf("wrote %q, want %q", configFile, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `export TOOLSTRAP_NODE="/opt/node/bin/node"`) {
		t.Errorf("config file missing export line:\n%s", data)
	}
	if !strings.Contains(string(data), marker+" env TOOLSTRAP_NODE") {
		t.Errorf("config file missing marker line:\n%s", data)
	}
}

func TestPersistEnvVarIdempotent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell config only")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/usr/bin/zsh")

	if _, err := PersistEnvVar("TOOLSTRAP_GIT", "/usr/local/bin/git"); err != nil {
		t.Fatal(err)
	}
	if _, err := PersistEnvVar("TOOLSTRAP_GIT", "/usr/local/bin/git"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".zprofile"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "TOOLSTRAP_GIT"); n != 2 {
		// One marker line plus one export line.
		t.Errorf("variable appears on %d lines, want 2:\n%s", n, data)
	}
}

func TestEnsurePathEntryNoOpWhenOnPATH(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+"/usr/bin")
	t.Setenv("HOME", t.TempDir())

	added, configFile, err := EnsurePathEntry(dir)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("entry already on PATH must not be re-added")
	}
	if configFile != "" {
		t.Errorf("no config file should be touched, got %q", configFile)
	}
}

func TestEnsurePathEntryAppends(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell config only")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/sh")
	t.Setenv("PATH", "/usr/bin")

	added, configFile, err := EnsurePathEntry("/opt/toolcli/bin")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("missing entry should be added")
	}
	want := filepath.Join(home, ".profile")
	if configFile != want {
		t.Errorf("wrote %q, want %q for an unknown shell", configFile, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `export PATH="/opt/toolcli/bin":$PATH`) {
		t.Errorf("config file missing PATH line:\n%s", data)
	}
}

func TestEnsurePathEntryFishConfig(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell config only")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/usr/bin/fish")
	t.Setenv("PATH", "/usr/bin")

	_, configFile, err := EnsurePathEntry("/opt/toolcli/bin")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, ".config", "fish", "conf.d", "toolstrap.fish")
	if configFile != want {
		t.Errorf("wrote %q, want %q", configFile, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fish_add_path /opt/toolcli/bin") {
		t.Errorf("fish config missing fish_add_path line:\n%s", data)
	}
}
