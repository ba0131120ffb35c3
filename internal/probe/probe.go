// Package probe locates a dependency on the current machine and checks its
// version. Probes are read-only and safe to run repeatedly; a probe never
// fails with an error — "not found" and "version unknown" are states in the
// result, not failures.
package probe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// Result is the outcome of a single probe run. Recomputed fresh on every
// call; never cached across dependencies.
type Result struct {
	Found bool
	// Path is the resolved executable location when Found.
	Path string
	// Version is nil when the dependency reported nothing parseable.
	Version *semver.Version
	// RawVersion is the first line of the version command's output, kept
	// for diagnostics.
	RawVersion string
}

// Satisfies reports whether the probe result meets the given minimum.
// A nil minimum means presence-only. A found dependency with an unknown
// version does not satisfy a non-nil minimum.
func (r Result) Satisfies(min *semver.Version) bool {
	if !r.Found {
		return false
	}
	if min == nil {
		return true
	}
	if r.Version == nil {
		return false
	}
	return !r.Version.LessThan(min)
}

// Prober locates executables and reads their versions. The function fields
// exist as test seams; New wires the real implementations.
type Prober struct {
	LookPath   func(file string) (string, error)
	RunVersion func(path, flag string) (string, error)
	Getenv     func(key string) string
	// VersionTimeout bounds the version-reporting subprocess.
	VersionTimeout time.Duration
}

// New returns a Prober backed by the real PATH and filesystem.
func New() *Prober {
	p := &Prober{
		LookPath:       exec.LookPath,
		Getenv:         os.Getenv,
		VersionTimeout: 10 * time.Second,
	}
	p.RunVersion = p.runVersion
	return p
}

// Probe locates dep and, when found, reads its version. Search order:
// override environment variable, PATH, then the dependency's candidate
// directories.
func (p *Prober) Probe(dep config.Dependency) Result {
	path, ok := p.locate(dep)
	if !ok {
		return Result{}
	}

	res := Result{Found: true, Path: path}

	out, err := p.RunVersion(path, dep.VersionFlag)
	if err != nil {
		// Found but version unknown; the caller decides whether that is
		// acceptable.
		return res
	}
	res.RawVersion = firstLine(out)
	res.Version = ParseVersion(res.RawVersion)
	return res
}

func (p *Prober) locate(dep config.Dependency) (string, bool) {
	if dep.OverrideEnv != "" {
		if override := p.Getenv(dep.OverrideEnv); override != "" {
			if isExecutable(override) {
				return override, true
			}
		}
	}

	if path, err := p.LookPath(dep.Exe); err == nil {
		return path, true
	}

	exe := dep.Exe
	if runtime.GOOS == "windows" && !strings.HasSuffix(exe, ".exe") {
		exe += ".exe"
	}
	for _, dir := range dep.CandidateDirs {
		candidate := filepath.Join(dir, exe)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (p *Prober) runVersion(path, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.VersionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, flag).CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
