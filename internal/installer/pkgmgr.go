package installer

import (
	"os/exec"
	"runtime"
)

// Scope is the install breadth of a strategy: per-user or machine-wide.
// Machine scope requires elevation.
type Scope int

const (
	ScopeUser Scope = iota
	ScopeMachine
)

func (s Scope) String() string {
	if s == ScopeMachine {
		return "machine"
	}
	return "user"
}

// PackageManager describes the system package manager the strategies drive.
// The manager binary is treated as an opaque external program; only its
// exit code and output are interpreted.
type PackageManager struct {
	// Name keys the profile's package map ("brew", "apt-get", "winget").
	Name string
	// Bin is the executable invoked.
	Bin string
	// SupportsUser is false for managers with no per-user install mode
	// (apt-get); the user-scope strategy then fails fast.
	SupportsUser bool

	userArgs    func(pkg string) []string
	machineArgs func(pkg string) []string
}

// InstallArgs builds the manager's install invocation for pkg at the given
// scope.
func (m *PackageManager) InstallArgs(pkg string, scope Scope) []string {
	if scope == ScopeMachine {
		return m.machineArgs(pkg)
	}
	return m.userArgs(pkg)
}

// UsableKey is the cache key for the "manager is usable" fact.
func (m *PackageManager) UsableKey() string {
	return "pkgmgr:" + m.Name + ":usable"
}

// Usable reports whether the manager binary exists on PATH. Consulted
// through the cache so the LookPath happens once per run regardless of how
// many dependencies ask. A missing manager fails fast here, without ever
// spawning a subprocess.
func (m *PackageManager) Usable(cache *Cache) bool {
	return cache.GetOrCompute(m.UsableKey(), func() bool {
		_, err := exec.LookPath(m.Bin)
		return err == nil
	})
}

// DetectManager returns the package manager for the current platform, or
// nil when the platform has none we know how to drive. Detection is cheap
// (a table lookup); usability is the cached check.
func DetectManager() *PackageManager {
	return managerForOS(runtime.GOOS)
}

func managerForOS(goos string) *PackageManager {
	switch goos {
	case "darwin":
		return &PackageManager{
			Name:         "brew",
			Bin:          "brew",
			SupportsUser: true,
			// Homebrew installs to the user-writable prefix in both
			// scopes; machine scope differs only in requiring elevation
			// for system-owned prefixes.
			userArgs:    func(pkg string) []string { return []string{"install", pkg} },
			machineArgs: func(pkg string) []string { return []string{"install", pkg} },
		}
	case "windows":
		return &PackageManager{
			Name:         "winget",
			Bin:          "winget",
			SupportsUser: true,
			userArgs: func(pkg string) []string {
				return []string{"install", "--id", pkg, "--scope", "user",
					"--silent", "--accept-package-agreements", "--accept-source-agreements"}
			},
			machineArgs: func(pkg string) []string {
				return []string{"install", "--id", pkg, "--scope", "machine",
					"--silent", "--accept-package-agreements", "--accept-source-agreements"}
			},
		}
	default:
		return &PackageManager{
			Name:         "apt-get",
			Bin:          "apt-get",
			SupportsUser: false,
			userArgs:     func(pkg string) []string { return []string{"install", "-y", pkg} },
			machineArgs:  func(pkg string) []string { return []string{"install", "-y", pkg} },
		}
	}
}
