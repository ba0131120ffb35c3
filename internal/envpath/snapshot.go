// Package envpath recomputes the process's effective PATH from persisted
// machine and user state. A freshly installed binary is often invisible to
// the installing process because PATH was captured at shell startup; the
// snapshot re-reads the persisted sources so a re-probe can see it without
// opening a new shell session.
package envpath

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Snapshot is a recomputed PATH. Entries are ordered: current PATH first,
// then entries persisted in the user's shell config files, then the
// platform's well-known install directories. Duplicates are dropped.
type Snapshot struct {
	entries []string
}

// Capture builds a snapshot from the current environment plus persisted
// state.
func Capture() *Snapshot {
	s := &Snapshot{}
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		s.entries = append(s.entries, dir)
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		add(dir)
	}
	for _, dir := range persistedEntries() {
		add(dir)
	}
	for _, dir := range wellKnownDirs() {
		add(dir)
	}
	return s
}

// PATH renders the snapshot as a PATH value.
func (s *Snapshot) PATH() string {
	return strings.Join(s.entries, string(os.PathListSeparator))
}

// Entries returns the snapshot's directories in order.
func (s *Snapshot) Entries() []string {
	return s.entries
}

// Refresh applies the recomputed PATH to the current process so subsequent
// exec.LookPath calls see newly installed binaries.
func (s *Snapshot) Refresh() error {
	return os.Setenv("PATH", s.PATH())
}

// persistedEntries scans the user's shell config files for PATH exports.
// Best effort: unreadable files are skipped.
func persistedEntries() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	configs := []string{
		filepath.Join(home, ".zprofile"),
		filepath.Join(home, ".zshrc"),
		filepath.Join(home, ".bash_profile"),
		filepath.Join(home, ".bashrc"),
		filepath.Join(home, ".profile"),
	}

	var out []string
	for _, cfg := range configs {
		out = append(out, parseConfigPATH(cfg)...)
	}
	return out
}

// parseConfigPATH extracts directories from `export PATH=...` lines in a
// shell config file. Only literal entries are kept; $PATH references and
// other expansions are ignored.
func parseConfigPATH(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "export PATH=") {
			continue
		}
		value := strings.TrimPrefix(line, "export PATH=")
		value = strings.Trim(value, `"'`)
		for _, entry := range strings.Split(value, ":") {
			entry = strings.Trim(entry, `"'`)
			if entry == "" || strings.ContainsAny(entry, "$`") {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

// wellKnownDirs lists the platform's conventional install locations, probed
// even when no config file mentions them.
func wellKnownDirs() []string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/opt/homebrew/bin",
			"/usr/local/bin",
			filepath.Join(home, ".local", "bin"),
		}
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		program := os.Getenv("ProgramFiles")
		var dirs []string
		if program != "" {
			dirs = append(dirs,
				filepath.Join(program, "Git", "bin"),
				filepath.Join(program, "nodejs"),
			)
		}
		if local != "" {
			dirs = append(dirs, filepath.Join(local, "Programs"))
		}
		return dirs
	default:
		return []string{
			"/usr/local/bin",
			filepath.Join(home, ".local", "bin"),
			"/home/linuxbrew/.linuxbrew/bin",
		}
	}
}
