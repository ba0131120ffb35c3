package envpath

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval backs up the fsnotify watch; some installers move binaries
// into place in ways that don't generate create events on every platform.
const pollInterval = 500 * time.Millisecond

// AwaitBinary waits for an executable named name to appear in any of dirs,
// up to timeout. Installers can exit before their post-install linking
// finishes, so a re-probe straight after the subprocess returns may miss the
// binary. Returns the resolved path, or "" if the timeout elapsed.
//
// The wait is event-driven via fsnotify where possible and degrades to
// polling when a watch cannot be established. A timeout is not an error:
// the caller re-probes either way.
func AwaitBinary(ctx context.Context, dirs []string, name string, timeout time.Duration) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		name += ".exe"
	}

	if path := findIn(dirs, name); path != "" {
		return path
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	var events chan fsnotify.Event
	if err == nil {
		defer watcher.Close()
		for _, dir := range dirs {
			// Nonexistent dirs are skipped; the poll ticker covers them
			// if the installer creates them later.
			_ = watcher.Add(dir)
		}
		events = watcher.Events
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return findIn(dirs, name)
		case ev := <-events:
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Base(ev.Name) == name && isFile(ev.Name) {
				return ev.Name
			}
		case <-ticker.C:
			if path := findIn(dirs, name); path != "" {
				return path
			}
		}
	}
}

func findIn(dirs []string, name string) string {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if isFile(candidate) {
			return candidate
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
