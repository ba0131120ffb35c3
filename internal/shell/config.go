// Package shell persists user-scope environment state into shell
// configuration files, so values survive into the separate process that
// launches the target CLI later. On Windows the user registry is written
// via setx instead.
package shell

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const marker = "# toolstrap"

// EnsurePathEntry checks whether dir is on PATH and, if not, appends the
// export line to the appropriate shell config file.
// Returns (added bool, configFile string, err error).
// added=false means it was already on PATH (no change made).
func EnsurePathEntry(dir string) (added bool, configFile string, err error) {
	pathEnv := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == dir {
			return false, "", nil
		}
	}

	line := fmt.Sprintf("export PATH=%q:$PATH", dir)
	fishLine := fmt.Sprintf("fish_add_path %s", dir)
	return appendConfigLine("path "+dir, line, fishLine)
}

// PersistEnvVar writes a user-scope environment variable pointing at value,
// so a process started from a fresh shell can read it. The write is
// idempotent per variable name.
func PersistEnvVar(name, value string) (configFile string, err error) {
	if runtime.GOOS == "windows" {
		// setx writes the user environment in the registry.
		out, err := exec.Command("setx", name, value).CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("setx %s failed: %w (output: %s)", name, err, strings.TrimSpace(string(out)))
		}
		return "registry", nil
	}

	line := fmt.Sprintf("export %s=%q", name, value)
	fishLine := fmt.Sprintf("set -gx %s %s", name, value)
	_, configFile, err = appendConfigLine("env "+name, line, fishLine)
	return configFile, err
}

// appendConfigLine appends a marked line to the user's shell config file,
// choosing the file by the detected shell. The marker key makes repeat calls
// no-ops.
func appendConfigLine(key, line, fishLine string) (added bool, configFile string, err error) {
	shellPath := os.Getenv("SHELL")
	shellName := filepath.Base(shellPath)

	home, err := os.UserHomeDir()
	if err != nil {
		return false, "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	var configPath string
	var isFish bool

	switch shellName {
	case "zsh":
		configPath = filepath.Join(home, ".zprofile")
	case "bash":
		configPath = filepath.Join(home, ".bash_profile")
	case "fish":
		configPath = filepath.Join(home, ".config", "fish", "conf.d", "toolstrap.fish")
		isFish = true
	default:
		configPath = filepath.Join(home, ".profile")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return false, "", fmt.Errorf("cannot create config directory %s: %w", filepath.Dir(configPath), err)
	}

	markerLine := fmt.Sprintf("%s %s", marker, key)

	existingContent, readErr := os.ReadFile(configPath)
	if readErr == nil && strings.Contains(string(existingContent), markerLine) {
		return false, configPath, nil
	}

	entry := line
	if isFish {
		entry = fishLine
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, "", fmt.Errorf("cannot open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s\n%s\n", markerLine, entry); err != nil {
		return false, "", fmt.Errorf("cannot write to config file %s: %w", configPath, err)
	}

	return true, configPath, nil
}
