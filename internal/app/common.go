package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// toolstrapDir returns ~/.toolstrap, creating it if needed.
func toolstrapDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".toolstrap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create toolstrap directory: %w", err)
	}
	return dir, nil
}

// getJournalPath returns the journal database path, using the flag value or
// the default under ~/.toolstrap.
func getJournalPath() (string, error) {
	if journalPath != "" {
		return journalPath, nil
	}
	dir, err := toolstrapDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.db"), nil
}

// profilesDir returns the directory for named profile files.
func profilesDir() (string, error) {
	dir, err := toolstrapDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles"), nil
}

// loadProfile resolves the optional positional profile argument.
func loadProfile(args []string) (*config.Profile, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	dir, err := profilesDir()
	if err != nil {
		return nil, err
	}
	return config.Load(name, dir)
}
