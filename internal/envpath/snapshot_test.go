package envpath

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestCaptureIncludesCurrentPATH(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)

	s := Capture()
	found := false
	for _, entry := range s.Entries() {
		if entry == dir {
			found = true
		}
	}
	if !found {
		t.Errorf("snapshot %v should include the current PATH entry %s", s.Entries(), dir)
	}
}

func TestCaptureReadsPersistedShellConfig(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell config files are not read on windows")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PATH", "/usr/bin")

	profile := filepath.Join(home, ".profile")
	content := "# comment\nexport PATH=\"/opt/newtool/bin:$PATH\"\n"
	if err := os.WriteFile(profile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Capture()
	found := false
	for _, entry := range s.Entries() {
		if entry == "/opt/newtool/bin" {
			found = true
		}
	}
	if !found {
		t.Errorf("snapshot %v should include the persisted entry", s.Entries())
	}
}

func TestCaptureDeduplicates(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+dir)

	s := Capture()
	count := 0
	for _, entry := range s.Entries() {
		if entry == dir {
			count++
		}
	}
	if count != 1 {
		t.Errorf("entry appears %d times, want 1", count)
	}
}

func TestParseConfigPATH(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "quoted export",
			content: `export PATH="/opt/tool/bin:$PATH"`,
			want:    []string{"/opt/tool/bin"},
		},
		{
			name:    "multiple literal entries",
			content: `export PATH=/a/bin:/b/bin`,
			want:    []string{"/a/bin", "/b/bin"},
		},
		{
			name:    "expansions skipped",
			content: "export PATH=$HOME/bin:`which foo`",
			want:    nil,
		},
		{
			name:    "unrelated lines ignored",
			content: "alias ll='ls -l'\nexport EDITOR=vi\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			got := parseConfigPATH(path)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseConfigPATHMissingFile(t *testing.T) {
	if got := parseConfigPATH(filepath.Join(t.TempDir(), "nope")); got != nil {
		t.Errorf("missing file should yield nil, got %v", got)
	}
}

func TestRefreshAppliesPATH(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	t.Setenv("HOME", t.TempDir())

	s := Capture()
	if err := s.Refresh(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(os.Getenv("PATH"), dir) {
		t.Error("refreshed PATH lost the original entry")
	}
}
