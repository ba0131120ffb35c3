// Package config loads named bootstrap profiles: the ordered dependency
// list, the target CLI descriptor, and the configuration assets to fetch
// after installation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultProfile []byte

// Download describes one direct-download installer channel for a dependency.
// Either MetadataURL+URLTemplate (latest version resolved from vendor
// metadata) or a literal URL must be set.
type Download struct {
	// MetadataURL points at vendor release metadata (a JSON array whose
	// entries carry a "version" field, newest first).
	MetadataURL string `yaml:"metadata_url"`
	// URLTemplate is expanded with {version}, {os} and {arch} once the
	// latest version is known.
	URLTemplate string `yaml:"url_template"`
	// URL is a fixed artifact location; used as-is when set.
	URL string `yaml:"url"`
	// InstallArgs are the silent/unattended flags passed to the downloaded
	// artifact when it is executed.
	InstallArgs []string `yaml:"install_args"`
}

// Dependency is one named prerequisite the orchestrator must ensure is
// present at a minimum version. Immutable after profile load.
type Dependency struct {
	Name        string `yaml:"name"`
	Exe         string `yaml:"exe"`
	VersionFlag string `yaml:"version_flag"`
	// MinVersion is optional; empty means presence-only.
	MinVersion string `yaml:"min_version"`
	// CandidateDirs are probed directly when the executable is not on PATH.
	CandidateDirs []string `yaml:"candidate_dirs"`
	// OverrideEnv names an environment variable that, when it points at a
	// valid executable, short-circuits the probe.
	OverrideEnv string `yaml:"override_env"`
	// PersistEnv names the user-scope environment variable written when the
	// dependency installs to a location not reachable via PATH.
	PersistEnv string `yaml:"persist_env"`
	// Packages maps package-manager name (brew, apt-get, winget) to the
	// package identifier that manager installs.
	Packages map[string]string `yaml:"packages"`
	// Download is the direct-download channel of last resort.
	Download *Download `yaml:"download"`
}

// Target is the CLI the whole bootstrap exists to install. Its install
// cascade is the package manager followed by the ordered vendor channels.
type Target struct {
	Dependency `yaml:",inline"`
	Channels   []Download `yaml:"channels"`
}

// Profile is a named configuration: which dependencies to resolve, in which
// order, and which assets to fetch afterwards.
type Profile struct {
	Name         string       `yaml:"name"`
	Dependencies []Dependency `yaml:"dependencies"`
	Target       Target       `yaml:"target"`
	AssetDir     string       `yaml:"asset_dir"`
	Assets       []Asset      `yaml:"assets"`
}

// Asset is one configuration file fetched into the user config tree.
type Asset struct {
	URL  string `yaml:"url"`
	Dest string `yaml:"dest"`
}

// DefaultProfileName selects the embedded profile.
const DefaultProfileName = "default"

// Load returns the profile with the given name. The empty string and
// "default" resolve to the embedded profile; any other name is looked up
// under dir (typically ~/.toolstrap/profiles/<name>.yaml).
func Load(name, dir string) (*Profile, error) {
	if name == "" || name == DefaultProfileName {
		return parse(defaultProfile, DefaultProfileName)
	}

	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("unknown profile %q (no file at %s)", name, path)
		}
		return nil, fmt.Errorf("reading profile %q: %w", name, err)
	}
	return parse(data, name)
}

func parse(data []byte, name string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	p.applyDefaults()
	return &p, nil
}

func (p *Profile) validate() error {
	if len(p.Dependencies) == 0 {
		return fmt.Errorf("no dependencies declared")
	}
	seen := make(map[string]bool, len(p.Dependencies))
	for i, dep := range p.Dependencies {
		if dep.Name == "" {
			return fmt.Errorf("dependency %d has no name", i)
		}
		if dep.Exe == "" {
			return fmt.Errorf("dependency %q has no executable name", dep.Name)
		}
		if seen[dep.Name] {
			return fmt.Errorf("duplicate dependency %q", dep.Name)
		}
		seen[dep.Name] = true
	}
	if p.Target.Name == "" {
		return fmt.Errorf("no target declared")
	}
	for _, a := range p.Assets {
		if a.URL == "" || a.Dest == "" {
			return fmt.Errorf("asset entries need both url and dest")
		}
	}
	return nil
}

func (p *Profile) applyDefaults() {
	for i := range p.Dependencies {
		if p.Dependencies[i].VersionFlag == "" {
			p.Dependencies[i].VersionFlag = "--version"
		}
	}
	if p.Target.VersionFlag == "" {
		p.Target.VersionFlag = "--version"
	}
	if p.AssetDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			p.AssetDir = filepath.Join(home, ".toolstrap", "assets")
		}
	}
}

// ExpandAssetDir resolves relative asset destinations against the profile's
// asset directory.
func (p *Profile) ExpandAssetDir() []Asset {
	out := make([]Asset, len(p.Assets))
	for i, a := range p.Assets {
		out[i] = a
		if !filepath.IsAbs(a.Dest) && !strings.HasPrefix(a.Dest, "~") {
			out[i].Dest = filepath.Join(p.AssetDir, a.Dest)
		}
	}
	return out
}
