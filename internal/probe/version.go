package probe

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// versionPattern tolerates the usual vendor formats: optional leading "v",
// two or three numeric components, surrounded by arbitrary text
// ("git version 2.44.0", "v20.3.0", "node v18.17.1 (LTS)").
var versionPattern = regexp.MustCompile(`v?(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the first dotted version from s. Returns nil when
// nothing version-shaped is present.
func ParseVersion(s string) *semver.Version {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v, err := semver.NewVersion(fmt.Sprintf("%s.%s.%s", m[1], m[2], patch))
	if err != nil {
		return nil
	}
	return v
}

// ParseMinimum parses a profile's minimum-version string. The empty string
// means presence-only and yields nil.
func ParseMinimum(s string) (*semver.Version, error) {
	if s == "" {
		return nil, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum version %q: %w", s, err)
	}
	return v, nil
}
