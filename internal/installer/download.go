package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// downloadStrategy installs a dependency by fetching the vendor's installer
// artifact directly and running it with its silent flags. Method of last
// resort: it depends only on HTTPS reachability, never on package-manager
// infrastructure.
type downloadStrategy struct {
	name     string
	client   *http.Client
	runner   Runner
	tmpDir   string
	download *config.Download
}

// NewDownloadStrategy builds the direct-download strategy. When dl is nil
// the strategy uses the dependency's own download descriptor; passing an
// explicit descriptor lets the target-CLI cascade run several ordered
// vendor channels through the same code.
func NewDownloadStrategy(name string, client *http.Client, runner Runner, dl *config.Download) Strategy {
	if client == nil {
		// http.DefaultTransport honors HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
		client = http.DefaultClient
	}
	return &downloadStrategy{
		name:     name,
		client:   client,
		runner:   runner,
		tmpDir:   os.TempDir(),
		download: dl,
	}
}

func (s *downloadStrategy) Name() string { return s.name }

func (s *downloadStrategy) Attempt(ctx context.Context, dep config.Dependency) Attempt {
	fail := func(diag string, err error) Attempt {
		return Attempt{Strategy: s.name, Diagnostic: diag, ExitCode: -1, Err: err}
	}

	dl := s.download
	if dl == nil {
		dl = dep.Download
	}
	if dl == nil {
		return fail(fmt.Sprintf("no download channel configured for %s", dep.Name), nil)
	}

	url, err := s.resolveURL(ctx, dl)
	if err != nil {
		return fail(fmt.Sprintf("resolving artifact URL: %v", err), err)
	}

	artifact, err := s.fetch(ctx, url)
	if err != nil {
		return fail(fmt.Sprintf("downloading %s: %v", url, err), err)
	}
	defer os.Remove(artifact)

	bin, runArgs := installerCommand(artifact, dl.InstallArgs)
	code, output, err := s.runner.Run(ctx, bin, runArgs...)
	if err != nil {
		return Attempt{
			Strategy:   s.name,
			ExitCode:   code,
			Diagnostic: fmt.Sprintf("installer %s failed: %v (output: %s)", url, err, trimOutput(output)),
			Err:        err,
		}
	}
	return Attempt{Strategy: s.name, Succeeded: true, ExitCode: code}
}

// releaseEntry is the shape shared by the vendor metadata feeds we consume:
// a JSON array of releases, newest first, each carrying a version string.
type releaseEntry struct {
	Version string `json:"version"`
}

// resolveURL produces the artifact URL: either the fixed URL, or the
// template expanded with the latest version from the metadata feed.
func (s *downloadStrategy) resolveURL(ctx context.Context, dl *config.Download) (string, error) {
	if dl.URL != "" {
		return dl.URL, nil
	}
	if dl.MetadataURL == "" || dl.URLTemplate == "" {
		return "", fmt.Errorf("download channel needs either url or metadata_url + url_template")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dl.MetadataURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata fetch returned %s", resp.Status)
	}

	var releases []releaseEntry
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", fmt.Errorf("parsing release metadata: %w", err)
	}
	if len(releases) == 0 || releases[0].Version == "" {
		return "", fmt.Errorf("release metadata is empty")
	}

	return expandTemplate(dl.URLTemplate, releases[0].Version), nil
}

func expandTemplate(tmpl, version string) string {
	r := strings.NewReplacer(
		"{version}", version,
		"{os}", runtime.GOOS,
		"{arch}", runtime.GOARCH,
	)
	return r.Replace(tmpl)
}

// fetch downloads url to a temp file and marks it executable. The caller
// removes the file when the attempt finishes.
func (s *downloadStrategy) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %s", resp.Status)
	}

	f, err := os.CreateTemp(s.tmpDir, "toolstrap-installer-*"+artifactExt(url))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0o755); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// installerCommand maps an artifact to the command that installs it. Plain
// executables and scripts run directly; .msi and .pkg artifacts are packages,
// not programs, and go through the platform installer.
func installerCommand(artifact string, installArgs []string) (string, []string) {
	switch {
	case strings.HasSuffix(artifact, ".msi"):
		return "msiexec", append([]string{"/i", artifact, "/qn", "/norestart"}, installArgs...)
	case strings.HasSuffix(artifact, ".pkg"):
		return "installer", append([]string{"-pkg", artifact, "-target", "/"}, installArgs...)
	default:
		return artifact, installArgs
	}
}

func artifactExt(url string) string {
	for _, ext := range []string{".exe", ".msi", ".pkg", ".sh"} {
		if strings.HasSuffix(url, ext) {
			return ext
		}
	}
	return ""
}
