// Package assets downloads named configuration files into the user config
// tree. Straight-line I/O: per-file success or failure, no retries — the
// orchestrator reports failures and moves on.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/toolstrap/internal/config"
)

// Result is the outcome of fetching one asset.
type Result struct {
	Asset   config.Asset
	Skipped bool
	Err     error
}

// Fetch downloads each asset to its destination path, creating parent
// directories as needed. When skipIfExists is set, destinations that already
// exist are left untouched and reported as skipped. Always returns one
// Result per asset, in input order.
func Fetch(ctx context.Context, client *http.Client, list []config.Asset, skipIfExists bool) []Result {
	if client == nil {
		client = http.DefaultClient
	}

	results := make([]Result, 0, len(list))
	for _, asset := range list {
		res := Result{Asset: asset}

		if skipIfExists {
			if _, err := os.Stat(asset.Dest); err == nil {
				res.Skipped = true
				results = append(results, res)
				continue
			}
		}

		res.Err = fetchOne(ctx, client, asset)
		results = append(results, res)
	}
	return results
}

func fetchOne(ctx context.Context, client *http.Client, asset config.Asset) error {
	if err := os.MkdirAll(filepath.Dir(asset.Dest), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", asset.Dest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", asset.URL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", asset.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: %s", asset.URL, resp.Status)
	}

	// Write to a temp file in the destination directory, then rename, so a
	// failed download never leaves a truncated asset behind.
	tmp, err := os.CreateTemp(filepath.Dir(asset.Dest), ".toolstrap-asset-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", asset.Dest, err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", asset.Dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", asset.Dest, err)
	}
	if err := os.Rename(tmp.Name(), asset.Dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("moving %s into place: %w", asset.Dest, err)
	}
	return nil
}

// Failed filters results down to the ones that errored.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
