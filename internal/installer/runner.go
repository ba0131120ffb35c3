package installer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// DefaultAttemptTimeout bounds a single installer subprocess. The upstream
// installers are expected to finish well inside this; a hung installer
// should fail the attempt, not hang the orchestrator forever.
const DefaultAttemptTimeout = 15 * time.Minute

// Runner executes an external installer or package-manager command and
// reports its exit code and combined output. Implementations must block
// until the subprocess exits or the context is done.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (exitCode int, output string, err error)
}

// ExecRunner runs commands via os/exec. Proxy environment variables pass
// through untouched — the orchestrator never interprets them, the underlying
// package manager and download tools do.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means DefaultAttemptTimeout.
	Timeout time.Duration
}

// Run executes name with args and waits for it to exit.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	if err == nil {
		return 0, string(out), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), string(out), err
	}
	return -1, string(out), err
}
