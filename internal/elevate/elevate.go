// Package elevate relaunches the orchestrator with elevated privileges when
// a machine-scope install strategy needs them. The escalation happens at
// most once per logical run: the relaunched child carries a marker in its
// environment, and a process that holds the marker but still is not elevated
// fails instead of relaunching again. That invariant is what prevents
// elevation-prompt loops.
package elevate

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// ErrElevationRefused reports that the user (or the platform elevator)
// declined to grant elevation. Surfaced distinctly from installer failures
// so the caller can tell a permissions decision from a tool bug.
var ErrElevationRefused = errors.New("elevation refused")

// markerEnv is set in the relaunched child's environment. Its presence in a
// process that is still not elevated means escalation already happened and
// failed; we must not relaunch again.
const markerEnv = "TOOLSTRAP_ELEVATED"

// winErrCancelled is the Win32 ERROR_CANCELLED code; Start-Process throws it
// when the user declines the UAC prompt.
const winErrCancelled = 1223

// Escalator manages the single allowed privilege escalation for a run.
// The zero value is not usable; call New.
type Escalator struct {
	isElevated func() bool
	validate   func() error
	relaunch   func(args, env []string) (int, error)
	exit       func(code int)
	getenv     func(string) string

	relaunched bool
}

// New returns an Escalator wired to the real process state.
func New() *Escalator {
	return &Escalator{
		isElevated: processElevated,
		validate:   validateElevator,
		relaunch:   relaunchElevated,
		exit:       os.Exit,
		getenv:     os.Getenv,
	}
}

// Elevated reports whether the current process already holds elevated
// privileges. Computed from live process state on each call; callers treat
// the startup value as authoritative for the run.
func (e *Escalator) Elevated() bool {
	return e.isElevated()
}

// EnsureElevated returns nil immediately when the process is already
// elevated. Otherwise it relaunches the orchestrator elevated with the
// given arguments, waits for the child, and exits the current process with
// the child's code — it does not return on the relaunch path. If escalation
// already happened once this run, or the elevator refuses, it returns an
// error wrapping ErrElevationRefused.
func (e *Escalator) EnsureElevated(args []string) error {
	if e.isElevated() {
		return nil
	}

	if e.getenv(markerEnv) == "1" {
		// We were already relaunched and still lack privileges: the user
		// declined the prompt or the elevator is broken. Fail the
		// dependency rather than loop.
		return fmt.Errorf("relaunched process still not elevated: %w", ErrElevationRefused)
	}
	if e.relaunched {
		return fmt.Errorf("escalation already attempted this run: %w", ErrElevationRefused)
	}
	e.relaunched = true

	// Prove the elevator will grant privileges before handing the run over.
	// A declined password prompt must fall through to the next strategy, not
	// masquerade as an installer failure.
	if e.validate != nil {
		if err := e.validate(); err != nil {
			return fmt.Errorf("elevator declined: %v: %w", err, ErrElevationRefused)
		}
	}

	env := append(os.Environ(), markerEnv+"=1")
	code, err := e.relaunch(args, env)
	if err != nil {
		return fmt.Errorf("relaunching elevated: %w (%w)", err, ErrElevationRefused)
	}

	// Full hand-off: the elevated child did the work, the parent just
	// forwards its exit code.
	e.exit(code)
	return nil
}

func processElevated() bool {
	if runtime.GOOS == "windows" {
		// Writing to the system root requires an elevated token.
		dir := os.Getenv("SystemRoot")
		if dir == "" {
			dir = `C:\Windows`
		}
		f, err := os.CreateTemp(dir, "toolstrap-elev-*")
		if err != nil {
			return false
		}
		f.Close()
		os.Remove(f.Name())
		return true
	}
	return os.Geteuid() == 0
}

// validateElevator checks that the platform elevator will actually grant
// privileges. On unix, `sudo -v` prompts for and caches credentials, so the
// relaunch that follows will not prompt again; a failed or declined prompt
// is a refusal. UAC has no pre-flight check — on Windows refusal is detected
// by the relaunch itself (ERROR_CANCELLED).
func validateElevator() error {
	if runtime.GOOS == "windows" {
		return nil
	}
	cmd := exec.Command("sudo", "-v")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sudo credential check failed: %w", err)
	}
	return nil
}

// relaunchElevated starts an elevated copy of the current executable with
// the given arguments, waits for it, and returns its exit code. A returned
// error means the child never ran.
func relaunchElevated(args, env []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolving executable: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("powershell", "-NoProfile", "-Command", powershellCommand(exe, args))
	default:
		cmd = exec.Command("sudo", append([]string{exe}, args...)...)
	}
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if runtime.GOOS == "windows" && code == winErrCancelled {
			return 0, fmt.Errorf("elevation prompt declined")
		}
		return code, nil
	}
	return 0, err
}

// powershellCommand builds the script that relaunches exe elevated and
// forwards the child's exit code. Start-Process succeeding only means the
// child was launched; -PassThru exposes the process handle so the script can
// wait out the child and exit with its code. A declined UAC prompt makes
// Start-Process throw, which the catch converts to ERROR_CANCELLED.
func powershellCommand(exe string, args []string) string {
	var b strings.Builder
	b.WriteString("try { $p = Start-Process -FilePath ")
	b.WriteString(psQuote(exe))
	if len(args) > 0 {
		b.WriteString(" -ArgumentList ")
		b.WriteString(psQuoteList(args))
	}
	b.WriteString(" -Verb RunAs -Wait -PassThru } catch { exit ")
	b.WriteString(strconv.Itoa(winErrCancelled))
	b.WriteString(" }; exit $p.ExitCode")
	return b.String()
}

// psQuote single-quotes s for PowerShell, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// psQuoteList quotes each argument individually so arguments containing
// spaces survive the hand-off intact.
func psQuoteList(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = psQuote(a)
	}
	return strings.Join(quoted, ",")
}
