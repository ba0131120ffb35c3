package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color codes for check-line rendering.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colored(color, s string) string {
	if !IsColorEnabled() {
		return s
	}
	return color + s + colorReset
}

// Pass prints a ✓ check line.
func Pass(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", colored(colorGreen, "✓"), fmt.Sprintf(format, args...))
}

// Warn prints a ⚠ check line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", colored(colorYellow, "⚠"), fmt.Sprintf(format, args...))
}

// Fail prints a ✗ check line.
func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", colored(colorRed, "✗"), fmt.Sprintf(format, args...))
}

// Action prints an indented remediation hint under a check line.
func Action(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  Action: %s\n", fmt.Sprintf(format, args...))
}
