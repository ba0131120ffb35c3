package journal

import "time"

// Run is one orchestration invocation.
type Run struct {
	ID         int64
	Profile    string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ProbeRecord is one persisted probe result.
type ProbeRecord struct {
	Dependency string
	Phase      string // "pre" or "post"
	Found      bool
	Path       string
	Version    string
	RecordedAt time.Time
}

// AttemptRecord is one persisted install attempt.
type AttemptRecord struct {
	Dependency string
	Strategy   string
	Succeeded  bool
	ExitCode   int
	Diagnostic string
	RecordedAt time.Time
}
