package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/toolstrap/internal/installer"
	"github.com/blackwell-systems/toolstrap/internal/probe"
)

// BeginRun inserts a new run row and returns a Recorder scoped to it.
func (s *Store) BeginRun(profile string) (*Recorder, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (profile, started_at, status) VALUES (?, ?, ?)`,
		profile, time.Now().UTC().Format(time.RFC3339), StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read run id: %w", err)
	}
	return &Recorder{store: s, runID: id}, nil
}

// LatestRun returns the most recent run, or nil when the journal is empty.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, profile, started_at, finished_at, status
		 FROM runs ORDER BY id DESC LIMIT 1`,
	)

	var run Run
	var started string
	var finished sql.NullString
	err := row.Scan(&run.ID, &run.Profile, &started, &finished, &run.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
	}
	return &run, nil
}

// RunAttempts returns all attempts recorded for a run, in insertion order.
func (s *Store) RunAttempts(runID int64) ([]AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT dependency, strategy, succeeded, exit_code, diagnostic, recorded_at
		 FROM attempts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var recorded string
		if err := rows.Scan(&rec.Dependency, &rec.Strategy, &rec.Succeeded, &rec.ExitCode, &rec.Diagnostic, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		rec.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunProbes returns all probe results recorded for a run, in insertion order.
func (s *Store) RunProbes(runID int64) ([]ProbeRecord, error) {
	rows, err := s.db.Query(
		`SELECT dependency, phase, found, path, version, recorded_at
		 FROM probes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read probes: %w", err)
	}
	defer rows.Close()

	var out []ProbeRecord
	for rows.Next() {
		var rec ProbeRecord
		var recorded string
		if err := rows.Scan(&rec.Dependency, &rec.Phase, &rec.Found, &rec.Path, &rec.Version, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan probe: %w", err)
		}
		rec.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Recorder appends events for one run. It satisfies installer.Journal.
// Insert failures are swallowed: journaling must never fail a bootstrap.
type Recorder struct {
	store *Store
	runID int64
}

// RunID returns the journal id of the run being recorded.
func (r *Recorder) RunID() int64 { return r.runID }

// Probed records a probe result.
func (r *Recorder) Probed(dep, phase string, res probe.Result) {
	version := ""
	if res.Version != nil {
		version = res.Version.String()
	}
	_, _ = r.store.db.Exec(
		`INSERT INTO probes (run_id, dependency, phase, found, path, version, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, dep, phase, res.Found, res.Path, version,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// Attempted records an install attempt.
func (r *Recorder) Attempted(dep string, a installer.Attempt) {
	_, _ = r.store.db.Exec(
		`INSERT INTO attempts (run_id, dependency, strategy, succeeded, exit_code, diagnostic, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, dep, a.Strategy, a.Succeeded, a.ExitCode, a.Diagnostic,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// Finish marks the run terminal with the given status.
func (r *Recorder) Finish(status string) error {
	_, err := r.store.db.Exec(
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, r.runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}
