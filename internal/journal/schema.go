package journal

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    profile TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS probes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    dependency TEXT NOT NULL,
    phase TEXT NOT NULL,
    found BOOLEAN NOT NULL,
    path TEXT,
    version TEXT,
    recorded_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    dependency TEXT NOT NULL,
    strategy TEXT NOT NULL,
    succeeded BOOLEAN NOT NULL,
    exit_code INTEGER,
    diagnostic TEXT,
    recorded_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_probes_run ON probes(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
`
