package sweep

import (
	"database/sql"
	"fmt"
)

// InitSchema initializes the sweep run schema.
func InitSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sweep_runs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    scenario TEXT NOT NULL,                -- scenario JSON
    slopes TEXT NOT NULL,                  -- oracle -> exponent JSON
    curve TEXT,                            -- error curve JSON, nullable
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sweep_points (
    run_id TEXT NOT NULL,
    oracle TEXT NOT NULL,
    epsilon REAL NOT NULL,
    value REAL NOT NULL,
    half_width REAL NOT NULL,
    cost INTEGER NOT NULL,
    converged INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, oracle, epsilon)
);

CREATE INDEX IF NOT EXISTS idx_sweep_points_run ON sweep_points(run_id);
CREATE INDEX IF NOT EXISTS idx_sweep_runs_started ON sweep_runs(started_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sweep schema: %w", err)
	}
	return nil
}
