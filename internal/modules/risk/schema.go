package risk

import (
	"database/sql"
	"fmt"
)

// InitSchema initializes the risk estimates schema.
func InitSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS estimates (
    id TEXT PRIMARY KEY,
    measure TEXT NOT NULL,                 -- 'var', 'cvar' or 'evar'
    distribution TEXT NOT NULL,
    alpha REAL NOT NULL,
    oracle TEXT NOT NULL,
    mode TEXT NOT NULL,
    value REAL NOT NULL,
    half_width REAL NOT NULL,
    cost INTEGER NOT NULL,
    converged INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_estimates_measure ON estimates(measure);
CREATE INDEX IF NOT EXISTS idx_estimates_created ON estimates(created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create estimates schema: %w", err)
	}
	return nil
}
