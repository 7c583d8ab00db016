package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository stores finished estimates in SQLite.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates an estimate repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "estimates").Logger(),
	}
}

// SaveEstimate inserts a finished estimate.
func (r *Repository) SaveEstimate(est Estimate) error {
	converged := 0
	if est.Converged {
		converged = 1
	}
	_, err := r.db.Exec(`
		INSERT INTO estimates
		(id, measure, distribution, alpha, oracle, mode, value, half_width, cost, converged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		est.ID,
		est.Measure,
		est.Distribution,
		est.Alpha,
		est.Oracle,
		est.Mode,
		est.Value,
		est.HalfWidth,
		est.Cost,
		converged,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert estimate: %w", err)
	}
	return nil
}

// ListEstimates returns the most recent estimates, newest first.
func (r *Repository) ListEstimates(limit int) ([]Estimate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, measure, distribution, alpha, oracle, mode, value, half_width, cost, converged, created_at
		FROM estimates
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	estimates := []Estimate{}
	for rows.Next() {
		var est Estimate
		var converged int
		var createdAt int64
		if err := rows.Scan(
			&est.ID,
			&est.Measure,
			&est.Distribution,
			&est.Alpha,
			&est.Oracle,
			&est.Mode,
			&est.Value,
			&est.HalfWidth,
			&est.Cost,
			&converged,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		est.Converged = converged != 0
		est.CreatedAt = time.Unix(createdAt, 0)
		estimates = append(estimates, est)
	}
	return estimates, rows.Err()
}
