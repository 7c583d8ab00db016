package sweep

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/database"
	"github.com/aristath/tailrisk/internal/modules/montecarlo"
)

// Repository stores sweep runs in SQLite.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a sweep run repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "sweep_runs").Logger(),
	}
}

// SaveRun inserts a finished run and its points in one transaction.
func (r *Repository) SaveRun(run RunResult) error {
	scenarioJSON, err := json.Marshal(run.Scenario)
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}
	slopesJSON, err := json.Marshal(run.Slopes)
	if err != nil {
		return fmt.Errorf("failed to encode slopes: %w", err)
	}
	var curveJSON []byte
	if run.Curve != nil {
		curveJSON, err = json.Marshal(run.Curve)
		if err != nil {
			return fmt.Errorf("failed to encode error curve: %w", err)
		}
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sweep_runs (id, name, scenario, slopes, curve, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.Scenario.Name,
			string(scenarioJSON),
			string(slopesJSON),
			nullableString(curveJSON),
			run.StartedAt.Unix(),
			run.FinishedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sweep run: %w", err)
		}

		for _, p := range run.Points {
			converged := 0
			if p.Converged {
				converged = 1
			}
			_, err = tx.Exec(`
				INSERT INTO sweep_points (run_id, oracle, epsilon, value, half_width, cost, converged)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, run.ID, p.Oracle, p.Epsilon, p.Value, p.HalfWidth, p.Cost, converged)
			if err != nil {
				return fmt.Errorf("failed to insert sweep point: %w", err)
			}
		}

		return nil
	})
}

// GetRun loads a run with its points. Returns nil when the ID is unknown.
func (r *Repository) GetRun(id string) (*RunResult, error) {
	var run RunResult
	var scenarioJSON, slopesJSON string
	var curveJSON sql.NullString
	var startedAt, finishedAt int64

	err := r.db.QueryRow(`
		SELECT id, scenario, slopes, curve, started_at, finished_at
		FROM sweep_runs WHERE id = ?
	`, id).Scan(&run.ID, &scenarioJSON, &slopesJSON, &curveJSON, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep run: %w", err)
	}

	if err := json.Unmarshal([]byte(scenarioJSON), &run.Scenario); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := json.Unmarshal([]byte(slopesJSON), &run.Slopes); err != nil {
		return nil, fmt.Errorf("failed to decode slopes: %w", err)
	}
	if curveJSON.Valid {
		run.Curve = &montecarlo.CurveResult{}
		if err := json.Unmarshal([]byte(curveJSON.String), run.Curve); err != nil {
			return nil, fmt.Errorf("failed to decode error curve: %w", err)
		}
	}
	run.StartedAt = time.Unix(startedAt, 0)
	run.FinishedAt = time.Unix(finishedAt, 0)

	rows, err := r.db.Query(`
		SELECT oracle, epsilon, value, half_width, cost, converged
		FROM sweep_points WHERE run_id = ?
		ORDER BY oracle, epsilon DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Point
		var converged int
		if err := rows.Scan(&p.Oracle, &p.Epsilon, &p.Value, &p.HalfWidth, &p.Cost, &converged); err != nil {
			return nil, fmt.Errorf("failed to scan sweep point: %w", err)
		}
		p.Converged = converged != 0
		run.Points = append(run.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns run summaries, newest first.
func (r *Repository) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT r.id, r.name, r.started_at, r.finished_at,
		       (SELECT COUNT(*) FROM sweep_points p WHERE p.run_id = r.id)
		FROM sweep_runs r
		ORDER BY r.started_at DESC, r.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var s RunSummary
		var startedAt, finishedAt int64
		if err := rows.Scan(&s.ID, &s.Name, &startedAt, &finishedAt, &s.Points); err != nil {
			return nil, fmt.Errorf("failed to scan sweep run: %w", err)
		}
		s.StartedAt = time.Unix(startedAt, 0)
		s.FinishedAt = time.Unix(finishedAt, 0)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
