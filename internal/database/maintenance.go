package database

import (
	"github.com/rs/zerolog"
)

// MaintenanceJob truncates the WAL file on a schedule so it cannot grow
// unbounded on a long-running service.
type MaintenanceJob struct {
	db  *DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a WAL checkpoint job for the given database.
func NewMaintenanceJob(db *DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *MaintenanceJob) Name() string {
	return "db-maintenance"
}

// Run performs a TRUNCATE checkpoint and logs the resulting file sizes.
func (j *MaintenanceJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(); err == nil {
		j.log.Info().
			Str("database", j.db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Msg("WAL checkpoint completed")
	}

	return nil
}
