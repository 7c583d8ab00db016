package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a file-backed SQLite database in a temp directory.
// A file is used instead of :memory: so that WAL mode and the stats
// queries behave the same way they do in production.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS test_table (
			id INTEGER PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func TestNewCreatesDatabaseFile(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, "test", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	require.NoError(t, db.QuickCheck(context.Background()))
}

func TestHealthCheckPassesOnFreshDatabase(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestWithTransactionCommits(t *testing.T) {
	db := setupTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO test_table (value) VALUES (?)", "committed")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)

	wantErr := errors.New("intentional failure")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO test_table (value) VALUES (?)", "doomed"); err != nil {
			return err
		}
		return wantErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count))
	assert.Equal(t, 0, count, "insert should have been rolled back")
}

func TestWithTransactionRecoversFromPanic(t *testing.T) {
	db := setupTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO test_table (value) VALUES (?)", "doomed"); err != nil {
			return err
		}
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransactionNilConnection(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	require.Error(t, err)
}

func TestGetStatsReportsPages(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 100; i++ {
		_, err := db.Exec("INSERT INTO test_table (value) VALUES (?)", fmt.Sprintf("row-%d", i))
		require.NoError(t, err)
	}

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestMaintenanceJobTruncatesWAL(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 100; i++ {
		_, err := db.Exec("INSERT INTO test_table (value) VALUES (?)", fmt.Sprintf("row-%d", i))
		require.NoError(t, err)
	}

	job := NewMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "db-maintenance", job.Name())
	require.NoError(t, job.Run())

	// Database still usable afterwards
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count))
	assert.Equal(t, 100, count)
}
