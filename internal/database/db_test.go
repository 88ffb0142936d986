package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "data", "navreturns.db"),
		Profile: profile,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_Defaults(t *testing.T) {
	db := newTestDB(t, "")

	assert.Equal(t, ProfileStandard, db.profile)
	assert.Equal(t, "navreturns", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.FileExists(t, db.Path())
}

func TestBuildConnectionString(t *testing.T) {
	cache := buildConnectionString("/tmp/a.db", ProfileCache)
	assert.True(t, strings.HasPrefix(cache, "/tmp/a.db?_pragma=journal_mode(WAL)"))
	assert.Contains(t, cache, "synchronous(OFF)")
	assert.Contains(t, cache, "busy_timeout(5000)")

	standard := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, standard, "synchronous(NORMAL)")
	assert.NotContains(t, standard, "synchronous(OFF)")
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t, ProfileCache)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	for _, table := range []string{"fund_metadata", "fund_returns", "filter_cache", "refresh_runs"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, ProfileStandard)
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, code string) error {
		_, err := tx.Exec(`INSERT INTO fund_metadata (scheme_code, scheme_name, updated_at) VALUES (?, ?, ?)`, code, "Scheme "+code, time.Now().Unix())
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM fund_metadata").Scan(&n))
		return n
	}

	require.NoError(t, WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return insert(tx, "1")
	}))
	assert.Equal(t, 1, count())

	sentinel := errors.New("abort")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "2"))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, count())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "3"))
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic in transaction")
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestHealthAndStats(t *testing.T) {
	db := newTestDB(t, ProfileStandard)
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	require.NoError(t, db.EnsureAlive(ctx))
	require.NoError(t, db.QuickCheck(ctx))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.SizeBytes+stats.WALSizeBytes, int64(0))
}

func TestEnsureAlive_ClosedHandle(t *testing.T) {
	db := newTestDB(t, ProfileStandard)
	ctx := context.Background()

	// Recycling the pool keeps an open handle usable
	require.NoError(t, db.EnsureAlive(ctx))
	require.NoError(t, db.EnsureAlive(ctx))
	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT 1").Scan(&n))

	require.NoError(t, db.Close())
	err := db.EnsureAlive(ctx)
	assert.ErrorContains(t, err, "unavailable after reconnect")
	assert.ErrorContains(t, err, "database is closed")
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS fund_returns")
}
