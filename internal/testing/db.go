// Package testing provides testing utilities and helpers for the navreturns project.
package testing

import (
	"database/sql"
	"os"
	"testing"

	"github.com/aristath/navreturns/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a file-backed SQLite database with the schema applied.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	// Temporary files keep tests isolated from each other
	tmpFile, err := os.CreateTemp("", "test_navreturns_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "navreturns",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewMemoryDB opens an in-memory SQLite database through the cgo driver with the
// schema applied. The connection is closed when the test finishes.
func NewMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Each pooled connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	schema, err := database.Schema()
	if err != nil {
		t.Fatalf("Failed to load schema: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
