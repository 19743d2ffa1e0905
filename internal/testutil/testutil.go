// Package testutil holds shared fixtures for store-backed tests.
package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"parttrack/internal/store"
)

// SetupTestDB creates an in-memory SQLite database with foreign keys
// enabled and the full schema migrated.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// A pooled second connection would see its own empty in-memory DB.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}
	return db
}

// CreateTestProject inserts a project row directly and returns its id.
func CreateTestProject(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO projects (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
