// Package store is the versioned record store: per-category upserts
// with a single-generation undo snapshot and a column-level audit
// trail, plus the joined project view. One SQLite database is the
// persistence substrate for everything, including the attachment and
// roster satellites.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"parttrack/internal/schema"
)

// Store wraps the shared database handle for the core tables.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// New wraps an already-opened (and migrated) database handle.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}
}

// OpenDB opens the SQLite database with WAL and a busy timeout, the
// settings every component shares. Callers own the handle and run
// Migrate before use.
func OpenDB(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return nil, err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Some drivers don't parse connection string params; set explicitly.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate creates every table and index the store needs. Safe to run on
// every open.
func Migrate(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS stock_list (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			stockcode TEXT,
			description TEXT,
			FOREIGN KEY(project_id) REFERENCES projects(id),
			UNIQUE(project_id, stockcode)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			stockcode TEXT NOT NULL,
			column_name TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			changed_by TEXT DEFAULT '',
			changed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id TEXT PRIMARY KEY,
			project_id INTEGER NOT NULL,
			stockcode TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_bytes BLOB NOT NULL,
			size_bytes INTEGER DEFAULT 0,
			uploaded_by TEXT DEFAULT '',
			uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(project_id) REFERENCES projects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			role TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL
		)`,
	}
	for _, c := range schema.All() {
		tables = append(tables, c.CreateTableSQL(), c.CreateUndoSQL())
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration error: %w\nSQL: %s", err, t)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_log_project ON audit_log(project_id, category)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_stockcode ON audit_log(stockcode)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_changed_at ON audit_log(changed_at)",
		"CREATE INDEX IF NOT EXISTS idx_attachments_item ON attachments(project_id, stockcode)",
		"CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)",
	}
	for _, c := range schema.All() {
		indexes = append(indexes,
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_project ON %s(project_id)", c.Name, c.Name),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_project ON %s(project_id)", c.UndoTable(), c.UndoTable()),
		)
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index creation: %w\nSQL: %s", err, idx)
		}
	}
	return nil
}
