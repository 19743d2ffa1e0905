package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"parttrack/internal/normalize"
)

// Project is one tracked project. Identity is by unique name.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StockItem is one entry in a project's master key list.
type StockItem struct {
	Stockcode   string `json:"stockcode"`
	Description string `json:"description"`
}

// AddProject creates a project by name, or returns the existing one,
// and upserts the given stock items into its master key list. Creation
// and seeding are one transaction.
func (s *Store) AddProject(name string, items []StockItem) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("project name required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO projects (name) VALUES (?)", name); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow("SELECT id FROM projects WHERE name = ?", name).Scan(&id); err != nil {
		return 0, err
	}

	for _, item := range items {
		code := normalize.Key(item.Stockcode)
		if code == "" {
			continue
		}
		_, err := tx.Exec(`INSERT INTO stock_list (project_id, stockcode, description)
			VALUES (?, ?, ?)
			ON CONFLICT(project_id, stockcode) DO UPDATE SET description=excluded.description`,
			id, code, item.Description)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Info("project ready", zap.String("name", name), zap.Int64("id", id), zap.Int("stock_items", len(items)))
	return id, nil
}

// Projects lists all projects, newest first.
func (s *Store) Projects() ([]Project, error) {
	rows, err := s.db.Query("SELECT id, name FROM projects ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StockItems returns a project's master key list ordered by stockcode.
func (s *Store) StockItems(projectID int64) ([]StockItem, error) {
	rows, err := s.db.Query(
		"SELECT stockcode, COALESCE(description,'') FROM stock_list WHERE project_id = ? ORDER BY stockcode",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockItem
	for rows.Next() {
		var it StockItem
		if err := rows.Scan(&it.Stockcode, &it.Description); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// projectExists reports whether a project id is known.
func (s *Store) projectExists(id int64) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM projects WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
