package store

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"parttrack/internal/normalize"
	"parttrack/internal/schema"
)

// Save upserts a normalized row set into a category table for a
// project. The whole call is one transaction:
//
//  1. the previous undo snapshot for (project, category) is replaced
//     with the current live rows,
//  2. each row is upserted by (project_id, stockcode),
//  3. the row is read back and diffed column by column against its
//     pre-write state, appending one audit entry per changed column.
//
// Diffing compares the stored string form of each value, so NULL and
// "" are distinct but a number and its text render are not. Either the
// whole batch lands or none of it does.
func (s *Store) Save(projectID int64, category string, rows []normalize.Row, actor string) error {
	cat, err := schema.Lookup(category)
	if err != nil {
		return err
	}
	ok, err := s.projectExists(projectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown project %d", projectID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace the undo snapshot with the pre-write live state.
	if _, err := tx.Exec("DELETE FROM "+cat.UndoTable()+" WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clear undo snapshot: %w", err)
	}
	cols := "project_id, " + strings.Join(cat.Columns, ", ")
	if _, err := tx.Exec(fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE project_id = ?",
		cat.UndoTable(), cols, cols, cat.Name), projectID); err != nil {
		return fmt.Errorf("capture undo snapshot: %w", err)
	}

	upsertSQL := upsertStatement(cat)
	for _, row := range rows {
		key, _ := normalize.String(row[schema.KeyColumn])
		key = normalize.Key(key)
		// A keyless row cannot be upserted or joined; skip it rather
		// than seed a "" entry in the table and the master key list.
		if key == "" {
			continue
		}

		before, err := readOne(tx, cat, projectID, key)
		if err != nil {
			return fmt.Errorf("read baseline for %s: %w", key, err)
		}

		args := make([]any, 0, len(cat.Columns)+1)
		args = append(args, projectID)
		for _, col := range cat.Columns {
			if col == schema.KeyColumn {
				args = append(args, key)
				continue
			}
			args = append(args, row[col])
		}
		if _, err := tx.Exec(upsertSQL, args...); err != nil {
			return fmt.Errorf("upsert %s %s: %w", cat.Name, key, err)
		}

		after, err := readOne(tx, cat, projectID, key)
		if err != nil {
			return fmt.Errorf("read back %s: %w", key, err)
		}
		if err := s.auditDiff(tx, projectID, cat, key, before, after, actor); err != nil {
			return err
		}

		// Keep the master key list covering every uploaded key.
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO stock_list (project_id, stockcode, description) VALUES (?, ?, ?)",
			projectID, key, row["description"]); err != nil {
			return fmt.Errorf("extend stock list: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("saved category rows",
		zap.Int64("project_id", projectID),
		zap.String("category", cat.Name),
		zap.Int("rows", len(rows)),
		zap.String("actor", actor))
	return nil
}

// Undo replaces the live rows for (project, category) with whatever the
// snapshot holds. The snapshot itself is left in place, so a second
// Undo changes nothing, and the audit trail is not rewritten. Returns
// the number of rows restored; zero means the snapshot was empty (or
// never captured).
func (s *Store) Undo(projectID int64, category string) (int64, error) {
	cat, err := schema.Lookup(category)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM "+cat.Name+" WHERE project_id = ?", projectID); err != nil {
		return 0, fmt.Errorf("clear live rows: %w", err)
	}
	cols := "project_id, " + strings.Join(cat.Columns, ", ")
	res, err := tx.Exec(fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE project_id = ?",
		cat.Name, cols, cols, cat.UndoTable()), projectID)
	if err != nil {
		return 0, fmt.Errorf("restore snapshot: %w", err)
	}
	restored, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Info("restored undo snapshot",
		zap.Int64("project_id", projectID),
		zap.String("category", cat.Name),
		zap.Int64("rows", restored))
	return restored, nil
}

// Read returns the live rows for (project, category) ordered by
// stockcode, with values in the normalizer's nil-or-string form.
func (s *Store) Read(projectID int64, category string) ([]normalize.Row, error) {
	cat, err := schema.Lookup(category)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ? ORDER BY %s",
		strings.Join(cat.Columns, ", "), cat.Name, schema.KeyColumn), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.Row
	for rows.Next() {
		row, err := scanRow(rows, cat)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// upsertStatement builds the INSERT .. ON CONFLICT for a category from
// its fixed descriptor. Column names come from the registry, never from
// input.
func upsertStatement(cat schema.Category) string {
	cols := append([]string{"project_id"}, cat.Columns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	var updates []string
	for _, col := range cat.Columns {
		if col == schema.KeyColumn {
			continue
		}
		updates = append(updates, col+"=excluded."+col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(project_id, %s) DO UPDATE SET %s",
		cat.Name, strings.Join(cols, ", "), placeholders, schema.KeyColumn, strings.Join(updates, ", "))
}

// readOne fetches a single live row inside the transaction, or nil if
// the key has no row yet.
func readOne(tx *sql.Tx, cat schema.Category, projectID int64, key string) (normalize.Row, error) {
	rows, err := tx.Query(fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ? AND %s = ?",
		strings.Join(cat.Columns, ", "), cat.Name, schema.KeyColumn), projectID, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRow(rows, cat)
}

func scanRow(rows *sql.Rows, cat schema.Category) (normalize.Row, error) {
	vals := make([]sql.NullString, len(cat.Columns))
	ptrs := make([]any, len(cat.Columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(normalize.Row, len(cat.Columns))
	for i, col := range cat.Columns {
		if vals[i].Valid {
			row[col] = vals[i].String
		} else {
			row[col] = nil
		}
	}
	return row, nil
}

// auditDiff appends one audit entry per column whose string form
// changed between before and after. A nil before row means first-time
// insert: old_value is NULL for every entry.
func (s *Store) auditDiff(tx *sql.Tx, projectID int64, cat schema.Category, key string, before, after normalize.Row, actor string) error {
	for _, col := range cat.Columns {
		var oldV, newV any
		oldNull := true
		if before != nil {
			oldV = before[col]
			oldNull = oldV == nil
		}
		newV = after[col]
		newNull := newV == nil

		if oldNull == newNull {
			if oldNull {
				continue
			}
			os, _ := normalize.String(oldV)
			ns, _ := normalize.String(newV)
			if os == ns {
				continue
			}
		}
		if _, err := tx.Exec(`INSERT INTO audit_log
			(project_id, category, stockcode, column_name, old_value, new_value, changed_by)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, cat.Name, key, col, oldV, newV, actor); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}
	return nil
}
