package store

import "database/sql"

// Change is one audit trail entry: a single column's old and new value
// from one upsert. Entries are append-only; Undo does not rewrite them.
type Change struct {
	ID         int64   `json:"id"`
	ProjectID  int64   `json:"project_id"`
	Category   string  `json:"category"`
	Stockcode  string  `json:"stockcode"`
	ColumnName string  `json:"column_name"`
	OldValue   *string `json:"old_value"`
	NewValue   *string `json:"new_value"`
	ChangedBy  string  `json:"changed_by"`
	ChangedAt  string  `json:"changed_at"`
}

// Changes returns the audit trail for a project, newest first. An empty
// category matches all categories.
func (s *Store) Changes(projectID int64, category string) ([]Change, error) {
	query := `SELECT id, project_id, category, stockcode, column_name,
		old_value, new_value, COALESCE(changed_by,''), changed_at
		FROM audit_log WHERE project_id = ?`
	args := []any{projectID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		var oldV, newV sql.NullString
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Category, &c.Stockcode, &c.ColumnName,
			&oldV, &newV, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, err
		}
		if oldV.Valid {
			c.OldValue = &oldV.String
		}
		if newV.Valid {
			c.NewValue = &newV.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
