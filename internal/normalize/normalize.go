// Package normalize canonicalizes tabular input before it reaches the
// store: header and key normalization, column restriction, date
// parsing, deduplication and category defaults. Malformed values never
// produce errors here; they degrade to null, which is the upload
// leniency policy the rest of the system relies on.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"parttrack/internal/schema"
)

// Row is one record keyed by normalized column name. Values are either
// nil (null) or string; the normalizer stringifies everything else so
// the store's string-form diffing has a single representation to
// compare.
type Row map[string]any

// MissingColumnsError rejects an upload whose header row lacks columns
// the category requires. Every missing column is enumerated.
type MissingColumnsError struct {
	Category string
	Columns  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("upload for %s is missing required columns: %s",
		e.Category, strings.Join(e.Columns, ", "))
}

// Header normalizes a column name: lower-case, every run of
// non-alphanumeric characters collapsed to a single underscore,
// leading/trailing underscores trimmed. Idempotent.
func Header(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Key canonicalizes a stock code: trim and upper-case. Every read and
// write of the join key goes through this.
func Key(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// dateLayouts are tried in order by the permissive pass after the
// strict ISO parse fails.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// Date parses a value into an ISO-8601 calendar date string, or nil.
// Strict YYYY-MM-DD first, then a permissive pass over common layouts.
// Unparseable input becomes nil, never an error.
func Date(v any) any {
	s, ok := String(v)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return nil
}

// String returns the canonical string form of a cell value and whether
// the value is non-null. Floats that hold whole numbers render without
// a fractional part, so a spreadsheet's 12.0 and the text "12" compare
// equal downstream.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case time.Time:
		return t.Format("2006-01-02"), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// CheckColumns validates that an upload's headers, once normalized,
// cover the category's required columns. Returns a MissingColumnsError
// listing every absent one; all other schema columns may be missing and
// will be null-filled by Normalize.
func CheckColumns(cat schema.Category, headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[Header(h)] = true
	}
	var missing []string
	for _, col := range cat.Required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingColumnsError{Category: cat.Name, Columns: missing}
	}
	return nil
}

// Normalize produces the canonical row set for a category from
// arbitrary tabular input: headers normalized, keys canonicalized,
// columns restricted to the schema (absent columns null, extras
// dropped), rows deduplicated by key keeping the last occurrence,
// dates parsed, defaults applied.
func Normalize(cat schema.Category, rows []Row) []Row {
	canon := make([]Row, 0, len(rows))
	for _, raw := range rows {
		byHeader := make(map[string]any, len(raw))
		for k, v := range raw {
			byHeader[Header(k)] = v
		}

		row := make(Row, len(cat.Columns))
		for _, col := range cat.Columns {
			v := byHeader[col]
			switch {
			case col == schema.KeyColumn:
				s, ok := String(v)
				if !ok {
					row[col] = nil
					continue
				}
				row[col] = Key(s)
			case cat.IsDate(col):
				row[col] = Date(v)
			default:
				if s, ok := String(v); ok {
					row[col] = s
				} else {
					row[col] = nil
				}
			}
		}
		canon = append(canon, row)
	}

	// Dedupe by key, keeping the last occurrence at its position.
	last := make(map[string]int, len(canon))
	for i, row := range canon {
		last[rowKey(row)] = i
	}
	out := make([]Row, 0, len(last))
	for i, row := range canon {
		if last[rowKey(row)] != i {
			continue
		}
		for col, def := range cat.Defaults {
			if row[col] == nil {
				row[col] = def
			}
		}
		out = append(out, row)
	}
	return out
}

func rowKey(row Row) string {
	if s, ok := String(row[schema.KeyColumn]); ok {
		return s
	}
	return ""
}
