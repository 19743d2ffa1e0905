// Package schema is the static registry of the workflow category
// tables. Each category is described once, and everything downstream
// (DDL, upsert column lists, normalization, templates) is derived from
// the descriptor rather than repeated per table.
package schema

import (
	"fmt"
	"strings"
)

// KeyColumn is the join key shared by every category table and the
// master stock list.
const KeyColumn = "stockcode"

// Category table names.
const (
	Procurement       = "procurement"
	Industrialization = "industrialization"
	Quality           = "quality"
)

// Category describes one workflow table: the live table name, the
// canonical column order (key first), which columns hold calendar
// dates, defaults applied to null fields after normalization, and the
// columns an upload must carry to be accepted at all.
type Category struct {
	Name     string
	Columns  []string
	Dates    []string
	Defaults map[string]string
	Required []string
}

var categories = []Category{
	{
		Name:     Procurement,
		Columns:  []string{"stockcode", "description", "current_supplier", "ac_coverage", "next_shortage_date"},
		Dates:    []string{"next_shortage_date"},
		Required: []string{"stockcode"},
	},
	{
		Name:     Industrialization,
		Columns:  []string{"stockcode", "description", "new_supplier", "fai_delivery_date", "first_po_delivery_date"},
		Dates:    []string{"fai_delivery_date", "first_po_delivery_date"},
		Required: []string{"stockcode"},
	},
	{
		Name:    Quality,
		Columns: []string{"stockcode", "description", "fai_status", "fai_number", "fitcheck_ac", "fitcheck_date", "fitcheck_status"},
		Dates:   []string{"fitcheck_date"},
		Defaults: map[string]string{
			"fai_status":      "Not Submitted",
			"fitcheck_status": "",
		},
		Required: []string{"stockcode"},
	},
}

// Lookup returns the descriptor for a category name. An unknown name is
// a configuration error and fails fast.
func Lookup(name string) (Category, error) {
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("unknown category %q", name)
}

// Names returns the registered category names in registry order.
func Names() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// All returns every registered category descriptor.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// UndoTable is the shadow table holding the single-generation snapshot
// for this category.
func (c Category) UndoTable() string {
	return c.Name + "_undo"
}

// HasColumn reports whether col is part of the category's schema.
func (c Category) HasColumn(col string) bool {
	for _, name := range c.Columns {
		if name == col {
			return true
		}
	}
	return false
}

// IsDate reports whether col is a date-typed column.
func (c Category) IsDate(col string) bool {
	for _, name := range c.Dates {
		if name == col {
			return true
		}
	}
	return false
}

// CreateTableSQL returns the DDL for the live category table. All
// fields are TEXT; dates are stored as ISO-8601 strings or NULL.
func (c Category) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", c.Name)
	b.WriteString("\tproject_id INTEGER NOT NULL,\n")
	for _, col := range c.Columns {
		fmt.Fprintf(&b, "\t%s TEXT", col)
		if def, ok := c.Defaults[col]; ok {
			fmt.Fprintf(&b, " DEFAULT '%s'", def)
		}
		b.WriteString(",\n")
	}
	b.WriteString("\tFOREIGN KEY(project_id) REFERENCES projects(id),\n")
	fmt.Fprintf(&b, "\tUNIQUE(project_id, %s)\n)", KeyColumn)
	return b.String()
}

// CreateUndoSQL returns the DDL for the undo shadow table. Same column
// set as the live table, no uniqueness constraint: the snapshot is
// written and read wholesale, never upserted.
func (c Category) CreateUndoSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", c.UndoTable())
	b.WriteString("\tproject_id INTEGER NOT NULL")
	for _, col := range c.Columns {
		fmt.Fprintf(&b, ",\n\t%s TEXT", col)
	}
	b.WriteString("\n)")
	return b.String()
}
