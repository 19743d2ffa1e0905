package schema

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		cat, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if cat.Name != name {
			t.Errorf("Lookup(%q) returned %q", name, cat.Name)
		}
	}
	if _, err := Lookup("logistics"); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestEveryCategoryKeyedAndRequired(t *testing.T) {
	for _, cat := range All() {
		if len(cat.Columns) == 0 || cat.Columns[0] != KeyColumn {
			t.Errorf("%s: expected %s as first column, got %v", cat.Name, KeyColumn, cat.Columns)
		}
		if !cat.HasColumn(KeyColumn) {
			t.Errorf("%s: key column missing", cat.Name)
		}
		found := false
		for _, req := range cat.Required {
			if req == KeyColumn {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: key column not required", cat.Name)
		}
		for _, d := range cat.Dates {
			if !cat.HasColumn(d) {
				t.Errorf("%s: date column %s not in schema", cat.Name, d)
			}
			if !cat.IsDate(d) {
				t.Errorf("%s: IsDate(%s) false", cat.Name, d)
			}
		}
		for col := range cat.Defaults {
			if !cat.HasColumn(col) {
				t.Errorf("%s: default for unknown column %s", cat.Name, col)
			}
		}
	}
}

func TestCreateTableSQL(t *testing.T) {
	cat, _ := Lookup(Procurement)
	ddl := cat.CreateTableSQL()
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS procurement",
		"project_id INTEGER NOT NULL",
		"stockcode TEXT",
		"UNIQUE(project_id, stockcode)",
		"REFERENCES projects(id)",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q:\n%s", want, ddl)
		}
	}
}

func TestCreateUndoSQL(t *testing.T) {
	cat, _ := Lookup(Quality)
	ddl := cat.CreateUndoSQL()
	if !strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS quality_undo") {
		t.Errorf("Unexpected undo DDL:\n%s", ddl)
	}
	if strings.Contains(ddl, "UNIQUE") {
		t.Errorf("Undo table must not carry a uniqueness constraint:\n%s", ddl)
	}
	for _, col := range cat.Columns {
		if !strings.Contains(ddl, col+" TEXT") {
			t.Errorf("Undo DDL missing column %s:\n%s", col, ddl)
		}
	}
}

func TestQualityDefaults(t *testing.T) {
	cat, _ := Lookup(Quality)
	if cat.Defaults["fai_status"] != "Not Submitted" {
		t.Errorf("Unexpected fai_status default: %q", cat.Defaults["fai_status"])
	}
	if v, ok := cat.Defaults["fitcheck_status"]; !ok || v != "" {
		t.Errorf("Expected empty fitcheck_status default, got %q ok=%v", v, ok)
	}
}
