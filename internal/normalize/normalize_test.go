package normalize

import (
	"errors"
	"testing"

	"parttrack/internal/schema"
)

func TestHeader(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"StockCode", "stockcode"},
		{"Current Supplier", "current_supplier"},
		{"  Next  Shortage   Date ", "next_shortage_date"},
		{"FAI Delivery Date", "fai_delivery_date"},
		{"fitcheck-a/c", "fitcheck_a_c"},
		{"__already__done__", "already_done"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Header(c.in); got != c.want {
			t.Errorf("Header(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHeaderIdempotent(t *testing.T) {
	inputs := []string{"Current Supplier", "next_shortage_date", "FAI #No.", "a  b  c"}
	for _, in := range inputs {
		once := Header(in)
		if twice := Header(once); twice != once {
			t.Errorf("Header not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key(" ab-12 "); got != "AB-12" {
		t.Errorf("Key(\" ab-12 \") = %q, want AB-12", got)
	}
	if got := Key("AB-12"); got != "AB-12" {
		t.Errorf("Key should be idempotent, got %q", got)
	}
}

func TestDate(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{"2024-03-01", "2024-03-01"},
		{" 2024-03-01 ", "2024-03-01"},
		{"2024-03-01 00:00:00", "2024-03-01"},
		{"2024/03/01", "2024-03-01"},
		{"03/01/2024", "2024-03-01"},
		{"1-Mar-2024", "2024-03-01"},
		{"20240301", "2024-03-01"},
		{"not a date", nil},
		{"", nil},
		{nil, nil},
	}
	for _, c := range cases {
		if got := Date(c.in); got != c.want {
			t.Errorf("Date(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	if s, ok := String(nil); ok || s != "" {
		t.Errorf("String(nil) = %q, %v", s, ok)
	}
	if s, _ := String(12.0); s != "12" {
		t.Errorf("String(12.0) = %q, want 12", s)
	}
	if s, _ := String(12.5); s != "12.5" {
		t.Errorf("String(12.5) = %q, want 12.5", s)
	}
	if s, _ := String(int64(7)); s != "7" {
		t.Errorf("String(int64(7)) = %q, want 7", s)
	}
}

func TestCheckColumns(t *testing.T) {
	cat, err := schema.Lookup(schema.Procurement)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if err := CheckColumns(cat, []string{"StockCode", "Current Supplier"}); err != nil {
		t.Errorf("Expected headers to pass, got %v", err)
	}

	err = CheckColumns(cat, []string{"Current Supplier", "AC Coverage"})
	if err == nil {
		t.Fatal("Expected missing-columns error")
	}
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingColumnsError, got %T", err)
	}
	if len(missing.Columns) != 1 || missing.Columns[0] != "stockcode" {
		t.Errorf("Expected missing [stockcode], got %v", missing.Columns)
	}
}

func TestNormalizeCanonicalizesAndRestricts(t *testing.T) {
	cat, _ := schema.Lookup(schema.Procurement)

	rows := Normalize(cat, []Row{
		{"StockCode": " ab-12 ", "Current Supplier": "Acme", "Unrelated Column": "x"},
	})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row["stockcode"] != "AB-12" {
		t.Errorf("Expected canonical key AB-12, got %v", row["stockcode"])
	}
	if row["current_supplier"] != "Acme" {
		t.Errorf("Expected supplier carried over, got %v", row["current_supplier"])
	}
	if _, ok := row["unrelated_column"]; ok {
		t.Error("Extra columns should be dropped")
	}
	if v, ok := row["ac_coverage"]; !ok || v != nil {
		t.Errorf("Absent schema column should be present and nil, got %v ok=%v", v, ok)
	}
	if len(row) != len(cat.Columns) {
		t.Errorf("Expected exactly the schema columns, got %d keys", len(row))
	}
}

func TestNormalizeDates(t *testing.T) {
	cat, _ := schema.Lookup(schema.Procurement)

	rows := Normalize(cat, []Row{
		{"StockCode": "A", "Next Shortage Date": "03/01/2024"},
		{"StockCode": "B", "Next Shortage Date": "garbage"},
	})
	if rows[0]["next_shortage_date"] != "2024-03-01" {
		t.Errorf("Expected parsed date, got %v", rows[0]["next_shortage_date"])
	}
	if rows[1]["next_shortage_date"] != nil {
		t.Errorf("Expected unparseable date to become nil, got %v", rows[1]["next_shortage_date"])
	}
}

func TestNormalizeDedupeKeepsLast(t *testing.T) {
	cat, _ := schema.Lookup(schema.Procurement)

	rows := Normalize(cat, []Row{
		{"StockCode": "AB-12", "Current Supplier": "First"},
		{"StockCode": "CD-34", "Current Supplier": "Other"},
		{"StockCode": " ab-12 ", "Current Supplier": "Last"},
	})
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows after dedupe, got %d", len(rows))
	}
	// The surviving duplicate holds its last position.
	if rows[0]["stockcode"] != "CD-34" {
		t.Errorf("Expected CD-34 first, got %v", rows[0]["stockcode"])
	}
	if rows[1]["stockcode"] != "AB-12" || rows[1]["current_supplier"] != "Last" {
		t.Errorf("Expected last AB-12 occurrence to win, got %v", rows[1])
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	cat, _ := schema.Lookup(schema.Quality)

	rows := Normalize(cat, []Row{
		{"StockCode": "AB-12", "FAI Status": "Approved"},
		{"StockCode": "CD-34"},
	})
	if rows[0]["fai_status"] != "Approved" {
		t.Errorf("Default must not override a value, got %v", rows[0]["fai_status"])
	}
	if rows[1]["fai_status"] != "Not Submitted" {
		t.Errorf("Expected fai_status default, got %v", rows[1]["fai_status"])
	}
	if rows[1]["fitcheck_status"] != "" {
		t.Errorf("Expected empty fitcheck_status default, got %v", rows[1]["fitcheck_status"])
	}
}

func TestNormalizeStringifiesNumbers(t *testing.T) {
	cat, _ := schema.Lookup(schema.Procurement)

	rows := Normalize(cat, []Row{
		{"StockCode": "AB-12", "AC Coverage": 12.0},
	})
	if rows[0]["ac_coverage"] != "12" {
		t.Errorf("Expected whole float as 12, got %v", rows[0]["ac_coverage"])
	}
}
