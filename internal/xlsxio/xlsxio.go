// Package xlsxio reads and writes the spreadsheet files the tracker
// exchanges with its users: category uploads, the identity roster, and
// downloadable templates and summaries. Uploads do not assume the
// header sits on the first physical row; it is located by keyword match
// against the category's vocabulary, and everything above it is
// ignored.
package xlsxio

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"parttrack/internal/normalize"
	"parttrack/internal/roster"
	"parttrack/internal/schema"
	"parttrack/internal/store"
)

// ReadTable reads the first sheet of a workbook and returns the
// detected header row plus the data rows beneath it, keyed by the raw
// header text. Cells are plain strings; the normalizer handles typing.
func ReadTable(r io.Reader, vocabulary []string) ([]string, []normalize.Row, error) {
	grid, err := readGrid(r)
	if err != nil {
		return nil, nil, err
	}
	headerIdx := detectHeader(grid, vocabulary)
	if headerIdx < 0 {
		return nil, nil, fmt.Errorf("no header row matched expected columns: %s", strings.Join(vocabulary, ", "))
	}
	headers := grid[headerIdx]

	var rows []normalize.Row
	for _, cells := range grid[headerIdx+1:] {
		if blankRow(cells) {
			continue
		}
		row := make(normalize.Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) && cells[i] != "" {
				row[h] = cells[i]
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// LoadCategory is the whole upload path for one category file: header
// detection, required-column check, normalization. The returned rows
// are ready for Store.Save.
func LoadCategory(r io.Reader, cat schema.Category) ([]normalize.Row, error) {
	headers, rows, err := ReadTable(r, cat.Columns)
	if err != nil {
		return nil, err
	}
	if err := normalize.CheckColumns(cat, headers); err != nil {
		return nil, err
	}
	return normalize.Normalize(cat, rows), nil
}

// rosterColumns is the fixed vocabulary of the identity roster file.
var rosterColumns = []string{"email", "role", "password"}

// ReadRoster loads an identity roster file (columns Email, Role,
// Password) for BulkUpsert.
func ReadRoster(r io.Reader) ([]roster.Identity, error) {
	headers, rows, err := ReadTable(r, rosterColumns)
	if err != nil {
		return nil, err
	}
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		byNorm[normalize.Header(h)] = h
	}
	var out []roster.Identity
	for _, row := range rows {
		cell := func(col string) string {
			s, _ := normalize.String(row[byNorm[col]])
			return strings.TrimSpace(s)
		}
		out = append(out, roster.Identity{
			Email:    cell("email"),
			Role:     cell("role"),
			Password: cell("password"),
		})
	}
	return out, nil
}

// detectHeader returns the index of the first row where any cell
// normalizes to a vocabulary column, or -1.
func detectHeader(grid [][]string, vocabulary []string) int {
	vocab := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		vocab[normalize.Header(v)] = true
	}
	for i, cells := range grid {
		for _, cell := range cells {
			if vocab[normalize.Header(cell)] {
				return i
			}
		}
	}
	return -1
}

func readGrid(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return grid, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// writeSheet writes a header row plus data into a fresh workbook, with
// the header bolded the way every exported sheet looks.
func writeSheet(w io.Writer, sheetName string, headers []string, data [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	return f.Write(w)
}

// WriteTemplate writes a blank upload template for a category: just the
// display headers, ready to fill in.
func WriteTemplate(w io.Writer, cat schema.Category) error {
	headers := make([]string, len(cat.Columns))
	for i, col := range cat.Columns {
		headers[i] = displayName(col)
	}
	sheet := strings.ToUpper(cat.Name[:1]) + cat.Name[1:]
	return writeSheet(w, sheet, headers, nil)
}

var summaryHeaders = []string{
	"StockCode", "Description",
	"Current_Supplier", "AC_Coverage", "Next_Shortage_Date",
	"New_Supplier", "FAI_Delivery_Date", "First_PO_Delivery_Date", "Overlap_Days",
	"FAI_Status", "FAI_Number", "Fitcheck_AC", "Fitcheck_Date", "Fitcheck_Status",
}

// WriteSummary exports the joined project view as a workbook.
func WriteSummary(w io.Writer, rows []store.SummaryRow) error {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		overlap := ""
		if r.OverlapDays != nil {
			overlap = fmt.Sprintf("%d", *r.OverlapDays)
		}
		data = append(data, []string{
			r.Stockcode, deref(r.Description),
			deref(r.CurrentSupplier), deref(r.ACCoverage), deref(r.NextShortageDate),
			deref(r.NewSupplier), deref(r.FAIDeliveryDate), deref(r.FirstPODeliveryDate), overlap,
			deref(r.FAIStatus), deref(r.FAINumber), deref(r.FitcheckAC), deref(r.FitcheckDate), deref(r.FitcheckStatus),
		})
	}
	return writeSheet(w, "Summary", summaryHeaders, data)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// abbreviations that stay upper-case in display headers.
var displayAbbrev = map[string]string{
	"ac":  "AC",
	"fai": "FAI",
	"po":  "PO",
}

// displayName turns a normalized column name back into the
// underscore-capitalized header style the templates use, e.g.
// first_po_delivery_date -> First_PO_Delivery_Date.
func displayName(col string) string {
	if col == schema.KeyColumn {
		return "StockCode"
	}
	parts := strings.Split(col, "_")
	for i, p := range parts {
		if up, ok := displayAbbrev[p]; ok {
			parts[i] = up
		} else if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "_")
}
