package store

import (
	"database/sql"
	"time"
)

// SummaryRow is one line of the joined project view: the master key
// list left-joined against all three category tables, plus the derived
// overlap metric. Nil pointers are fields with no data yet.
type SummaryRow struct {
	Stockcode   string  `json:"stockcode"`
	Description *string `json:"description"`

	CurrentSupplier  *string `json:"current_supplier"`
	ACCoverage       *string `json:"ac_coverage"`
	NextShortageDate *string `json:"next_shortage_date"`

	NewSupplier         *string `json:"new_supplier"`
	FAIDeliveryDate     *string `json:"fai_delivery_date"`
	FirstPODeliveryDate *string `json:"first_po_delivery_date"`
	OverlapDays         *int    `json:"overlap_days"`

	FAIStatus      *string `json:"fai_status"`
	FAINumber      *string `json:"fai_number"`
	FitcheckAC     *string `json:"fitcheck_ac"`
	FitcheckDate   *string `json:"fitcheck_date"`
	FitcheckStatus *string `json:"fitcheck_status"`
}

// ReadJoined builds the denormalized project view: exactly one row per
// master key list entry, category fields null where no data exists, and
// overlap_days = whole days between next_shortage_date and
// first_po_delivery_date when both parse. Read-only, recomputed per
// call.
func (s *Store) ReadJoined(projectID int64) ([]SummaryRow, error) {
	rows, err := s.db.Query(`
		SELECT
			sl.stockcode,
			sl.description,

			pr.current_supplier,
			pr.ac_coverage,
			pr.next_shortage_date,

			ind.new_supplier,
			ind.fai_delivery_date,
			ind.first_po_delivery_date,

			q.fai_status,
			q.fai_number,
			q.fitcheck_ac,
			q.fitcheck_date,
			q.fitcheck_status
		FROM stock_list sl
		LEFT JOIN procurement pr
			ON sl.project_id = pr.project_id AND sl.stockcode = pr.stockcode
		LEFT JOIN industrialization ind
			ON sl.project_id = ind.project_id AND sl.stockcode = ind.stockcode
		LEFT JOIN quality q
			ON sl.project_id = q.project_id AND sl.stockcode = q.stockcode
		WHERE sl.project_id = ?
		ORDER BY sl.stockcode`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		var fields [12]sql.NullString
		ptrs := make([]any, 0, 13)
		ptrs = append(ptrs, &r.Stockcode)
		for i := range fields {
			ptrs = append(ptrs, &fields[i])
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		dest := []**string{
			&r.Description,
			&r.CurrentSupplier, &r.ACCoverage, &r.NextShortageDate,
			&r.NewSupplier, &r.FAIDeliveryDate, &r.FirstPODeliveryDate,
			&r.FAIStatus, &r.FAINumber, &r.FitcheckAC, &r.FitcheckDate, &r.FitcheckStatus,
		}
		for i := range fields {
			if fields[i].Valid {
				v := fields[i].String
				*dest[i] = &v
			}
		}
		r.OverlapDays = overlapDays(r.NextShortageDate, r.FirstPODeliveryDate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// overlapDays is the day count between a shortage date and the first
// production PO delivery; negative when the shortage predates delivery.
func overlapDays(shortage, delivery *string) *int {
	if shortage == nil || delivery == nil {
		return nil
	}
	a, err := time.Parse("2006-01-02", *shortage)
	if err != nil {
		return nil
	}
	b, err := time.Parse("2006-01-02", *delivery)
	if err != nil {
		return nil
	}
	days := int(a.Sub(b).Hours() / 24)
	return &days
}
