// Package report exports production records and audit entries as .xlsx workbooks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/granjapro/granja/internal/domain"
)

// Sheet names.
const (
	ProductionSheet = "Production"
	AuditSheet      = "Audit"
)

var (
	productionHeader = []any{"Record", "Lot", "Breed", "Date", "Total eggs", "Broken eggs", "Broken %"}
	auditHeader      = []any{"Timestamp", "Actor", "Entity type", "Entity", "Action", "Field", "Old value", "New value", "Reason"}
)

// Exporter writes workbooks. The zero value is ready to use.
type Exporter struct {
	// Location is used to render timestamps; nil means UTC.
	Location *time.Location
}

// Production writes one row per record. Lots supply the code and breed columns;
// a record whose lot is unknown keeps its raw lot id.
func (x Exporter) Production(lots []domain.Lot, records []domain.ProductionRecord, path string) error {
	byID := make(map[string]domain.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		lotName, breed := r.LotID, ""
		if l, ok := byID[r.LotID]; ok {
			lotName, breed = l.Code, l.Breed
		}
		rows = append(rows, []any{
			r.ID,
			lotName,
			breed,
			r.Date.Format(domain.DateLayout),
			r.TotalEggs,
			r.BrokenEggs,
			round2(r.BrokenRate()),
		})
	}
	return x.write(path, ProductionSheet, productionHeader, rows)
}

// Audit writes one row per entry, in the order given.
func (x Exporter) Audit(entries []domain.AuditEntry, path string) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var field, oldValue, newValue string
		if e.Change != nil {
			field, oldValue, newValue = e.Change.Field, e.Change.OldValue, e.Change.NewValue
		}
		rows = append(rows, []any{
			e.Timestamp.In(x.location()).Format(time.DateTime),
			e.ActorName,
			string(e.EntityType),
			e.EntityID,
			string(e.Action),
			field,
			oldValue,
			newValue,
			e.Reason,
		})
	}
	return x.write(path, AuditSheet, auditHeader, rows)
}

func (x Exporter) location() *time.Location {
	if x.Location == nil {
		return time.UTC
	}
	return x.Location
}

func (x Exporter) write(path, sheet string, header []any, rows [][]any) error {
	if path == "" {
		return fmt.Errorf("%w: export path is required", domain.ErrValidation)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
