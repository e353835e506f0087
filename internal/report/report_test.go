package report

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/granjapro/granja/internal/domain"
)

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestProductionExport(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	lots := []domain.Lot{{ID: "lot-1", Code: "L-01", Breed: "Leghorn"}}
	records := []domain.ProductionRecord{
		{ID: "r1", LotID: "lot-1", Date: day, TotalEggs: 100, BrokenEggs: 5},
		{ID: "r2", LotID: "lot-gone", Date: day.AddDate(0, 0, 1), TotalEggs: 40, BrokenEggs: 0},
	}

	path := filepath.Join(t.TempDir(), "exports", "production.xlsx")
	require.NoError(t, Exporter{}.Production(lots, records, path))

	rows := readSheet(t, path, ProductionSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Record", "Lot", "Breed", "Date", "Total eggs", "Broken eggs", "Broken %"}, rows[0])
	assert.Equal(t, []string{"r1", "L-01", "Leghorn", "2026-03-09", "100", "5", "5"}, rows[1])
	assert.Equal(t, "lot-gone", rows[2][1], "unknown lots keep the raw id")
	assert.Equal(t, "2026-03-10", rows[2][3])
}

func TestAuditExport(t *testing.T) {
	admin := domain.Identity{ID: "u1", Name: "root", Role: domain.RoleAdmin, Active: true}
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	entries := []domain.AuditEntry{
		domain.NewActionEntry(admin, "lot-1", domain.EntityLot, domain.ActionCreate, "new lot L-01", at),
		domain.NewUpdateEntry(admin, "r1", domain.EntityProduction, domain.FieldTotalEggs, "95", "105", "miscount", at.Add(time.Minute)),
	}

	path := filepath.Join(t.TempDir(), "audit.xlsx")
	require.NoError(t, Exporter{}.Audit(entries, path))

	rows := readSheet(t, path, AuditSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, "Timestamp", rows[0][0])
	assert.Equal(t, []string{"2026-03-10 09:30:00", "root", "Lot", "lot-1", "Create"}, rows[1][:5])
	assert.Equal(t, []string{"2026-03-10 09:31:00", "root", "Production", "r1", "Update", "totalEggs", "95", "105", "miscount"}, rows[2])
}

func TestEmptyExportHasHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, Exporter{}.Audit(nil, path))
	assert.Len(t, readSheet(t, path, AuditSheet), 1)
}

func TestExportRequiresPath(t *testing.T) {
	err := Exporter{}.Production(nil, nil, "")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
