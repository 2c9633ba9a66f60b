package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"gnlreports/pkg/contracts/domain"
)

// MasterHeaders is the header row of the master workbook as the plant exports it,
// with line breaks inside the cells.
var MasterHeaders = []string{
	"FECHA",
	"GNL\nPRODUCCION GNL\n(TN)",
	"GNL\nPRODUCCION GNL\n(M3)",
	"GAS PSL\nCOMBUSTIBLE\n(MMPCD)",
	"GAS PSL\nGAS A GNL\n(MMPCD)",
	"GAS GASYRG\nGAS A GNL\n(MMPCD)",
}

// Canonical names of the MasterHeaders numeric columns, in column order.
var MasterFields = []string{
	"gnl_produccion_tn",
	"gnl_produccion_m3",
	"gas_psl_combustible_mmpcd",
	"gas_psl_a_gnl_mmpcd",
	"gas_gasyrg_a_gnl_mmpcd",
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DailyValues returns the deterministic measurements used for day i of a fixture.
func DailyValues(i int) []float64 {
	return []float64{
		100 + float64(i),
		220 + 2*float64(i),
		1.5,
		4 + float64(i%3),
		2.5,
	}
}

// MasterRows builds a header row followed by one row per day starting at start.
// Dates are written as time.Time so excelize stores them as date serials.
func MasterRows(start time.Time, days int) [][]interface{} {
	rows := make([][]interface{}, 0, days+1)
	header := make([]interface{}, len(MasterHeaders))
	for i, h := range MasterHeaders {
		header[i] = h
	}
	rows = append(rows, header)

	for i := 0; i < days; i++ {
		row := []interface{}{start.AddDate(0, 0, i)}
		for _, v := range DailyValues(i) {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteWorkbook saves rows into sheet of a new workbook under dir and returns its path.
func WriteWorkbook(t testing.TB, dir, name, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WriteMasterWorkbook writes a BD_PGNL workbook with days of data starting at start.
func WriteMasterWorkbook(t testing.TB, dir string, start time.Time, days int) string {
	t.Helper()
	return WriteWorkbook(t, dir, "1. MASTER_BD_GNL.xlsx", "BD_PGNL", MasterRows(start, days))
}

// DailyRecords builds normalized records for consecutive days, matching what
// loading WriteMasterWorkbook's output produces.
func DailyRecords(start time.Time, days int) []domain.Record {
	records := make([]domain.Record, 0, days)
	for i := 0; i < days; i++ {
		values := make(map[string]domain.Measurement, len(MasterFields))
		for j, v := range DailyValues(i) {
			values[MasterFields[j]] = domain.Measurement{Value: v, Present: true}
		}
		records = append(records, domain.Record{
			Row:     i + 2,
			Date:    start.AddDate(0, 0, i),
			HasDate: true,
			Values:  values,
		})
	}
	return records
}

// Undated returns a record carrying the absent date marker.
func Undated(row int) domain.Record {
	return domain.Record{Row: row, Values: map[string]domain.Measurement{}}
}

// MasterDataset wraps DailyRecords in a dataset with the master column layout.
func MasterDataset(start time.Time, days int) *domain.Dataset {
	columns := append([]string{"fecha"}, MasterFields...)
	return &domain.Dataset{
		Source:        "1. MASTER_BD_GNL.xlsx",
		Sheet:         "BD_PGNL",
		DateField:     "fecha",
		Columns:       columns,
		NumericFields: append([]string(nil), MasterFields...),
		Records:       DailyRecords(start, days),
		LoadedAt:      start,
	}
}
