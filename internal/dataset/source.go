package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source reads the raw cell grid of a sheet. Cells are returned unformatted:
// dates as Excel serial numbers, numbers without display formatting.
type Source interface {
	ReadSheet(ctx context.Context, sheet string) ([][]string, error)
}

// Resolver maps a source identifier onto a Source.
type Resolver func(ctx context.Context, id string) (Source, error)

// ExcelSource reads a local .xlsx workbook with excelize.
type ExcelSource struct {
	path string
}

// NewExcelSource creates a source for the workbook at path.
func NewExcelSource(path string) *ExcelSource {
	return &ExcelSource{path: path}
}

// ReadSheet opens the workbook and returns every row of sheet.
func (s *ExcelSource) ReadSheet(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: workbook %s does not exist", ErrSourceUnreadable, s.path)
		}
		return nil, fmt.Errorf("%w: failed to open workbook %s: %v", ErrSourceUnreadable, s.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q not in workbook %s (sheets: %s)",
			ErrSheetNotFound, sheet, s.path, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrSourceUnreadable, sheet, err)
	}
	return rows, nil
}

// MemorySource serves fixed grids keyed by sheet name.
type MemorySource struct {
	Sheets map[string][][]string
}

// ReadSheet returns a copy-free view of the stored grid.
func (s *MemorySource) ReadSheet(ctx context.Context, sheet string) ([][]string, error) {
	rows, ok := s.Sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return rows, nil
}
