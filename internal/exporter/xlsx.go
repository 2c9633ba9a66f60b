package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the sheet written by WriteXLSX.
const SheetName = "GNL"

// excelize built-in number format 14 is the locale short date.
const numFmtShortDate = 14

// WriteXLSX writes t as a single-sheet workbook. Dates are real Excel dates
// and values are numbers, so the file can be re-read by the loader.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtShortDate})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 1, 12); err != nil {
		return err
	}
	if len(t.Columns) > 0 {
		if err := sw.SetColWidth(2, len(t.Columns)+1, 22); err != nil {
			return err
		}
	}

	headers := t.Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range t.Records {
		row := make([]interface{}, 0, len(t.Columns)+1)
		if r.HasDate {
			row = append(row, excelize.Cell{StyleID: dateStyle, Value: r.Date})
		} else {
			row = append(row, nil)
		}
		for _, c := range t.Columns {
			row = append(row, r.Value(c.Field).Value)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
