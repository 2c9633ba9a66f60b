package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gnlreports/pkg/contracts/domain"
)

// DateLayout is the format of the date column.
const DateLayout = "2006-01-02"

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Column is one exported column.
type Column struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}

// Table is the filtered records laid out for export.
type Table struct {
	DateHeader string
	Columns    []Column
	Records    []domain.Record
}

// NewTable lays records out with the given numeric fields. label supplies
// column headers; nil uses the field names.
func NewTable(records []domain.Record, fields []string, label func(string) string) Table {
	t := Table{DateHeader: "Fecha", Records: records, Columns: make([]Column, len(fields))}
	for i, f := range fields {
		h := f
		if label != nil {
			h = label(f)
		}
		t.Columns[i] = Column{Field: f, Header: h}
	}
	return t
}

// Headers returns the header row.
func (t Table) Headers() []string {
	h := make([]string, 0, len(t.Columns)+1)
	h = append(h, t.DateHeader)
	for _, c := range t.Columns {
		h = append(h, c.Header)
	}
	return h
}

// Row renders record i as text cells.
func (t Table) Row(i int) []string {
	r := t.Records[i]
	row := make([]string, 0, len(t.Columns)+1)
	row = append(row, formatDate(r))
	for _, c := range t.Columns {
		row = append(row, strconv.FormatFloat(r.Value(c.Field).Value, 'f', -1, 64))
	}
	return row
}

func formatDate(r domain.Record) string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// FileName builds "<prefix>_<start>_<end>.<ext>" for a filtered export.
func FileName(prefix string, start, end time.Time, f Format) string {
	if start.IsZero() || end.IsZero() {
		return fmt.Sprintf("%s.%s", prefix, f)
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, start.Format(DateLayout), end.Format(DateLayout), f)
}
