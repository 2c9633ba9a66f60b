package domain

import (
	"time"
)

// Measurement is a single numeric cell after normalization.
// Value is always a usable number; Present reports whether the source cell
// actually held a parseable value (Value is 0 when it did not).
type Measurement struct {
	Value   float64 `json:"value"`
	Present bool    `json:"present"`
}

// Record represents one row of the plant's daily operational sheet.
type Record struct {
	Row     int                    `json:"row" validate:"min=1"`
	Date    time.Time              `json:"date"`
	HasDate bool                   `json:"has_date"` // false is the absent date marker
	Values  map[string]Measurement `json:"values"`
	Text    map[string]string      `json:"text,omitempty"`
}

// Value returns the measurement for a canonical field, zero if the field is unknown.
func (r Record) Value(field string) Measurement {
	return r.Values[field]
}

// Dataset is the normalized content of one sheet. Records keep source order.
// A Dataset is never mutated after it has been loaded.
type Dataset struct {
	Source        string       `json:"source"`
	Sheet         string       `json:"sheet"`
	DateField     string       `json:"date_field"`
	Columns       []string     `json:"columns"`
	NumericFields []string     `json:"numeric_fields"`
	Records       []Record     `json:"-"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
	LoadedAt      time.Time    `json:"loaded_at"`
}

// HasColumn reports whether the (renamed) header row contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AvailableFields returns the declared numeric fields that exist in the sheet.
func (d *Dataset) AvailableFields() []string {
	fields := make([]string, 0, len(d.NumericFields))
	for _, f := range d.NumericFields {
		if d.HasColumn(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// DateRange returns the smallest and largest valid dates in the dataset.
// ok is false when no record carries a valid date.
func (d *Dataset) DateRange() (min, max time.Time, ok bool) {
	return DateRange(d.Records)
}

// DateRange returns the extremes of the non-absent dates of records.
func DateRange(records []Record) (min, max time.Time, ok bool) {
	for _, r := range records {
		if !r.HasDate {
			continue
		}
		if !ok {
			min, max, ok = r.Date, r.Date, true
			continue
		}
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max, ok
}

// DatedCount returns how many records carry a valid date.
func (d *Dataset) DatedCount() int {
	n := 0
	for _, r := range d.Records {
		if r.HasDate {
			n++
		}
	}
	return n
}
