package period

import (
	"time"

	"gnlreports/pkg/contracts/domain"
)

// Query describes the requested period. Start and End are optional calendar
// days; they bound the window for every mode, and for ModeExplicit they are
// the whole window.
type Query struct {
	Mode  Mode       `json:"mode"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Window is the inclusive date range a filter selected. Valid is false when
// the records carry no usable date, in which case nothing is selected.
type Window struct {
	Mode    Mode      `json:"mode"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	MinDate time.Time `json:"min_date"`
	MaxDate time.Time `json:"max_date"`
	Valid   bool      `json:"valid"`
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return w.Valid && !t.Before(w.Start) && !t.After(w.End)
}

// Empty reports whether the window cannot contain any date.
func (w Window) Empty() bool {
	return !w.Valid || w.Start.After(w.End)
}

// Result is the filtered view of a dataset.
type Result struct {
	Window  Window          `json:"window"`
	Records []domain.Record `json:"records"`
	Count   int             `json:"count"`
}

// Resolve computes the window q selects over records without filtering them.
// An unknown mode resolves like ModeAll; callers validate with ParseMode first.
func Resolve(records []domain.Record, q Query) Window {
	minDate, maxDate, ok := domain.DateRange(records)
	w := Window{Mode: q.Mode, MinDate: minDate, MaxDate: maxDate, Valid: ok}
	if !ok {
		return w
	}

	w.Start, w.End = minDate, maxDate
	switch q.Mode {
	case ModeLastMonth, ModeLast3Months, ModeLast6Months, ModeLastYear:
		w.Start = MonthsBefore(maxDate, q.Mode.months())
	case ModeCurrentYear:
		w.Start = time.Date(maxDate.Year(), time.January, 1, 0, 0, 0, 0, maxDate.Location())
	}

	// Explicit bounds narrow whatever the mode produced.
	if q.Start != nil {
		if s := startOfDay(*q.Start); s.After(w.Start) || q.Mode == ModeExplicit {
			w.Start = s
		}
	}
	if q.End != nil {
		if e := endOfDay(*q.End); e.Before(w.End) || q.Mode == ModeExplicit {
			w.End = e
		}
	}
	return w
}

// Filter returns the records whose date lies in the window q selects, in
// source order. Records with the absent date marker are never selected.
func Filter(records []domain.Record, q Query) Result {
	w := Resolve(records, q)
	return Result{Window: w, Records: Apply(records, w)}.counted()
}

// Apply selects the records inside w. Applying the same window to its own
// output returns the same records.
func Apply(records []domain.Record, w Window) []domain.Record {
	out := make([]domain.Record, 0)
	if w.Empty() {
		return out
	}
	for _, r := range records {
		if r.HasDate && w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

func (r Result) counted() Result {
	r.Count = len(r.Records)
	return r
}

// MonthsBefore returns the first day of an n-month window ending at end.
// The day of month is clamped to the target month's length. When end is the
// last day of its month the window spans whole calendar months, so one month
// before 2024-03-31 starts on 2024-03-01.
func MonthsBefore(end time.Time, n int) time.Time {
	y, m, d := end.Date()
	loc := end.Location()
	if d == daysIn(y, m) {
		return time.Date(y, m-time.Month(n-1), 1, 0, 0, 0, 0, loc)
	}

	target := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, loc)
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
