package services

import (
	"fmt"
	"strings"
	"time"

	"gnlreports/internal/period"
)

// DateLayout is the layout of date parameters and date pickers.
const DateLayout = "2006-01-02"

// ParseQuery builds a period query from raw request values. An empty mode
// selects period.DefaultMode; empty dates leave that bound open.
func ParseQuery(mode, start, end string) (period.Query, error) {
	m, err := period.ParseMode(mode)
	if err != nil {
		return period.Query{}, classify(err)
	}
	q := period.Query{Mode: m}

	if q.Start, err = parseDate("start", start); err != nil {
		return period.Query{}, err
	}
	if q.End, err = parseDate("end", end); err != nil {
		return period.Query{}, err
	}
	return q, nil
}

func parseDate(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, classify(fmt.Errorf("%w: %s=%q", ErrInvalidDate, name, raw))
	}
	return &t, nil
}

// FormatDate renders an optional bound for a date picker.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
