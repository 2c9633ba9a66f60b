package charts

import (
	"fmt"
	"sort"
	"time"

	"gnlreports/pkg/contracts/domain"
)

// Point is one dated value of a series.
type Point struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Present bool      `json:"present"`
}

// Series is the data of one field of a chart.
type Series struct {
	Field  string  `json:"field"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Labeler turns a canonical field name into display text.
type Labeler func(field string) string

// Extract builds the series of spec from records. Every field must be one of
// available; otherwise the chart fails with ErrFieldUnavailable. Undated
// records are skipped and points are ordered by date, whatever the source
// order. Missing cells plot as zero.
func Extract(spec Spec, available []string, records []domain.Record, label Labeler) ([]Series, error) {
	have := make(map[string]bool, len(available))
	for _, f := range available {
		have[f] = true
	}
	for _, f := range spec.Fields {
		if !have[f] {
			return nil, fmt.Errorf("%w: chart %s needs column %q", ErrFieldUnavailable, spec.ID, f)
		}
	}

	series := make([]Series, len(spec.Fields))
	for i, f := range spec.Fields {
		s := Series{Field: f, Label: f, Color: colorAt(spec.Colors, i)}
		if label != nil {
			s.Label = label(f)
		}
		s.Points = make([]Point, 0, len(records))
		for _, r := range records {
			if !r.HasDate {
				continue
			}
			m := r.Value(f)
			s.Points = append(s.Points, Point{Date: r.Date, Value: m.Value, Present: m.Present})
		}
		sort.SliceStable(s.Points, func(a, b int) bool {
			return s.Points[a].Date.Before(s.Points[b].Date)
		})
		series[i] = s
	}
	return series, nil
}

var fallbackColors = []string{"#0984e3", "#e17055", "#6c5ce7", "#00b894", "#d63031"}

func colorAt(colors []string, i int) string {
	if i < len(colors) {
		return colors[i]
	}
	return fallbackColors[i%len(fallbackColors)]
}
