package domain

import (
	"time"
)

// FieldSummary aggregates one measurement over a filtered window.
// Only cells with a present value contribute; Missing counts the others.
type FieldSummary struct {
	Field   string  `json:"field"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Present int     `json:"present"`
	Missing int     `json:"missing"`
}

// PeriodSummary is the KPI strip shown above the charts.
type PeriodSummary struct {
	Mode        string         `json:"mode"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Count       int            `json:"count"`
	Fields      []FieldSummary `json:"fields"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}
