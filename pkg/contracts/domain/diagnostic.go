package domain

// DiagnosticCode classifies a non-fatal condition found while loading a sheet.
type DiagnosticCode string

const (
	// DiagnosticMissingField means a declared numeric field is not in the header row.
	DiagnosticMissingField DiagnosticCode = "missing_field"
	// DiagnosticMissingDateField means the date column is not in the header row.
	DiagnosticMissingDateField DiagnosticCode = "missing_date_field"
	// DiagnosticUnparseableDates means some rows carry a date that could not be parsed.
	DiagnosticUnparseableDates DiagnosticCode = "unparseable_dates"
	// DiagnosticUnmappedHeader means a required canonical field matched no raw header.
	DiagnosticUnmappedHeader DiagnosticCode = "unmapped_header"
)

// Diagnostic is a per-field message surfaced to the dashboard instead of failing the load.
type Diagnostic struct {
	Field   string         `json:"field"`
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
	Rows    []int          `json:"rows,omitempty"`
}
