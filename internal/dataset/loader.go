package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gnlreports/internal/schema"
	"gnlreports/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of dataset spans.
const TracerName = "gnlreports/dataset"

// maxDiagnosticRows caps the row numbers listed in one diagnostic.
const maxDiagnosticRows = 20

// LoadOptions selects the sheet and describes how to normalize it.
type LoadOptions struct {
	Sheet         string
	DateField     string
	NumericFields []string
	// Rename maps raw header text to canonical names. Keys are matched
	// through schema.NormalizeHeader, so accents, case and line breaks do not matter.
	Rename map[string]string
}

// DefaultOptions returns the options for the master workbook layout.
func DefaultOptions() LoadOptions {
	m := schema.Default()
	return LoadOptions{
		Sheet:         schema.DefaultSheet,
		DateField:     m.DateField(),
		NumericFields: m.NumericFields(),
		Rename:        m.RenameMap(),
	}
}

// Loader reads sheets through a Resolver and normalizes them.
type Loader struct {
	resolve Resolver
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(resolve Resolver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		resolve: resolve,
		logger:  logger.With(slog.String("component", "dataset_loader")),
		tracer:  otel.Tracer(TracerName),
		now:     time.Now,
	}
}

// Load reads one sheet of source and returns the normalized dataset.
// Missing columns and bad cells become diagnostics; only an unreadable
// source, a missing sheet or an empty sheet return an error.
func (l *Loader) Load(ctx context.Context, source string, opts LoadOptions) (*domain.Dataset, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(
			attribute.String("dataset.source", source),
			attribute.String("dataset.sheet", opts.Sheet),
		),
	)
	defer span.End()

	start := l.now()

	src, err := l.resolve(ctx, source)
	if err != nil {
		return nil, l.fail(ctx, span, source, opts.Sheet, err)
	}

	rows, err := src.ReadSheet(ctx, opts.Sheet)
	if err != nil {
		return nil, l.fail(ctx, span, source, opts.Sheet, err)
	}

	ds, err := Normalize(rows, opts)
	if err != nil {
		return nil, l.fail(ctx, span, source, opts.Sheet, err)
	}
	ds.Source = source
	ds.LoadedAt = l.now()

	span.SetAttributes(
		attribute.Int("dataset.records", len(ds.Records)),
		attribute.Int("dataset.diagnostics", len(ds.Diagnostics)),
	)
	span.SetStatus(codes.Ok, "")

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.String("sheet", opts.Sheet),
		slog.Int("records", len(ds.Records)),
		slog.Int("dated", ds.DatedCount()),
		slog.Int("diagnostics", len(ds.Diagnostics)),
		slog.Duration("duration", l.now().Sub(start)),
	)
	for _, d := range ds.Diagnostics {
		l.logger.WarnContext(ctx, "dataset diagnostic",
			slog.String("field", d.Field),
			slog.String("code", string(d.Code)),
			slog.String("message", d.Message),
		)
	}
	return ds, nil
}

func (l *Loader) fail(ctx context.Context, span trace.Span, source, sheet string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.ErrorContext(ctx, "dataset load failed",
		slog.String("source", source),
		slog.String("sheet", sheet),
		slog.String("error", err.Error()),
	)
	return err
}

// Normalize turns a raw cell grid into a dataset. The first non-blank row is
// the header row; fully blank rows after it are skipped.
func Normalize(rows [][]string, opts LoadOptions) (*domain.Dataset, error) {
	headerIdx := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, opts.Sheet)
	}

	columns := renameHeaders(rows[headerIdx], opts.Rename)
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	ds := &domain.Dataset{
		Sheet:         opts.Sheet,
		DateField:     opts.DateField,
		Columns:       columns,
		NumericFields: append([]string(nil), opts.NumericFields...),
		Records:       make([]domain.Record, 0, len(rows)-headerIdx-1),
	}

	dateCol, hasDateCol := index[opts.DateField]
	if !hasDateCol {
		ds.Diagnostics = append(ds.Diagnostics, domain.Diagnostic{
			Field:   opts.DateField,
			Code:    domain.DiagnosticMissingDateField,
			Message: fmt.Sprintf("date column %q not found; every row has no date", opts.DateField),
		})
	}

	numeric := make(map[string]int, len(opts.NumericFields))
	for _, f := range opts.NumericFields {
		col, ok := index[f]
		if !ok {
			ds.Diagnostics = append(ds.Diagnostics, domain.Diagnostic{
				Field:   f,
				Code:    domain.DiagnosticMissingField,
				Message: fmt.Sprintf("column %q not found in sheet %q", f, opts.Sheet),
			})
			continue
		}
		numeric[f] = col
	}

	var badDates []int
	badDateCount := 0
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}

		rec := domain.Record{
			Row:    i + 1,
			Values: make(map[string]domain.Measurement, len(numeric)),
		}

		if hasDateCol {
			raw := cell(row, dateCol)
			if t, ok := ParseDate(raw); ok {
				rec.Date, rec.HasDate = t, true
			} else if strings.TrimSpace(raw) != "" {
				badDateCount++
				if len(badDates) < maxDiagnosticRows {
					badDates = append(badDates, rec.Row)
				}
			}
		}

		for f, col := range numeric {
			v, ok := ParseNumber(cell(row, col))
			rec.Values[f] = domain.Measurement{Value: v, Present: ok}
		}

		for col, name := range columns {
			if _, isNumeric := numeric[name]; isNumeric || (hasDateCol && col == dateCol) {
				continue
			}
			if v := strings.TrimSpace(cell(row, col)); v != "" {
				if rec.Text == nil {
					rec.Text = make(map[string]string)
				}
				rec.Text[name] = v
			}
		}

		ds.Records = append(ds.Records, rec)
	}

	if badDateCount > 0 {
		ds.Diagnostics = append(ds.Diagnostics, domain.Diagnostic{
			Field:   opts.DateField,
			Code:    domain.DiagnosticUnparseableDates,
			Message: fmt.Sprintf("%d rows have a date that could not be parsed", badDateCount),
			Rows:    badDates,
		})
	}

	return ds, nil
}

// renameHeaders applies the rename map to a header row. Blank headers get the
// column letter; repeated names get a numeric suffix.
func renameHeaders(header []string, rename map[string]string) []string {
	keys := make(map[string]string, len(rename))
	for raw, canonical := range rename {
		keys[schema.NormalizeHeader(raw)] = canonical
	}

	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if canonical, ok := keys[schema.NormalizeHeader(raw)]; ok {
			name = canonical
		}
		if name == "" {
			letter, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				letter = fmt.Sprint(i + 1)
			}
			name = "column_" + letter
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		columns[i] = name
	}
	return columns
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
