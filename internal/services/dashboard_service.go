package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gnlreports/internal/charts"
	"gnlreports/internal/dataset"
	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/exporter"
	"gnlreports/internal/infrastructure"
	"gnlreports/internal/period"
	"gnlreports/internal/schema"
	"gnlreports/pkg/contracts/domain"
)

// FieldInfo describes one canonical numeric field of the dashboard.
type FieldInfo struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Unit      string `json:"unit"`
	Display   string `json:"display"`
	Available bool   `json:"available"`
}

// PeriodOption is one entry of the period selector.
type PeriodOption struct {
	Mode  period.Mode `json:"mode"`
	Label string      `json:"label"`
}

// DatasetInfo is the metadata view of the loaded dataset.
type DatasetInfo struct {
	Source        string              `json:"source"`
	Sheet         string              `json:"sheet"`
	SchemaVersion string              `json:"schema_version"`
	Columns       []string            `json:"columns"`
	Fields        []FieldInfo         `json:"fields"`
	MinDate       *time.Time          `json:"min_date,omitempty"`
	MaxDate       *time.Time          `json:"max_date,omitempty"`
	Records       int                 `json:"records"`
	Dated         int                 `json:"dated"`
	Diagnostics   []domain.Diagnostic `json:"diagnostics"`
	LoadedAt      time.Time           `json:"loaded_at"`
	Periods       []PeriodOption      `json:"periods"`
	DefaultPeriod period.Mode         `json:"default_period"`
	Cache         dataset.CacheStats  `json:"cache"`
}

// DashboardView is everything the dashboard page shows for one query.
type DashboardView struct {
	Info    DatasetInfo          `json:"info"`
	Query   period.Query         `json:"query"`
	Result  period.Result        `json:"result"`
	Summary domain.PeriodSummary `json:"summary"`
	Panels  []charts.Panel       `json:"panels"`
}

// ExportFile is an encoded table ready to be downloaded or saved.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Count       int
}

// DashboardService serves the filtered views of the configured sheet.
// The dataset is loaded once and shared by every request.
type DashboardService struct {
	source   string
	opts     dataset.LoadOptions
	mapping  *schema.Mapping
	cache    *dataset.Cache
	renderer *charts.Renderer
	specs    []charts.Spec
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewDashboardService wires the service. loader is usually a *dataset.Loader;
// metrics may be nil.
func NewDashboardService(source string, opts dataset.LoadOptions, loader dataset.DatasetLoader, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	mapping := schema.Default()
	return &DashboardService{
		source:   source,
		opts:     opts,
		mapping:  mapping,
		cache:    dataset.NewCache(&instrumentedLoader{next: loader, metrics: metrics}),
		renderer: charts.NewRenderer(mapping.DisplayName),
		specs:    charts.Catalogue(),
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dashboard_service")),
		now:      time.Now,
	}
}

// Source returns the identifier of the configured data source.
func (s *DashboardService) Source() string {
	return s.source
}

// Dataset returns the cached dataset, loading it on first use.
func (s *DashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	ds, hit, err := s.cache.Get(ctx, s.source, s.opts)
	if err != nil {
		return nil, classify(err)
	}
	infrastructure.RecordCacheLookup(ctx, s.metrics, hit)
	return ds, nil
}

// CacheStats reports dataset cache usage.
func (s *DashboardService) CacheStats() dataset.CacheStats {
	return s.cache.Stats()
}

// Info describes the loaded dataset.
func (s *DashboardService) Info(ctx context.Context) (DatasetInfo, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	return s.info(ds), nil
}

func (s *DashboardService) info(ds *domain.Dataset) DatasetInfo {
	info := DatasetInfo{
		Source:        ds.Source,
		Sheet:         ds.Sheet,
		SchemaVersion: s.mapping.Version,
		Columns:       ds.Columns,
		Records:       len(ds.Records),
		Dated:         ds.DatedCount(),
		LoadedAt:      ds.LoadedAt,
		DefaultPeriod: period.DefaultMode,
		Cache:         s.cache.Stats(),
	}
	if minDate, maxDate, ok := ds.DateRange(); ok {
		info.MinDate, info.MaxDate = &minDate, &maxDate
	}

	for _, name := range ds.NumericFields {
		fi := FieldInfo{Name: name, Label: name, Display: s.mapping.DisplayName(name), Available: ds.HasColumn(name)}
		if f, ok := s.mapping.Field(name); ok {
			fi.Label, fi.Unit = f.Label, f.Unit
		}
		info.Fields = append(info.Fields, fi)
	}

	info.Diagnostics = append(make([]domain.Diagnostic, 0, len(ds.Diagnostics)), ds.Diagnostics...)
	for _, d := range s.mapping.Validate(ds.Columns) {
		if !hasDiagnostic(info.Diagnostics, d.Field) {
			info.Diagnostics = append(info.Diagnostics, d)
		}
	}

	for _, m := range period.Modes {
		info.Periods = append(info.Periods, PeriodOption{Mode: m, Label: m.Label()})
	}
	return info
}

func hasDiagnostic(diags []domain.Diagnostic, field string) bool {
	for _, d := range diags {
		if d.Field == field {
			return true
		}
	}
	return false
}

// Records applies the period filter and returns the table view.
func (s *DashboardService) Records(ctx context.Context, q period.Query) (period.Result, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return period.Result{}, err
	}
	return s.filter(ctx, ds, q), nil
}

func (s *DashboardService) filter(ctx context.Context, ds *domain.Dataset, q period.Query) period.Result {
	result := period.Filter(ds.Records, q)
	infrastructure.RecordFilter(ctx, s.metrics, string(q.Mode), result.Count)
	s.logger.DebugContext(ctx, "period filter applied",
		slog.String("mode", string(q.Mode)),
		slog.Time("start", result.Window.Start),
		slog.Time("end", result.Window.End),
		slog.Int("count", result.Count),
	)
	return result
}

// Summary aggregates every available numeric field over the filtered records.
func (s *DashboardService) Summary(ctx context.Context, q period.Query) (domain.PeriodSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	return s.summarize(ds, s.filter(ctx, ds, q)), nil
}

func (s *DashboardService) summarize(ds *domain.Dataset, result period.Result) domain.PeriodSummary {
	summary := Summarize(result, ds.AvailableFields(), s.mapping, s.now())
	summary.Diagnostics = ds.Diagnostics
	return summary
}

// Panels evaluates every chart of the catalogue; a failing chart carries its
// error and never affects the others.
func (s *DashboardService) Panels(ctx context.Context, q period.Query) ([]charts.Panel, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.panels(ctx, ds, s.filter(ctx, ds, q).Records), nil
}

func (s *DashboardService) panels(ctx context.Context, ds *domain.Dataset, records []domain.Record) []charts.Panel {
	panels := charts.BuildAll(s.specs, ds.AvailableFields(), records, s.mapping.DisplayName)
	for _, p := range panels {
		if !p.OK() {
			infrastructure.RecordChart(ctx, s.metrics, p.ID, fmt.Errorf("%s", p.Err))
			s.logger.WarnContext(ctx, "chart unavailable",
				slog.String("chart", p.ID),
				slog.String("error", p.Err),
			)
			continue
		}
		infrastructure.RecordChart(ctx, s.metrics, p.ID, nil)
	}
	return panels
}

// Dashboard assembles the full page view from a single dataset snapshot.
func (s *DashboardService) Dashboard(ctx context.Context, q period.Query) (*DashboardView, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	result := s.filter(ctx, ds, q)
	return &DashboardView{
		Info:    s.info(ds),
		Query:   q,
		Result:  result,
		Summary: s.summarize(ds, result),
		Panels:  s.panels(ctx, ds, result.Records),
	}, nil
}

// Chart renders one chart over the filtered records.
func (s *DashboardService) Chart(ctx context.Context, id string, q period.Query, format string) ([]byte, charts.Format, error) {
	f, err := charts.ParseFormat(format)
	if err != nil {
		return nil, "", classify(invalidFormat(err))
	}
	spec, err := charts.Lookup(id)
	if err != nil {
		return nil, "", classify(err)
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, "", err
	}
	result := s.filter(ctx, ds, q)

	data, err := s.render(spec, ds.AvailableFields(), result.Records, f)
	infrastructure.RecordChart(ctx, s.metrics, spec.ID, err)
	if err != nil {
		s.logger.WarnContext(ctx, "chart render failed",
			slog.String("chart", spec.ID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, charts.ErrFieldUnavailable) {
			return nil, "", classify(err)
		}
		return nil, "", apierrors.NewRenderError("no se pudo dibujar el gráfico", err)
	}
	return data, f, nil
}

// render draws one chart; a panic in the plotting code becomes an error.
func (s *DashboardService) render(spec charts.Spec, available []string, records []domain.Record, f charts.Format) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chart %s failed: %v", spec.ID, r)
		}
	}()
	return s.renderer.Render(spec, available, records, f)
}

// Export encodes the filtered table in format ("csv" or "xlsx").
func (s *DashboardService) Export(ctx context.Context, q period.Query, format string) (*ExportFile, error) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, classify(invalidFormat(err))
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	result := s.filter(ctx, ds, q)

	table := exporter.NewTable(result.Records, ds.AvailableFields(), s.mapping.DisplayName)
	var buf bytes.Buffer
	if err := exporter.Write(&buf, f, table); err != nil {
		return nil, fmt.Errorf("export %s: %w", f, err)
	}
	infrastructure.RecordExport(ctx, s.metrics, string(f))

	return &ExportFile{
		Name:        exporter.FileName("gnl", result.Window.Start, result.Window.End, f),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
		Count:       result.Count,
	}, nil
}

// instrumentedLoader records load metrics around the real loader.
type instrumentedLoader struct {
	next    dataset.DatasetLoader
	metrics *infrastructure.BusinessMetrics
}

func (l *instrumentedLoader) Load(ctx context.Context, source string, opts dataset.LoadOptions) (*domain.Dataset, error) {
	start := time.Now()
	ds, err := l.next.Load(ctx, source, opts)

	var records int
	var codes []string
	if ds != nil {
		records = len(ds.Records)
		for _, d := range ds.Diagnostics {
			codes = append(codes, string(d.Code))
		}
	}
	infrastructure.RecordDatasetLoad(ctx, l.metrics, source, time.Since(start), records, codes, err)
	return ds, err
}
