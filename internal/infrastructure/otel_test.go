package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProviders(t *testing.T) *OTelProviders {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	})
	return providers
}

func scrape(t *testing.T, providers *OTelProviders) string {
	t.Helper()
	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestOTelInitialization(t *testing.T) {
	providers := newTestProviders(t)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestOTelMetricsDisabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	providers, err := InitializeOTel(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Tracer)
}

func TestOTelUnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestTraceCorrelation(t *testing.T) {
	providers := newTestProviders(t)

	ctx, span := providers.Tracer.Start(context.Background(), "dataset.load")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	var buf bytes.Buffer
	NewLogger(&buf, "info").InfoContext(ctx, "inside span")
	assert.Contains(t, buf.String(), traceID)

	// an explicit request ID wins
	buf.Reset()
	NewLogger(&buf, "info").InfoContext(WithTraceID(ctx, "req-1"), "inside span")
	assert.Contains(t, buf.String(), `"trace_id":"req-1"`)
}

func TestBusinessMetricsExported(t *testing.T) {
	providers := newTestProviders(t)
	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordDatasetLoad(ctx, metrics, "master.xlsx", 120*time.Millisecond, 91, []string{"missing_field"}, nil)
	RecordDatasetLoad(ctx, metrics, "master.xlsx", time.Millisecond, 0, nil, errors.New("boom"))
	RecordCacheLookup(ctx, metrics, true)
	RecordCacheLookup(ctx, metrics, false)
	RecordFilter(ctx, metrics, "last_month", 31)
	RecordChart(ctx, metrics, "produccion_m3", nil)
	RecordChart(ctx, metrics, "gas_a_gnl", errors.New("missing field"))
	RecordExport(ctx, metrics, "csv")
	RecordSystemError(ctx, metrics, "SOURCE")

	body := scrape(t, providers)
	for _, name := range []string{
		"dataset_loads_total",
		"dataset_diagnostics_total",
		"dataset_cache_hits_total",
		"dataset_cache_misses_total",
		"period_filter_operations_total",
		"chart_failures_total",
		"exports_total",
		"system_errors_total",
	} {
		assert.Contains(t, body, name)
	}
	assert.Contains(t, body, `mode="last_month"`)
	assert.Contains(t, body, `chart="gas_a_gnl"`)
}

func TestRecordHelpersNilSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordDatasetLoad(ctx, nil, "x", 0, 0, nil, nil)
		RecordCacheLookup(ctx, nil, true)
		RecordFilter(ctx, nil, "all", 0)
		RecordChart(ctx, nil, "x", errors.New("x"))
		RecordExport(ctx, nil, "csv")
		RecordSystemError(ctx, nil, "x")
		RecordError(ctx, errors.New("no span"))
	})

	_, err := CreateBusinessMetrics(nil)
	assert.Error(t, err)
}

func TestSystemMetrics(t *testing.T) {
	providers := newTestProviders(t)
	sm, err := NewSystemMetrics(providers.Meter, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	defer sm.Stop()

	stats := sm.Snapshot()
	assert.Positive(t, stats.Goroutines)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 60.0)
	assert.Positive(t, stats.CPUCount)

	body := scrape(t, providers)
	assert.Contains(t, body, "system_goroutines")
	assert.Contains(t, body, "system_uptime_seconds")

	bare, err := NewSystemMetrics(nil, time.Now())
	require.NoError(t, err)
	assert.NoError(t, bare.Stop())
}
