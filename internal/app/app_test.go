package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnlreports/internal/config"
	"gnlreports/internal/shared/testutil"
)

func createMockFS() fs.FS {
	return fstest.MapFS{
		"static/dashboard.css": &fstest.MapFile{Data: []byte("body { margin: 0; }")},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// testConfig points the dashboard at a generated first-quarter workbook.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.BaseDir = dir
	cfg.Paths.DataDir = dir
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Paths.ExportsDir = filepath.Join(dir, "exports")
	cfg.Source.Workbook = testutil.WriteMasterWorkbook(t, dir, testutil.Day(2024, 1, 1), 91)
	cfg.Source.Preload = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, createMockFS(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func get(app *Application, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestNew(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.SystemMetrics)
	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.SourceID(), app.DashboardService.Source())
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedType   string
	}{
		{"health", "/api/health", http.StatusOK, "application/json"},
		{"readiness", "/api/health/ready", http.StatusOK, "application/json"},
		{"liveness", "/api/health/live", http.StatusOK, "application/json"},
		{"version", "/api/version", http.StatusOK, "application/json"},
		{"dataset", "/api/data/dataset", http.StatusOK, "application/json"},
		{"records", "/api/data/records?period=last_month", http.StatusOK, "application/json"},
		{"summary", "/api/data/summary", http.StatusOK, "application/json"},
		{"charts", "/api/data/charts", http.StatusOK, "application/json"},
		{"chart png", "/api/data/charts/produccion_m3.png", http.StatusOK, "image/png"},
		{"chart unavailable", "/api/data/charts/despacho_m3.png", http.StatusUnprocessableEntity, ""},
		{"export csv", "/api/data/export/csv?period=all", http.StatusOK, "text/csv; charset=utf-8"},
		{"invalid period", "/api/data/records?period=weekly", http.StatusBadRequest, ""},
		{"dashboard", "/", http.StatusOK, "text/html; charset=utf-8"},
		{"static", "/static/dashboard.css", http.StatusOK, "text/css; charset=utf-8"},
		{"missing static", "/static/missing.css", http.StatusNotFound, ""},
		{"unknown route", "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(app, tt.target)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.expectedType)
			}
		})
	}
}

func TestApplication_RecordsEndToEnd(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	w := get(app, "/api/data/records?period=last_month")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 31, body.Count)

	page := get(app, "/").Body.String()
	assert.Contains(t, page, "Registros filtrados: 31")
	assert.Contains(t, page, config.DefaultTitle)
}

func TestApplication_MissingWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Workbook = filepath.Join(cfg.Paths.DataDir, "missing.xlsx")
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusServiceUnavailable, get(app, "/api/data/records").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(app, "/api/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(app, "/api/health/live").Code)

	w := get(app, "/")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "No se pudo cargar el conjunto de datos.")
}

func TestApplication_Metrics(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	require.Equal(t, http.StatusOK, get(app, "/api/data/records").Code)
	require.Equal(t, http.StatusOK, get(app, "/api/data/records").Code)

	w := get(app, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "dataset_loads_total")
	assert.Contains(t, body, "dataset_cache_hits_total")
	assert.Contains(t, body, "system_goroutines")
}

func TestApplication_CORS(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, get(app, "/api/health/live").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(app, "/api/health/live").Code)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Source.Preload = true
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	url := fmt.Sprintf("http://%s/api/health/live", app.Server.Addr)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		return app.DashboardService.CacheStats().Entries == 1
	}, 5*time.Second, 50*time.Millisecond, "preload fills the cache")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, app.Stop(stopCtx))

	_, err := http.Get(url)
	assert.Error(t, err)
}

func TestNewApplication(t *testing.T) {
	dir := t.TempDir()
	workbook := testutil.WriteMasterWorkbook(t, dir, testutil.Day(2024, 1, 1), 10)

	t.Setenv(config.EnvConfigFile, filepath.Join(dir, "absent.yaml"))
	t.Setenv("GNL_PATHS_BASE_DIR", dir)
	t.Setenv("GNL_SOURCE_WORKBOOK", workbook)
	t.Setenv("GNL_SOURCE_PRELOAD", "false")
	t.Setenv("GNL_SERVER_PORT", "8181")

	_, err := NewApplication(createMockFS())
	require.Error(t, err, "an explicit config file that does not exist is an error")

	t.Setenv(config.EnvConfigFile, "")
	app, err := NewApplication(createMockFS())
	require.NoError(t, err)
	defer app.OTelProviders.Shutdown(context.Background())

	assert.Equal(t, ":8181", app.Server.Addr)
	assert.Equal(t, workbook, app.DashboardService.Source())
	assert.DirExists(t, filepath.Join(dir, "logs"))
}
