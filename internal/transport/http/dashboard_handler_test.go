package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gnlreports/internal/charts"
	"gnlreports/internal/dataset"
	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/period"
	"gnlreports/internal/services"
	"gnlreports/internal/shared/testutil"
	"gnlreports/pkg/contracts/domain"
)

func newDashboardRouter(t *testing.T, svc *MockDashboardService) http.Handler {
	t.Helper()
	h := NewDashboardHandler(svc, testValidator(t), testLogger(), testErrorHandler())
	r := chi.NewRouter()
	r.Mount("/api/data", h.Routes())
	return r
}

func serve(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDashboardHandler_GetDataset(t *testing.T) {
	minDate, maxDate := testutil.Day(2024, 1, 1), testutil.Day(2024, 3, 31)
	svc := &MockDashboardService{}
	svc.On("Info").Return(services.DatasetInfo{
		Source:  "1. MASTER_BD_GNL.xlsx",
		Sheet:   "BD_PGNL",
		Records: 91,
		MinDate: &minDate,
		MaxDate: &maxDate,
	}, nil)

	w := serve(newDashboardRouter(t, svc), "GET", "/api/data/dataset")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "BD_PGNL", data["sheet"])
	assert.EqualValues(t, 91, data["records"])
	assert.Equal(t, "2024-01-01T00:00:00Z", data["min_date"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetRecords(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedCount  float64
	}{
		{
			name:   "default period",
			target: "/api/data/records",
			setupMock: func(m *MockDashboardService) {
				records := testutil.DailyRecords(testutil.Day(2024, 3, 1), 31)
				m.On("Records", period.Query{Mode: period.ModeLastMonth}).
					Return(period.Result{Records: records, Count: len(records)}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  31,
		},
		{
			name:   "explicit range",
			target: "/api/data/records?period=explicit&start=2024-03-01&end=2024-03-05",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", mock.MatchedBy(func(q period.Query) bool {
					return q.Mode == period.ModeExplicit &&
						services.FormatDate(q.Start) == "2024-03-01" &&
						services.FormatDate(q.End) == "2024-03-05"
				})).Return(period.Result{Records: testutil.DailyRecords(testutil.Day(2024, 3, 1), 5), Count: 5}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  5,
		},
		{
			name:           "invalid period",
			target:         "/api/data/records?period=weekly",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid date",
			target:         "/api/data/records?start=2024/03/01",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "source unreadable",
			target: "/api/data/records",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", mock.Anything).Return(period.Result{},
					apierrors.NewSourceError("no se pudo leer la fuente de datos", dataset.ErrSourceUnreadable))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:   "empty sheet",
			target: "/api/data/records",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", mock.Anything).Return(period.Result{},
					apierrors.NewParsingError("la hoja no contiene datos", dataset.ErrEmptySheet))
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			tt.setupMock(svc)

			w := serve(newDashboardRouter(t, svc), "GET", tt.target)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, w)
				assert.Equal(t, tt.expectedCount, body["count"])
			} else {
				body := decodeBody(t, w)
				assert.EqualValues(t, tt.expectedStatus, body["status"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetSummary(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Summary", period.Query{Mode: period.ModeAll}).Return(domain.PeriodSummary{
		Mode:  "all",
		Count: 91,
		Fields: []domain.FieldSummary{
			{Field: "gnl_produccion_tn", Total: 13195, Present: 91},
		},
	}, nil)

	w := serve(newDashboardRouter(t, svc), "GET", "/api/data/summary?period=all")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 91, body["count"])
	fields := body["data"].(map[string]interface{})["fields"].([]interface{})
	require.Len(t, fields, 1)
	assert.EqualValues(t, 13195, fields[0].(map[string]interface{})["total"])
}

func TestDashboardHandler_GetCharts(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Panels", mock.Anything).Return([]charts.Panel{
		{ID: charts.ChartProduccionM3, Title: "Producción"},
		{ID: charts.ChartDespacho, Title: "Despacho", Err: "field unavailable"},
	}, nil)

	w := serve(newDashboardRouter(t, svc), "GET", "/api/data/charts")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])
	panels := body["data"].([]interface{})
	assert.Nil(t, panels[0].(map[string]interface{})["error"])
	assert.Equal(t, "field unavailable", panels[1].(map[string]interface{})["error"])
}

func TestDashboardHandler_GetChart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedType   string
	}{
		{
			name:   "png",
			target: "/api/data/charts/produccion_tn.png?period=last_3_months",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", "produccion_tn", period.Query{Mode: period.ModeLast3Months}, "png").
					Return(png, charts.FormatPNG, nil)
			},
			expectedStatus: http.StatusOK,
			expectedType:   "image/png",
		},
		{
			name:   "svg",
			target: "/api/data/charts/gas_a_gnl.svg",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", "gas_a_gnl", mock.Anything, "svg").
					Return([]byte("<svg></svg>"), charts.FormatSVG, nil)
			},
			expectedStatus: http.StatusOK,
			expectedType:   "image/svg+xml",
		},
		{
			name:   "unknown chart",
			target: "/api/data/charts/nope.png",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", "nope", mock.Anything, "png").
					Return(nil, charts.Format(""), apierrors.NewNotFoundError("chart", charts.ErrUnknownChart))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "field unavailable",
			target: "/api/data/charts/despacho_m3.png",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", "despacho_m3", mock.Anything, "png").
					Return(nil, charts.Format(""), apierrors.NewUnavailableError("datos no disponibles", charts.ErrFieldUnavailable))
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "render failure",
			target: "/api/data/charts/produccion_m3.png",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", "produccion_m3", mock.Anything, "png").
					Return(nil, charts.Format(""), apierrors.NewRenderError("no se pudo dibujar el gráfico", errors.New("boom")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			tt.setupMock(svc)

			w := serve(newDashboardRouter(t, svc), "GET", tt.target)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, w.Header().Get("Content-Type"))
				assert.NotEmpty(t, w.Body.Bytes())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Export", period.Query{Mode: period.ModeLastMonth}, "csv").Return(&services.ExportFile{
		Name:        "gnl_2024-03-01_2024-03-31.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("\xEF\xBB\xBFFecha\n2024-03-01\n"),
		Count:       1,
	}, nil)
	svc.On("Export", mock.Anything, "pdf").Return(nil,
		apierrors.NewValidationError("parámetro inválido", services.ErrUnsupportedFormat))
	router := newDashboardRouter(t, svc)

	w := serve(router, "GET", "/api/data/export/csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="gnl_2024-03-01_2024-03-31.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", w.Header().Get(RecordCountHeader))
	assert.Contains(t, w.Body.String(), "2024-03-01")

	w = serve(router, "GET", "/api/data/export/pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_Timeout(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Summary", mock.Anything).Return(domain.PeriodSummary{}, context.DeadlineExceeded)

	w := serve(newDashboardRouter(t, svc), "GET", "/api/data/summary")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
