package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "gnlreports/internal/errors"
	customMiddleware "gnlreports/internal/middleware"
	"gnlreports/internal/period"
)

// RecordCountHeader carries the number of exported records.
const RecordCountHeader = "X-Record-Count"

// DashboardHandler serves the dataset, its filtered views, charts and exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *customMiddleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, validator *customMiddleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dataset", h.GetDataset)

	r.Group(func(r chi.Router) {
		r.Use(h.FilterCtx)
		r.Get("/records", h.GetRecords)
		r.Get("/summary", h.GetSummary)
		r.Get("/charts", h.GetCharts)
		r.Get("/charts/{chart}.{format}", h.GetChart)
		r.Get("/export/{format}", h.Export)
	})

	return r
}

type filterKey struct{}

// FilterCtx validates the period parameters and stores the query in the context
func (h *DashboardHandler) FilterCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := ParseFilter(r, h.validator)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withQuery(r.Context(), q)))
	})
}

func queryFrom(r *http.Request) period.Query {
	if q, ok := r.Context().Value(filterKey{}).(period.Query); ok {
		return q
	}
	return period.Query{Mode: period.DefaultMode}
}

// GetDataset handles GET /api/data/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load dataset", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetRecords handles GET /api/data/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Records(r.Context(), queryFrom(r))
	if err != nil {
		h.fail(w, r, "failed to filter records", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  result.Count,
	})
}

// GetSummary handles GET /api/data/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), queryFrom(r))
	if err != nil {
		h.fail(w, r, "failed to summarize records", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
		"count":  summary.Count,
	})
}

// GetCharts handles GET /api/data/charts. Failed charts are reported inline.
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	panels, err := h.service.Panels(r.Context(), queryFrom(r))
	if err != nil {
		h.fail(w, r, "failed to build charts", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   panels,
		"count":  len(panels),
	})
}

// GetChart handles GET /api/data/charts/{chart}.{format}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chart")
	data, format, err := h.service.Chart(r.Context(), id, queryFrom(r), chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, r, "failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Export handles GET /api/data/export/{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.Export(r.Context(), queryFrom(r), chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, r, "failed to export records", err)
		return
	}

	h.logger.InfoContext(r.Context(), "records exported",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", file.Name),
		slog.Int("count", file.Count),
	)

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set(RecordCountHeader, strconv.Itoa(file.Count))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// fail hands err to the error handler, which logs it at a level matching the status.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.DebugContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, err)
}
