package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/exporter"
	customMiddleware "gnlreports/internal/middleware"
	"gnlreports/internal/services"
	"gnlreports/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageOptions holds the static text of the dashboard page.
type PageOptions struct {
	Title  string
	Footer string
}

// PageHandler renders the server-side dashboard page
type PageHandler struct {
	service      DashboardServiceInterface
	validator    *customMiddleware.Validator
	errorHandler *apierrors.ErrorHandler
	tmpl         *template.Template
	opts         PageOptions
	logger       *slog.Logger
}

type chartView struct {
	ID    string
	Title string
	URL   string
	Err   string
}

type pageData struct {
	Title       string
	Footer      string
	Error       string
	Periods     []services.PeriodOption
	Period      string
	Start       string
	End         string
	MinDate     string
	MaxDate     string
	Count       int
	Summary     domain.PeriodSummary
	Charts      []chartView
	Headers     []string
	Rows        [][]string
	Diagnostics []domain.Diagnostic
	Generated   time.Time
}

// NewPageHandler parses the embedded dashboard template.
func NewPageHandler(service DashboardServiceInterface, validator *customMiddleware.Validator, errorHandler *apierrors.ErrorHandler, opts PageOptions, logger *slog.Logger) (*PageHandler, error) {
	printer := message.NewPrinter(language.Spanish)
	funcs := template.FuncMap{
		"number": func(v float64) string { return printer.Sprintf("%.2f", v) },
		"date":   func(t time.Time) string { return t.Format(services.DateLayout) },
	}
	tmpl, err := template.New("dashboard.html").Funcs(funcs).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &PageHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		tmpl:         tmpl,
		opts:         opts,
		logger:       logger.With(slog.String("component", "page_handler")),
	}, nil
}

// Dashboard handles GET /
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:     h.opts.Title,
		Footer:    h.opts.Footer,
		Generated: time.Now(),
	}
	req := NewFilterRequest(r)

	q, err := ParseFilter(r, h.validator)
	if err != nil {
		h.renderError(w, r, data, err)
		return
	}
	view, err := h.service.Dashboard(r.Context(), q)
	if err != nil {
		h.renderError(w, r, data, err)
		return
	}

	info := view.Info
	data.Periods = info.Periods
	data.Period = string(q.Mode)
	data.MinDate = services.FormatDate(info.MinDate)
	data.MaxDate = services.FormatDate(info.MaxDate)
	data.Start, data.End = req.Start, req.End
	if data.Start == "" {
		data.Start = data.MinDate
	}
	if data.End == "" {
		data.End = data.MaxDate
	}
	data.Count = view.Result.Count
	data.Summary = view.Summary
	data.Diagnostics = info.Diagnostics

	params := url.Values{}
	params.Set("period", string(q.Mode))
	if req.Start != "" {
		params.Set("start", req.Start)
	}
	if req.End != "" {
		params.Set("end", req.End)
	}
	for _, p := range view.Panels {
		data.Charts = append(data.Charts, chartView{
			ID:    p.ID,
			Title: p.Title,
			URL:   "/api/data/charts/" + url.PathEscape(p.ID) + ".png?" + params.Encode(),
			Err:   p.Err,
		})
	}

	var fields []string
	for _, f := range info.Fields {
		if f.Available {
			fields = append(fields, f.Name)
		}
	}
	labels := make(map[string]string, len(info.Fields))
	for _, f := range info.Fields {
		labels[f.Name] = f.Display
	}
	table := exporter.NewTable(view.Result.Records, fields, func(name string) string { return labels[name] })
	data.Headers = table.Headers()
	for i := range table.Records {
		data.Rows = append(data.Rows, table.Row(i))
	}

	h.render(w, r, http.StatusOK, data)
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, data pageData, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	h.logger.WarnContext(r.Context(), "dashboard unavailable",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
	)
	data.Error = problem.Detail
	h.render(w, r, problem.Status, data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard page", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
