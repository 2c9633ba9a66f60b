package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"gnlreports/internal/config"
	"gnlreports/internal/dataset"
	"gnlreports/internal/errors"
	"gnlreports/internal/infrastructure"
	customMiddleware "gnlreports/internal/middleware"
	"gnlreports/internal/services"
	handlers "gnlreports/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	SystemMetrics    *infrastructure.SystemMetrics
	FrontendFS       fs.FS // Embedded static assets
}

// NewApplication loads the configuration, initializes the process logger and
// builds the application.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logCfg := cfg.Logging
	logCfg.FilePath = cfg.LogFilePath()
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, frontendFS, logger)
}

// New wires an application from an already loaded configuration.
func New(cfg *config.Config, frontendFS fs.FS, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.Version),
		slog.String("source", cfg.SourceID()),
		slog.String("sheet", cfg.Source.Sheet))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	if a.OTelProviders.Meter != nil {
		metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		a.Metrics = metrics
	}

	system, err := infrastructure.NewSystemMetrics(a.OTelProviders.Meter, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create system metrics: %w", err)
	}
	a.SystemMetrics = system

	resolver, err := a.newResolver()
	if err != nil {
		return err
	}
	loader := dataset.NewLoader(resolver, a.Logger)

	opts := dataset.DefaultOptions()
	opts.Sheet = a.Config.Source.Sheet
	opts.DateField = a.Config.Source.DateColumn

	source := a.Config.SourceID()
	a.DashboardService = services.NewDashboardService(source, opts, loader, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(source, a.DashboardService, a.SystemMetrics, a.Logger)
	return nil
}

// newResolver returns the dataset resolver, with Google Sheets access when a
// spreadsheet is configured.
func (a *Application) newResolver() (dataset.Resolver, error) {
	if a.Config.Source.SpreadsheetID == "" {
		return dataset.NewResolver(nil), nil
	}
	svc, err := dataset.NewSheetsService(context.Background(), a.Config.Source.CredentialsFile)
	if err != nil {
		return nil, errors.NewConfigError("failed to create Google Sheets client", err)
	}
	a.Logger.Info("Google Sheets source configured",
		slog.String("spreadsheet_id", a.Config.Source.SpreadsheetID))
	return dataset.NewResolver(svc), nil
}

// setupRouter configures the chi router.
// Middleware order: RequestID → RealIP → OTel → Logger → Recoverer → Security → CORS → RateLimit
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.FrontendFS != nil {
		a.setupStaticAssets(r)
	}

	validator, err := customMiddleware.NewValidator(nil)
	if err != nil {
		return err
	}

	var routeErr error
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errorHandler.Recoverer)
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r, validator, errorHandler)
		routeErr = a.setupHTMLRoutes(r, validator, errorHandler)
	})
	if routeErr != nil {
		return routeErr
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// setupAPIRoutes mounts the JSON API
func (a *Application) setupAPIRoutes(r chi.Router, validator *customMiddleware.Validator, errorHandler *errors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, validator, a.Logger, errorHandler)
		r.Mount("/data", dashboardHandler.Routes())
	})
}

// setupHTMLRoutes serves the dashboard page
func (a *Application) setupHTMLRoutes(r chi.Router, validator *customMiddleware.Validator, errorHandler *errors.ErrorHandler) error {
	page, err := handlers.NewPageHandler(a.DashboardService, validator, errorHandler, handlers.PageOptions{
		Title:  a.Config.Server.Title,
		Footer: a.Config.Server.Footer,
	}, a.Logger)
	if err != nil {
		return err
	}
	r.With(customMiddleware.Compress(5, "text/html")).Get("/", page.Dashboard)
	return nil
}

// setupStaticAssets serves the embedded assets outside the main middleware group.
func (a *Application) setupStaticAssets(r chi.Router) {
	r.Route("/static", func(r chi.Router) {
		r.Use(middleware.SetHeader("Cache-Control", "public, max-age=86400"))
		r.Use(customMiddleware.Compress(5, "text/css", "image/svg+xml"))
		r.Handle("/*", a.serveStatic(a.FrontendFS, "/static"))
	})
}

// serveStatic serves files of frontendFS with explicit content types.
func (a *Application) serveStatic(frontendFS fs.FS, prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if strings.Contains(name, "..") {
			http.NotFound(w, r)
			return
		}

		data, err := fs.ReadFile(frontendFS, name)
		if err != nil {
			a.Logger.DebugContext(r.Context(), "static file not found",
				slog.String("path", name),
				slog.String("prefix", prefix),
				slog.String("error", err.Error()))
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", contentType(name))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write(data)
	})
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	case ".html":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// getCORSConfig builds the CORS policy from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
			handlers.RecordCountHeader,
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server. A listen failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if a.Config.Source.Preload {
		go a.preload(ctx)
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// preload loads the dataset once so the first page view does not wait for it.
// A failure is only logged; the dashboard reports it and retries on demand.
func (a *Application) preload(ctx context.Context) {
	info, err := a.DashboardService.Info(ctx)
	if err != nil {
		infrastructure.RecordSystemError(ctx, a.Metrics, "preload")
		a.Logger.WarnContext(ctx, "Dataset preload failed",
			slog.String("source", a.DashboardService.Source()),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Dataset preloaded",
		slog.String("source", info.Source),
		slog.Int("records", info.Records),
		slog.Int("diagnostics", len(info.Diagnostics)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.SystemMetrics != nil {
		if err := a.SystemMetrics.Stop(); err != nil {
			a.Logger.ErrorContext(ctx, "Error stopping system metrics", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}
