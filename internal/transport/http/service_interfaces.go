package http

import (
	"context"

	"gnlreports/internal/charts"
	"gnlreports/internal/period"
	"gnlreports/internal/services"
	"gnlreports/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers need
type DashboardServiceInterface interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Records(ctx context.Context, q period.Query) (period.Result, error)
	Summary(ctx context.Context, q period.Query) (domain.PeriodSummary, error)
	Panels(ctx context.Context, q period.Query) ([]charts.Panel, error)
	Dashboard(ctx context.Context, q period.Query) (*services.DashboardView, error)
	Chart(ctx context.Context, id string, q period.Query, format string) ([]byte, charts.Format, error)
	Export(ctx context.Context, q period.Query, format string) (*services.ExportFile, error)
}

// HealthServiceInterface defines the health operations exposed over HTTP
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
