package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"gnlreports/internal/config"
	"gnlreports/internal/dataset"
	"gnlreports/internal/infrastructure"
)

// readinessTimeout bounds the dataset probe of a readiness check.
const readinessTimeout = 10 * time.Second

// DatasetProbe is the part of the dashboard the health checks look at.
type DatasetProbe interface {
	Info(ctx context.Context) (DatasetInfo, error)
	CacheStats() dataset.CacheStats
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	commit    string
	buildTime string
	source    string
	probe     DatasetProbe
	system    *infrastructure.SystemMetrics
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                      `json:"status"`
	Timestamp time.Time                   `json:"timestamp"`
	Version   string                      `json:"version"`
	Runtime   *infrastructure.SystemStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth    `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates the health service. system may be nil.
func NewHealthService(source string, probe DatasetProbe, system *infrastructure.SystemMetrics, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	start := time.Now()
	if system == nil {
		system, _ = infrastructure.NewSystemMetrics(nil, start)
	}
	return &HealthService{
		version:   config.Version,
		commit:    config.Commit,
		buildTime: config.BuildTime,
		source:    source,
		probe:     probe,
		system:    system,
		startTime: start,
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := hs.system.Snapshot()
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   &stats,
	}
}

// ReadinessCheck reports ready only when the configured dataset loads.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"dataset": hs.checkDataset(ctx)},
	}
	for _, s := range status.Services {
		if s.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

func (hs *HealthService) checkDataset(ctx context.Context) ServiceHealth {
	if hs.probe == nil {
		return ServiceHealth{Status: "not_ready", Message: ErrNotReady.Error()}
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	info, err := hs.probe.Info(ctx)
	if err != nil {
		hs.logger.WarnContext(ctx, "readiness probe failed",
			slog.String("source", hs.source),
			slog.String("error", err.Error()),
		)
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d records from %s (%s)", info.Records, info.Source, info.Sheet),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":       config.AppName,
		"version":    hs.version,
		"commit":     hs.commit,
		"build_time": hs.buildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"source":     hs.source,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}
	if hs.probe != nil {
		result["cache"] = hs.probe.CacheStats()
	}
	return result
}
