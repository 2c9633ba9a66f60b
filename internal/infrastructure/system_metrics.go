package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a point-in-time view of the process.
type SystemStats struct {
	Goroutines    int64         `json:"goroutines"`
	HeapAllocMB   float64       `json:"heap_alloc_mb"`
	SystemMB      float64       `json:"system_mb"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPause   time.Duration `json:"last_gc_pause_ns"`
	CPUCount      int           `json:"cpu_count"`
	Uptime        time.Duration `json:"uptime_ns"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Timestamp     time.Time     `json:"timestamp"`
}

// SystemMetrics exposes runtime gauges through observable instruments
// and serves the same numbers to the health endpoint.
type SystemMetrics struct {
	startTime    time.Time
	registration metric.Registration
}

// NewSystemMetrics registers runtime gauges on meter. A nil meter yields a
// collector that only answers Snapshot.
func NewSystemMetrics(meter metric.Meter, startTime time.Time) (*SystemMetrics, error) {
	sm := &SystemMetrics{startTime: startTime}
	if meter == nil {
		return sm, nil
	}

	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine gauge: %w", err)
	}
	heap, err := meter.Int64ObservableGauge("system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap gauge: %w", err)
	}
	uptime, err := meter.Float64ObservableGauge("system_uptime_seconds",
		metric.WithDescription("Seconds since process start"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	sm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(mem.HeapAlloc))
		o.ObserveFloat64(uptime, time.Since(sm.startTime).Seconds())
		return nil
	}, goroutines, heap, uptime)
	if err != nil {
		return nil, fmt.Errorf("failed to register runtime callback: %w", err)
	}
	return sm, nil
}

// Snapshot reads the current runtime statistics.
func (sm *SystemMetrics) Snapshot() SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	up := time.Since(sm.startTime)

	return SystemStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAllocMB:   float64(mem.HeapAlloc) / 1024 / 1024,
		SystemMB:      float64(mem.Sys) / 1024 / 1024,
		GCCount:       mem.NumGC,
		LastGCPause:   time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:      runtime.NumCPU(),
		Uptime:        up,
		UptimeSeconds: up.Seconds(),
		Timestamp:     time.Now(),
	}
}

// Stop unregisters the runtime callback.
func (sm *SystemMetrics) Stop() error {
	if sm.registration == nil {
		return nil
	}
	return sm.registration.Unregister()
}
