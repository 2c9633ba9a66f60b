// Package services holds the dashboard's application logic between the HTTP
// handlers and the dataset, period, charts and exporter packages.
//
// DashboardService owns the process-wide dataset cache. Every operation
// takes a period.Query, loads (or reuses) the dataset, filters it and
// builds one view: table, KPI summary, chart panels, a rendered chart image
// or an export file. Domain errors are wrapped into typed application
// errors (internal/errors) so handlers never inspect error strings.
//
// HealthService answers liveness, readiness (the dataset loads) and
// version probes.
package services
