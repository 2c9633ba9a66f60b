// Package app wires the dashboard together: configuration, logging,
// telemetry, the dataset loader and services, the chi router and the HTTP
// server lifecycle.
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// Server.ShutdownTimeout and flushes telemetry. Initialization errors are
// returned to the caller; the package never calls os.Exit.
package app
