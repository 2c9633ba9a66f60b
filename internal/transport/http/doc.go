// Package http implements the HTTP handlers of the dashboard. Handlers stay
// thin: they parse and validate the request, call a service and format the
// response.
//
// # Routes
//
//	GET /api/health, /api/health/ready, /api/health/live, /api/version
//	GET /api/data/dataset
//	GET /api/data/records?period=&start=&end=
//	GET /api/data/summary?period=&start=&end=
//	GET /api/data/charts?period=&start=&end=
//	GET /api/data/charts/{chart}.{format}?period=&start=&end=
//	GET /api/data/export/{format}?period=&start=&end=
//	GET /
//
// # Error Handling
//
// JSON endpoints answer errors as RFC 7807 problem details through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/source-unavailable",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "no se pudo leer la fuente de datos",
//	    "instance": "/api/data/records"
//	}
//
// The dashboard page renders the same detail as an inline message instead.
package http
