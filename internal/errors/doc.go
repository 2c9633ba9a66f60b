// Package errors carries the application's error vocabulary and its HTTP
// rendering.
//
// Services return *AppError values typed by failure class (source, parsing,
// validation, not found, unavailable, render, config). ErrorHandler turns any
// error into an RFC 7807 problem document, choosing the status from the
// AppError type, and logs it with the request id.
package errors
