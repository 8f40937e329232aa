// Package logging provides structured logging for Amarillo.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, and stamps every record with the service
// name and version.
package logging
