// Package database provides the SQLite persistence layer for Amarillo.
//
// It wraps database/sql with lifecycle management (open, health check,
// close) and an embedded-migration runner. All repositories in the
// application receive a *sql.DB (or the *DB wrapper) by constructor
// injection; there is no package-level connection state.
//
// # Thread Safety
//
// The *DB wrapper is safe for concurrent use. SQLite is configured with
// WAL mode and a single writer connection.
package database
