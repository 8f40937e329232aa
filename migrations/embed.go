// Package migrations embeds the SQL migration files into the binary.
//
// Migration files follow the naming convention:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// The init function wires the embedded filesystem into the database
// package so the runner can discover and apply them at startup.
package migrations

import (
	"embed"

	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/database"
)

//go:embed *.sql
var FS embed.FS

func init() {
	database.MigrationsFS = FS
	database.MigrationsDir = "."
}
