// Package migrations holds the account schema. The SQL is written to run
// unchanged on SQLite and PostgreSQL.
package migrations

import (
	"embed"
)

//go:embed *.sql
var sqlMigrations embed.FS

// GetMigrationsFS returns the embedded SQL files
func GetMigrationsFS() embed.FS {
	return sqlMigrations
}
