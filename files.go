package ident

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded schema migration files.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
