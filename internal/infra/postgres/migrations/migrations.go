package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects every schema change, ordered by file timestamp.
var Migrations = migrate.NewMigrations()
