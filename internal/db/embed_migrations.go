package db

import "embed"

// MigrationFS embeds the kv_entries schema applied by cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
