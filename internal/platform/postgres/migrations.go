package postgres

import "embed"

// MigrationsFS embeds the schema migrations so the server binary and test
// harness apply the same schema without files on disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
