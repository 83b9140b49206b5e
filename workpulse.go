// Package workpulse holds assets embedded into the server binary.
package workpulse

import "embed"

// MigrationsFS contains the SQL schema migrations.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
