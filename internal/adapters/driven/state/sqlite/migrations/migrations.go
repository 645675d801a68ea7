// Package migrations embeds the SQL schema migrations for the sqlite
// state backend.
package migrations

import "embed"

// FS contains the migration files.
//
//go:embed *.sql
var FS embed.FS
