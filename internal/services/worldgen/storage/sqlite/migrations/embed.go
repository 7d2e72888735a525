package migrations

import "embed"

// FS contains embedded SQLite migrations for worldgen storage.
//
//go:embed *.sql
var FS embed.FS
