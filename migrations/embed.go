// Package migrations embeds the SQL schema so the migrate binary and the
// API server can apply it without a checkout on disk.
package migrations

import "embed"

// FS holds the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
