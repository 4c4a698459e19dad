// Package migrations carries the embedded schema migration files so they
// compile into the binary and apply on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
