// Package migrations holds the PostgreSQL schema for the user-state backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
