// Package sqlite embeds the goose migrations for the SQLite deployment.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS
