// Package postgres embeds the goose migrations for the Postgres deployment.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
