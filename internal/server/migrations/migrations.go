// Package migrations embeds the goose migrations of the PostgreSQL
// collaborator schema (profiles and private message history).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
