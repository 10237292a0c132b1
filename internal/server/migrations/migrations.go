// Package migrations embeds the goose SQL migrations of the server schema,
// one set per supported database.
package migrations

import "embed"

// Migrations holds the PostgreSQL schema at the root of the FS.
//
//go:embed *.sql
var Migrations embed.FS

// SQLite holds the SQLite schema under the "sqlite" directory.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
