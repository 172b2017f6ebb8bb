// Package migrations embeds the SQL schema migrations for every supported store.
package migrations

import "embed"

// Postgres holds the migrations for the PostgreSQL store under the "postgres" directory.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the migrations for the SQLite store under the "sqlite" directory.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
