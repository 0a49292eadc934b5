// Package migrations embeds the SQL schema for the relational triple stores.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the goose migrations for PostgreSQL.
func Postgres() fs.FS { return sub("postgres") }

// SQLite returns the goose migrations for SQLite.
func SQLite() fs.FS { return sub("sqlite") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // dir is a compile-time constant present in the embed.
	}

	return f
}
