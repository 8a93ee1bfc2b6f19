// Package migrations embeds the goose SQL migrations for every SQL engine.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql
var postgresFiles embed.FS

//go:embed sqlite/*.sql
var sqliteFiles embed.FS

// Postgres returns the PostgreSQL migrations rooted at the migration files.
func Postgres() fs.FS {
	return mustSub(postgresFiles, "postgres")
}

// SQLite returns the SQLite migrations rooted at the migration files.
func SQLite() fs.FS {
	return mustSub(sqliteFiles, "sqlite")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
