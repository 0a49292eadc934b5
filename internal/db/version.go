package db

import (
	"io/fs"

	"github.com/persistorai/triplewalk/internal/db/migrations"
)

// SchemaVersion is the number of embedded goose migrations. Both dialects
// carry the same sequence, so the postgres set is authoritative.
func SchemaVersion() int {
	names, err := fs.Glob(migrations.Postgres(), "*.sql")
	if err != nil {
		return 0
	}

	return len(names)
}
