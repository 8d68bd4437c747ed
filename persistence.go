package session

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenSessionDB opens the local sqlite database backing the persisted
// session cache. Use ":memory:" (or a file::memory: DSN) in tests.
func OpenSessionDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open session database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// EnsureSessionSchema creates the session cache table when missing.
func EnsureSessionSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*PersistedSession)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session cache table")
	}
	return nil
}
