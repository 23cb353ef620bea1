package core

import (
	"context"
	"database/sql"
)

type (
	// DBExecutor is the subset of database/sql operations the repositories
	// run their queries through. Both *sqlx.DB and *sql.Tx satisfy it, so a
	// repository method can be pointed at an open transaction by passing one
	// as its trailing exec argument.
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// DB is an executor that can also open transactions. Services hold one
	// when an operation spans several repository writes; in-memory setups
	// leave it nil and the services fall back to plain calls.
	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

// DBOrdering names a sort column for list queries. The zero Ascending
// defaults to descending, which keeps "newest first" the cheap spelling.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
