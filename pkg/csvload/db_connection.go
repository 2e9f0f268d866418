package csvload

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations needed by the schema
// provisioner and the table writer. The pool adapter in internal/db is the
// production implementation; tests substitute fakes.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Begin starts a transaction. Each chunk of a file is written in its
	// own transaction.
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}
