package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/csvload/internal/retry"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// TableWriter persists chunks. Each call is atomic on its own: it either
// commits every row it was given or none of them.
type TableWriter interface {
	// Replace drops the table if present, creates it from cols and writes rows.
	Replace(ctx context.Context, table csvload.TableRef, cols []Column, rows [][]any) error

	// Append writes rows into an existing table.
	Append(ctx context.Context, table csvload.TableRef, cols []Column, rows [][]any) error
}

// PgWriter is the PostgreSQL TableWriter. Rows are streamed with COPY.
type PgWriter struct {
	conn  csvload.DBConnection
	retry *retry.Executor
}

var _ TableWriter = (*PgWriter)(nil)

// NewPgWriter creates a writer over conn.
// Panics if conn is nil.
func NewPgWriter(conn csvload.DBConnection) *PgWriter {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &PgWriter{conn: conn}
}

// WithRetry returns a copy of the writer that replays a whole chunk
// transaction when executor classifies its error as transient. The receiver
// is left unchanged.
func (w *PgWriter) WithRetry(executor *retry.Executor) *PgWriter {
	clone := *w
	clone.retry = executor
	return &clone
}

// CreateTableSQL renders the CREATE TABLE statement for cols.
func CreateTableSQL(table csvload.TableRef, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Kind.SQLType()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pgx.Identifier(table.Parts()).Sanitize(), strings.Join(defs, ", "))
}

// DropTableSQL renders the DROP TABLE IF EXISTS statement for table.
func DropTableSQL(table csvload.TableRef) string {
	return "DROP TABLE IF EXISTS " + pgx.Identifier(table.Parts()).Sanitize()
}

func (w *PgWriter) Replace(ctx context.Context, table csvload.TableRef, cols []Column, rows [][]any) error {
	return w.inTx(ctx, table, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, DropTableSQL(table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		if _, err := tx.Exec(ctx, CreateTableSQL(table, cols)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		return copyRows(ctx, tx, table, cols, rows)
	})
}

func (w *PgWriter) Append(ctx context.Context, table csvload.TableRef, cols []Column, rows [][]any) error {
	return w.inTx(ctx, table, func(tx pgx.Tx) error {
		return copyRows(ctx, tx, table, cols, rows)
	})
}

func (w *PgWriter) inTx(ctx context.Context, table csvload.TableRef, fn func(pgx.Tx) error) error {
	if w.retry == nil {
		return w.runTx(ctx, table, fn)
	}
	return w.retry.Execute(ctx, func(ctx context.Context) error {
		return w.runTx(ctx, table, fn)
	})
}

func (w *PgWriter) runTx(ctx context.Context, table csvload.TableRef, fn func(pgx.Tx) error) error {
	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table csvload.TableRef, cols []Column, rows [][]any) error {
	n, err := tx.CopyFrom(ctx, pgx.Identifier(table.Parts()), ColumnNames(cols), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy rows into %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copied %d of %d rows into %s", n, len(rows), table)
	}
	return nil
}
