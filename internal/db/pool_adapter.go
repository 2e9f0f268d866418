package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// PoolAdapter adapts *pgxpool.Pool to csvload.DBConnection. Safe for
// concurrent use.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

var _ csvload.DBConnection = (*PoolAdapter)(nil)

// NewPoolAdapter wraps pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Exec executes a statement without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) csvload.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Begin starts a transaction on a pooled connection. The connection returns
// to the pool on Commit or Rollback.
func (p *PoolAdapter) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}
