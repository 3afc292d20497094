package postgres

import (
	"context"
	"errors"
	"fmt"

	"analytics-service/internal/adapters/sqlstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Executor runs sqlstore statements on a pgx pool.
type Executor struct {
	pool *pgxpool.Pool
	q    querier
}

var _ sqlstore.Executor = (*Executor)(nil)

func NewExecutor(pool *pgxpool.Pool) (*Executor, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Executor{pool: pool, q: pool}, nil
}

func (e *Executor) Dialect() sqlstore.Dialect { return sqlstore.Postgres }

func (e *Executor) Query(ctx context.Context, sql string, args ...any) (sqlstore.Rows, error) {
	return e.q.Query(ctx, sql, args...)
}

func (e *Executor) QueryRow(ctx context.Context, sql string, args ...any) sqlstore.Row {
	return row{e.q.QueryRow(ctx, sql, args...)}
}

func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := e.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InTx runs fn in a transaction on one pooled connection. Nested calls reuse
// the outer transaction.
func (e *Executor) InTx(ctx context.Context, fn func(tx sqlstore.Executor) error) error {
	if _, nested := e.q.(pgx.Tx); nested {
		return fn(e)
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Executor{pool: e.pool, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (e *Executor) Ping(ctx context.Context) error {
	return e.pool.Ping(ctx)
}

// row maps pgx.ErrNoRows onto the store-neutral sentinel
type row struct {
	pgx.Row
}

func (r row) Scan(dest ...any) error {
	err := r.Row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return sqlstore.ErrNoRows
	}
	return err
}
