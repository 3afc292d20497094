package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"analytics-service/internal/adapters/sqlstore"

	_ "github.com/mattn/go-sqlite3"
)

// querier is the subset shared by *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor runs sqlstore statements on SQLite through database/sql.
type Executor struct {
	db *sql.DB
	q  querier
	tx bool
}

var _ sqlstore.Executor = (*Executor)(nil)

// Open opens (or creates) a database. The pool is a single connection, which
// also keeps a ":memory:" database alive for the lifetime of the executor.
func Open(dsn string) (*Executor, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return &Executor{db: db, q: db}, nil
}

func (e *Executor) Dialect() sqlstore.Dialect { return sqlstore.SQLite }

func (e *Executor) Query(ctx context.Context, query string, args ...any) (sqlstore.Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows}, nil
}

func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) sqlstore.Row {
	return row{e.q.QueryRowContext(ctx, query, args...)}
}

func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (e *Executor) InTx(ctx context.Context, fn func(tx sqlstore.Executor) error) error {
	if e.tx {
		return fn(e)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Executor{db: e.db, q: tx, tx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Executor) Close() error {
	return e.db.Close()
}

type sqlRows struct {
	*sql.Rows
}

// Close drops the error; Err reports iteration failures.
func (r *sqlRows) Close() {
	_ = r.Rows.Close()
}

type row struct {
	*sql.Row
}

func (r row) Scan(dest ...any) error {
	err := r.Row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return sqlstore.ErrNoRows
	}
	return err
}
