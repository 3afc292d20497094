package sqlstore

import (
	"context"
	"errors"
)

// Row is a single-row result, scanned once.
type Row interface {
	Scan(dest ...any) error
}

// Rows is satisfied by pgx.Rows directly and by the database/sql wrapper.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Executor runs statements against one backing store.
type Executor interface {
	Dialect() Dialect
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// InTx runs fn inside a transaction, committing when fn returns nil
	InTx(ctx context.Context, fn func(tx Executor) error) error
	Ping(ctx context.Context) error
}

// ErrNoRows is returned by executors when QueryRow finds nothing,
// whatever the driver's own sentinel is.
var ErrNoRows = errors.New("no rows in result set")
