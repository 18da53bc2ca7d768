// Package database wraps the pgx connection pool behind small interfaces so
// repositories and the transaction coordinator can run against pgxmock.
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repository methods that must run inside a coordinator transaction take a
// Querier so they see writes made earlier in the same transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transaction handle used by the coordinator.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner starts transactions. Implemented by *DB in production and by
// lightweight fakes in service tests.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// PgxPool is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store is what the transaction coordinator depends on: plain queries for
// reads outside a transaction, plus Begin for the atomic write path.
type Store interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

type DB struct{ Pool PgxPool }

func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.Pool.Exec(ctx, sql, args...)
}

func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}

func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: p}, nil
}

// Begin adapts the pool's pgx.Tx to the narrower Tx interface.
func (db *DB) Begin(ctx context.Context) (Tx, error) {
	return db.Pool.Begin(ctx)
}

func (db *DB) Close() { db.Pool.Close() }

// IsUniqueViolation reports whether the error is a unique constraint
// violation. Coordinator operations rely on this to turn a losing
// concurrent insert into a conflict instead of a check-then-act race.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
