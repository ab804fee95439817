// Package dbx wraps a pgx connection pool with a scoped-transaction helper:
// every caller gets a transaction that commits on clean exit and rolls back
// on any error, with the connection always released back to the pool.
package dbx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB holds the shared pgx pool used by every repository in the crawl and
// search packages.
type DB struct {
	Pool *pgxpool.Pool
}

// Open parses dsn and establishes the pool. Callers are responsible for
// calling Close when the process shuts down.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbx: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbx: ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases every connection in the pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// WithTx runs fn inside a transaction scoped to a single commit-or-rollback
// block: fn's error rolls the transaction back, any other exit commits it.
// The underlying connection is always released back to the pool.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("dbx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("dbx: commit: %w", err)
	}
	return nil
}
