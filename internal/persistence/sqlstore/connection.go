// Package sqlstore implements the persistence repositories on database/sql
// through sqlx. SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are
// supported; queries are written with ? placeholders and rebound per driver.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

// ConnectionPool manages database connections with transaction support
type ConnectionPool struct {
	db     *sqlx.DB
	config migration.DatabaseConfig
}

// NewConnectionPool opens a connection pool for the given configuration
func NewConnectionPool(ctx context.Context, config migration.DatabaseConfig) (*ConnectionPool, error) {
	db, err := migration.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &ConnectionPool{db: db, config: config}, nil
}

// DB returns the underlying database handle
func (cp *ConnectionPool) DB() *sqlx.DB {
	return cp.db
}

// Driver returns the database/sql driver name in use
func (cp *ConnectionPool) Driver() string {
	return cp.config.Driver
}

// Close closes the connection pool
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction
type TransactionFunc func(tx *sqlx.Tx) error

// WithTransaction executes fn within a database transaction. The transaction
// is rolled back when fn returns an error or panics, and committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) (err error) {
	tx, err := cp.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
