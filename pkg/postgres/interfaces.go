package postgres

import (
	"context"
	"database/sql"
)

// Client is the database handle behind the Postgres scenario catalog.
// Tests substitute a stub.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error

	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Transaction runs fn in a transaction, committing when it returns nil
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// HealthCheck reports connectivity and pool usage
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
