package postgres

import (
	"context"
	"database/sql"
)

// Client is the subset of a Postgres pool the result store needs. Every
// method except Connect returns ErrNotConnected until Connect succeeds.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error

	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// Transaction runs fn in a transaction, committing when fn returns nil
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// HealthCheck pings the server; a failed ping is reported in the status, not as an error
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
