package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/saaga0h/wellness-engine/pkg/config"
	"github.com/saaga0h/wellness-engine/pkg/retry"
)

// ErrNotConnected is returned by every query method before Connect succeeds
var ErrNotConnected = errors.New("postgres client not connected")

// Connect pings this many times before giving up, so the engine can start
// alongside a database that is still booting.
const connectAttempts = 3

// Pool is a database/sql pool that may be connected after construction and
// closed while requests are in flight. Callers that lose the race with
// Disconnect get ErrNotConnected instead of a closed-pool error.
type Pool struct {
	mu     sync.RWMutex
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger

	backoff retry.Backoff
}

// NewClient creates an unconnected pool
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:     cfg,
		logger:  logger,
		backoff: retry.ExponentialBackoff(500*time.Millisecond, 2*time.Second),
	}
}

// Connect opens the pool and waits for the server to answer a ping.
// Calling Connect on a connected pool is a no-op.
func (p *Pool) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return nil
	}

	p.logger.Info("Connecting to Postgres",
		"host", p.cfg.PostgresHost,
		"port", p.cfg.PostgresPort,
		"database", p.cfg.PostgresDB)

	db, err := sql.Open("postgres", p.cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(p.cfg.PostgresMaxConnections)
	db.SetMaxIdleConns(p.cfg.PostgresMaxIdleConnections)
	db.SetConnMaxLifetime(p.cfg.PostgresConnMaxLifetime)

	_, err = retry.Do(ctx, retry.Policy{
		MaxAttempts: connectAttempts,
		Backoff:     p.backoff,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			p.logger.Warn("Postgres not ready, retrying", "attempt", attempt, "delay", delay, "error", err)
		},
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	p.db = db
	p.logger.Info("Connected to Postgres", "max_connections", p.cfg.PostgresMaxConnections)
	return nil
}

// Disconnect closes the pool. It is safe to call more than once.
func (p *Pool) Disconnect() error {
	p.mu.Lock()
	db := p.db
	p.db = nil
	p.mu.Unlock()

	if db == nil {
		return nil
	}
	p.logger.Info("Disconnecting from Postgres")
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}
	return nil
}

func (p *Pool) handle() (*sql.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, ErrNotConnected
	}
	return p.db, nil
}

// Exec runs a statement that returns no rows
func (p *Pool) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db, err := p.handle()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

// Query runs a statement that returns rows; the caller closes them
func (p *Pool) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	db, err := p.handle()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

// Transaction runs fn in a transaction. The transaction is rolled back when
// fn returns an error or panics, and committed otherwise.
func (p *Pool) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := p.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
