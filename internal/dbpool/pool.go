// Package dbpool provides the PostgreSQL connection pool behind the postgres
// triple store.
package dbpool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults.
const (
	DefaultMaxConns         = 20
	DefaultStatementTimeout = 30 * time.Second
	minConns                = 2
)

// ErrSchemaMissing is returned by HealthCheck when the database is reachable
// but the triples table has not been created.
var ErrSchemaMissing = errors.New("kg_triples table missing")

// Config configures NewPool.
type Config struct {
	URL              string
	MaxConns         int
	StatementTimeout time.Duration
}

// Pool wraps a pgxpool.Pool. The underlying pool is unexported so callers go
// through the store's withTimeout pattern.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a PostgreSQL connection pool. Walks issue many small
// keyset queries concurrently, so MaxConns bounds the fan-out a single
// server can put on the database.
func NewPool(ctx context.Context, c Config) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}

	if c.StatementTimeout <= 0 {
		c.StatementTimeout = DefaultStatementTimeout
	}

	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10)
	cfg.ConnConfig.RuntimeParams["application_name"] = "triplewalk"

	cfg.MaxConns = int32(c.MaxConns) //nolint:gosec // bounded by config validation.
	cfg.MinConns = min(minConns, cfg.MaxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Exec executes a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query executes a query that returns rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow executes a query that returns at most one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Begin starts a transaction. Only the bulk loader writes.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// HealthCheck verifies connectivity and that the triples table exists.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var present bool

	err := p.pool.QueryRow(ctx, "SELECT to_regclass('kg_triples') IS NOT NULL").Scan(&present)
	if err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	if !present {
		return ErrSchemaMissing
	}

	return nil
}

// ConnString returns the connection string used to create the pool.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.pool.Close()
}
