package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/db"
	"github.com/persistorai/triplewalk/internal/dbpool"
)

// Supported backend names.
const (
	BackendMemory   = backendMemory
	BackendBadger   = backendBadger
	BackendPostgres = backendPostgres
	BackendSQLite   = backendSQLite
)

// Backends lists every name Open accepts.
var Backends = []string{BackendMemory, BackendBadger, BackendPostgres, BackendSQLite}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DatabaseURL string
	MaxConns    int
	BadgerDir   string
	SQLitePath  string
	SyncWrites  bool
}

// Open creates the configured backend, runs schema migrations where needed
// and wraps the result with lookup metrics.
func Open(ctx context.Context, opts Options, log *logrus.Logger) (*Instrumented, error) {
	var (
		g   Graph
		err error
	)

	switch opts.Backend {
	case BackendMemory, "":
		g = NewMemoryStore()
		opts.Backend = BackendMemory
	case BackendBadger:
		g, err = OpenBadger(BadgerConfig{Dir: opts.BadgerDir, SyncWrites: opts.SyncWrites}, log)
	case BackendSQLite:
		g, err = OpenSQLite(ctx, opts.SQLitePath, log)
	case BackendPostgres:
		g, err = openPostgres(ctx, opts, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", opts.Backend, err)
	}

	log.WithField("backend", opts.Backend).Info("graph store opened")

	return Instrument(g, opts.Backend), nil
}

func openPostgres(ctx context.Context, opts Options, log *logrus.Logger) (*PostgresStore, error) {
	pool, err := dbpool.NewPool(ctx, dbpool.Config{URL: opts.DatabaseURL, MaxConns: opts.MaxConns})
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		pool.Close()

		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return NewPostgresStore(Base{Pool: pool, Log: log}), nil
}
