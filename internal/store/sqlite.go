package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/persistorai/triplewalk/internal/db"
	"github.com/persistorai/triplewalk/internal/models"
)

const backendSQLite = "sqlite"

// sqliteMaxVars keeps a single statement under SQLite's bound-variable limit.
const sqliteMaxVars = 999

// SQLiteStore reads triples from a local SQLite database file with the same
// schema as the PostgreSQL store.
type SQLiteStore struct {
	conn *sql.DB
	log  *logrus.Logger
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, log *logrus.Logger) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()

		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()

			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if err := db.RunSQLiteMigrations(ctx, conn, log); err != nil {
		conn.Close()

		return nil, fmt.Errorf("running sqlite migrations: %w", err)
	}

	return &SQLiteStore{conn: conn, log: log}, nil
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Edges implements Store.
func (s *SQLiteStore) Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	from, to := "subject", "object"
	if q.Direction == models.In {
		from, to = "object", "subject"
	}

	preds := normalizePredicates(q.Predicates)
	afterPred, afterVertex := afterKey(q.After)
	args := []any{string(q.Vertex), string(afterPred), string(afterVertex)}

	filter := ""
	if len(preds) > 0 {
		filter = " AND predicate IN (" + placeholders(len(preds)) + ")"
		for _, p := range preds {
			args = append(args, string(p))
		}
	}

	args = append(args, pageSize(q.Limit))

	query := fmt.Sprintf(`SELECT predicate, %[2]s FROM kg_triples
		 WHERE %[1]s = ? AND (predicate, %[2]s) > (?, ?)%[3]s
		 ORDER BY predicate, %[2]s
		 LIMIT ?`, from, to, filter)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(backendSQLite, "edges", fmt.Errorf("querying %s edges: %w", q.Direction, err))
	}
	defer rows.Close()

	var out []models.Edge

	for rows.Next() {
		var pred, vertex string
		if err := rows.Scan(&pred, &vertex); err != nil {
			return nil, unavailable(backendSQLite, "edges", fmt.Errorf("scanning edge: %w", err))
		}

		out = append(out, models.Edge{Predicate: models.Node(pred), Vertex: models.Node(vertex)})
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(backendSQLite, "edges", fmt.Errorf("iterating edges: %w", err))
	}

	return out, nil
}

// Contains implements Store.
func (s *SQLiteStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists int

	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM kg_triples WHERE subject = ? AND predicate = ? AND object = ?)`,
		string(t.Subject), string(t.Predicate), string(t.Object),
	).Scan(&exists)
	if err != nil {
		return false, unavailable(backendSQLite, "contains", fmt.Errorf("checking triple: %w", err))
	}

	return exists == 1, nil
}

// Vertices implements Store.
func (s *SQLiteStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id FROM kg_vertices WHERE id > ? ORDER BY id LIMIT ?`,
		string(after), pageSize(limit),
	)
	if err != nil {
		return nil, unavailable(backendSQLite, "vertices", fmt.Errorf("querying vertices: %w", err))
	}
	defer rows.Close()

	var out []models.Node

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(backendSQLite, "vertices", fmt.Errorf("scanning vertex: %w", err))
		}

		out = append(out, models.Node(id))
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(backendSQLite, "vertices", fmt.Errorf("iterating vertices: %w", err))
	}

	return out, nil
}

// LoadTriples implements Loader with multi-row INSERT OR IGNORE statements
// inside one transaction.
func (s *SQLiteStore) LoadTriples(ctx context.Context, triples []models.Triple) (int, error) {
	if err := validateBatch(triples); err != nil {
		return 0, err
	}

	if len(triples) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable(backendSQLite, "load", fmt.Errorf("beginning transaction: %w", err))
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	const rowsPerStmt = sqliteMaxVars / 3

	total := 0

	for i := 0; i < len(triples); i += rowsPerStmt {
		batch := triples[i:min(i+rowsPerStmt, len(triples))]

		tripleArgs := make([]any, 0, 3*len(batch))
		vertexArgs := make([]any, 0, 2*len(batch))
		values := make([]string, len(batch))
		vertexValues := make([]string, 0, 2*len(batch))

		for j, t := range batch {
			values[j] = "(?, ?, ?)"
			tripleArgs = append(tripleArgs, string(t.Subject), string(t.Predicate), string(t.Object))
			vertexArgs = append(vertexArgs, string(t.Subject), string(t.Object))
			vertexValues = append(vertexValues, "(?)", "(?)")
		}

		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO kg_triples (subject, predicate, object) VALUES "+strings.Join(values, ", "),
			tripleArgs...,
		)
		if err != nil {
			return 0, unavailable(backendSQLite, "load", fmt.Errorf("inserting triples: %w", err))
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, unavailable(backendSQLite, "load", fmt.Errorf("counting inserted triples: %w", err))
		}

		total += int(n)

		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO kg_vertices (id) VALUES "+strings.Join(vertexValues, ", "),
			vertexArgs...,
		); err != nil {
			return 0, unavailable(backendSQLite, "load", fmt.Errorf("inserting vertices: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable(backendSQLite, "load", fmt.Errorf("committing load: %w", err))
	}

	s.log.WithFields(logrus.Fields{"triples": len(triples), "inserted": total}).Debug("sqlite batch loaded")

	return total, nil
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return unavailable(backendSQLite, "ping", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("closing sqlite database: %w", err)
	}

	return nil
}
