package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/dbpool"
	"github.com/persistorai/triplewalk/internal/models"
)

const backendPostgres = "postgres"

// maxBulkBatchSize limits the rows sent per INSERT during a load.
const maxBulkBatchSize = 500

// Base contains shared dependencies for the PostgreSQL store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// PostgresStore reads triples from the kg_triples table. Text columns use
// the "C" collation so keyset order matches byte order.
type PostgresStore struct {
	Base
}

// NewPostgresStore creates a PostgresStore with the given shared base.
func NewPostgresStore(base Base) *PostgresStore {
	return &PostgresStore{Base: base}
}

// adjacencySQL returns the keyset query for one direction. from is the
// column the lookup starts at, to is the column returned as the vertex.
func adjacencySQL(from, to string, filtered bool) string {
	filter := ""
	if filtered {
		filter = " AND predicate = ANY($5)"
	}

	return fmt.Sprintf(`SELECT predicate, %[2]s FROM kg_triples
		 WHERE %[1]s = $1 AND (predicate, %[2]s) > ($2, $3)%[3]s
		 ORDER BY predicate, %[2]s
		 LIMIT $4`, from, to, filter)
}

var (
	outAllSQL      = adjacencySQL("subject", "object", false)
	outFilteredSQL = adjacencySQL("subject", "object", true)
	inAllSQL       = adjacencySQL("object", "subject", false)
	inFilteredSQL  = adjacencySQL("object", "subject", true)
)

// Edges implements Store.
func (s *PostgresStore) Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	preds := normalizePredicates(q.Predicates)
	afterPred, afterVertex := afterKey(q.After)
	args := []any{string(q.Vertex), string(afterPred), string(afterVertex), pageSize(q.Limit)}

	var query string

	switch {
	case q.Direction == models.In && len(preds) > 0:
		query = inFilteredSQL
	case q.Direction == models.In:
		query = inAllSQL
	case len(preds) > 0:
		query = outFilteredSQL
	default:
		query = outAllSQL
	}

	if len(preds) > 0 {
		args = append(args, stringsOf(preds))
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable(backendPostgres, "edges", fmt.Errorf("querying %s edges: %w", q.Direction, err))
	}
	defer rows.Close()

	var out []models.Edge

	for rows.Next() {
		var pred, vertex string
		if err := rows.Scan(&pred, &vertex); err != nil {
			return nil, unavailable(backendPostgres, "edges", fmt.Errorf("scanning edge: %w", err))
		}

		out = append(out, models.Edge{Predicate: models.Node(pred), Vertex: models.Node(vertex)})
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(backendPostgres, "edges", fmt.Errorf("iterating edges: %w", err))
	}

	return out, nil
}

// Contains implements Store.
func (s *PostgresStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool

	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM kg_triples WHERE subject = $1 AND predicate = $2 AND object = $3)`,
		string(t.Subject), string(t.Predicate), string(t.Object),
	).Scan(&exists)
	if err != nil {
		return false, unavailable(backendPostgres, "contains", fmt.Errorf("checking triple: %w", err))
	}

	return exists, nil
}

// Vertices implements Store.
func (s *PostgresStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT id FROM kg_vertices WHERE id > $1 ORDER BY id LIMIT $2`,
		string(after), pageSize(limit),
	)
	if err != nil {
		return nil, unavailable(backendPostgres, "vertices", fmt.Errorf("querying vertices: %w", err))
	}
	defer rows.Close()

	var out []models.Node

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(backendPostgres, "vertices", fmt.Errorf("scanning vertex: %w", err))
		}

		out = append(out, models.Node(id))
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(backendPostgres, "vertices", fmt.Errorf("iterating vertices: %w", err))
	}

	return out, nil
}

// LoadTriples implements Loader using unnest'ed arrays in batches of
// maxBulkBatchSize inside one transaction.
func (s *PostgresStore) LoadTriples(ctx context.Context, triples []models.Triple) (int, error) {
	if err := validateBatch(triples); err != nil {
		return 0, err
	}

	if len(triples) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, unavailable(backendPostgres, "load", fmt.Errorf("beginning transaction: %w", err))
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	total := 0

	for i := 0; i < len(triples); i += maxBulkBatchSize {
		batch := triples[i:min(i+maxBulkBatchSize, len(triples))]

		subjects := make([]string, len(batch))
		predicates := make([]string, len(batch))
		objects := make([]string, len(batch))
		vertices := make([]string, 0, 2*len(batch))

		for j, t := range batch {
			subjects[j] = string(t.Subject)
			predicates[j] = string(t.Predicate)
			objects[j] = string(t.Object)
			vertices = append(vertices, subjects[j], objects[j])
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO kg_triples (subject, predicate, object)
			 SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
			 ON CONFLICT DO NOTHING`,
			subjects, predicates, objects,
		)
		if err != nil {
			return 0, unavailable(backendPostgres, "load", fmt.Errorf("inserting triples: %w", err))
		}

		total += int(tag.RowsAffected())

		if _, err := tx.Exec(ctx,
			`INSERT INTO kg_vertices (id) SELECT DISTINCT unnest($1::text[]) ON CONFLICT DO NOTHING`,
			vertices,
		); err != nil {
			return 0, unavailable(backendPostgres, "load", fmt.Errorf("inserting vertices: %w", err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, unavailable(backendPostgres, "load", fmt.Errorf("committing load: %w", err))
	}

	s.Log.WithFields(logrus.Fields{"triples": len(triples), "inserted": total}).Debug("postgres batch loaded")

	return total, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.Pool.HealthCheck(ctx); err != nil {
		return unavailable(backendPostgres, "ping", err)
	}

	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.Pool.Close()

	return nil
}
