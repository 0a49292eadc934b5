// Package store provides the graph store backends the query engine reads
// from: an in-memory B-tree index, badger, PostgreSQL and SQLite.
//
// Every backend answers the same three lookups (adjacency by direction and
// predicate, point containment, vertex scan) in the same order, and every
// call is a self-contained round-trip: no iterator, row set or transaction
// outlives the call that opened it.
package store

import (
	"context"
	"slices"
	"time"

	"github.com/persistorai/triplewalk/internal/models"
)

const (
	defaultQueryTimeout = 30 * time.Second

	// DefaultPageSize is used when a lookup does not specify a limit.
	DefaultPageSize = 256

	// MaxPageSize caps a single lookup.
	MaxPageSize = 10000
)

// EdgeQuery selects one page of a vertex's adjacency list.
type EdgeQuery struct {
	Vertex     models.Node
	Direction  models.Direction
	Predicates []models.Node // empty matches every predicate
	After      *models.Edge  // exclusive keyset cursor
	Limit      int
}

// Store is the read side of a graph backend.
type Store interface {
	// Edges returns up to q.Limit edges of q.Vertex ordered by
	// (predicate, vertex), strictly after q.After. An unknown vertex yields
	// an empty slice.
	Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error)

	// Contains reports whether the exact triple is stored.
	Contains(ctx context.Context, t models.Triple) (bool, error)

	// Vertices returns up to limit vertex identifiers in ascending order,
	// strictly after the given one. Pass "" to start from the beginning.
	Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error)

	Ping(ctx context.Context) error
	Close() error
}

// Loader is the bulk population path. It is never reachable from a query.
type Loader interface {
	// LoadTriples stores the triples and returns how many were new.
	LoadTriples(ctx context.Context, triples []models.Triple) (int, error)
}

// Graph is a backend that can be both queried and populated.
type Graph interface {
	Store
	Loader
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// pageSize clamps a requested limit into [1, MaxPageSize].
func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}

// normalizePredicates returns a sorted, de-duplicated copy of the filter so
// lookup order never depends on how the caller listed predicates.
func normalizePredicates(preds []models.Node) []models.Node {
	if len(preds) == 0 {
		return nil
	}

	out := slices.Clone(preds)
	slices.Sort(out)

	return slices.Compact(out)
}

// remainingPredicates drops predicates a keyset cursor has already passed.
func remainingPredicates(preds []models.Node, after *models.Edge) []models.Node {
	if after == nil {
		return preds
	}

	i, _ := slices.BinarySearch(preds, after.Predicate)

	return preds[i:]
}

// afterKey returns the keyset cursor as a (predicate, vertex) pair, using
// empty strings when the lookup starts from the beginning. Empty strings sort
// before every valid identifier.
func afterKey(after *models.Edge) (models.Node, models.Node) {
	if after == nil {
		return "", ""
	}

	return after.Predicate, after.Vertex
}

func unavailable(backend, op string, err error) error {
	return &models.StoreError{Backend: backend, Op: op, Err: err}
}

func validateBatch(triples []models.Triple) error {
	for _, t := range triples {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func stringsOf(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = string(n)
	}

	return out
}
