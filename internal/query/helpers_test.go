package query_test

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/query"
	"github.com/persistorai/triplewalk/internal/store"
)

const (
	label    = models.RDFSLabel
	holonym  = models.PartHolonym
	hypernym = models.Hypernym
)

func tr(s, p, o models.Node) models.Triple {
	return models.Triple{Subject: s, Predicate: p, Object: o}
}

// fixtureTriples is a small geography graph plus a hypernym cycle.
var fixtureTriples = []models.Triple{
	tr("ex:africa", label, "Africa"),
	tr("ex:africa", holonym, "ex:world"),
	tr("ex:egypt", label, "Egypt"),
	tr("ex:egypt", holonym, "ex:africa"),
	tr("ex:cairo", label, "Cairo"),
	tr("ex:cairo", holonym, "ex:egypt"),
	tr("ex:world", label, "world"),
	tr("ex:world", label, "earth"),
	tr("ex:nile", label, "Nile"),
	tr("ex:nile", holonym, "ex:africa"),
	tr("ex:nile", holonym, "ex:egypt"),
	tr("ex:nile-river", label, "Nile"),
	tr("ex:nile-river", holonym, "ex:africa"),
	tr("ex:virus", label, "virus"),
	tr("ex:virus", hypernym, "ex:agent"),
	tr("ex:agent", label, "agent"),
	tr("ex:agent", hypernym, "ex:cause"),
	tr("ex:cause", label, "cause"),
	tr("ex:cause", hypernym, "ex:virus"),
}

func newFixture(t *testing.T) *store.MemoryStore {
	t.Helper()

	st, err := store.NewMemoryStoreFrom(fixtureTriples...)
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}

	return st
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func collect(t *testing.T, st store.Store, e *query.Expr, opts ...query.Option) []models.Path {
	t.Helper()

	opts = append([]query.Option{query.WithLogger(testLogger())}, opts...)

	paths, err := query.Collect(context.Background(), st, e, opts...)
	if err != nil {
		t.Fatalf("Collect(%s): %v", e, err)
	}

	return paths
}

func ends(paths []models.Path) []models.Node {
	out := make([]models.Node, len(paths))
	for i, p := range paths {
		out[i] = p.End()
	}

	return out
}

func samePaths(a, b []models.Path) bool {
	return slices.EqualFunc(a, b, func(x, y models.Path) bool {
		return slices.Equal(x.Nodes, y.Nodes) && slices.Equal(x.Predicates, y.Predicates)
	})
}

// countingStore records how many round-trips reach the wrapped store.
type countingStore struct {
	store.Store
	edges    atomic.Int64
	contains atomic.Int64
	vertices atomic.Int64
}

func (s *countingStore) Edges(ctx context.Context, q store.EdgeQuery) ([]models.Edge, error) {
	s.edges.Add(1)

	return s.Store.Edges(ctx, q)
}

func (s *countingStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	s.contains.Add(1)

	return s.Store.Contains(ctx, t)
}

func (s *countingStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	s.vertices.Add(1)

	return s.Store.Vertices(ctx, after, limit)
}

func (s *countingStore) total() int64 {
	return s.edges.Load() + s.contains.Load() + s.vertices.Load()
}

var errBackendDown = errors.New("connection refused")

// failingStore serves the first okCalls Edges lookups, then fails every
// lookup as an unavailable backend would.
type failingStore struct {
	store.Store
	okCalls int64
	calls   atomic.Int64
}

func (s *failingStore) Edges(ctx context.Context, q store.EdgeQuery) ([]models.Edge, error) {
	if s.calls.Add(1) > s.okCalls {
		return nil, &models.StoreError{Backend: "test", Op: "edges", Err: errBackendDown}
	}

	return s.Store.Edges(ctx, q)
}
