package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/dbpool"
	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func tr(s, p, o models.Node) models.Triple {
	return models.Triple{Subject: s, Predicate: p, Object: o}
}

// graphTriples gives "a" several predicates, a prefix-sharing predicate pair
// and enough "ex:p" edges to span multiple pages.
var graphTriples = func() []models.Triple {
	out := []models.Triple{
		tr("a", "ex:q", "b"),
		tr("a", "ex:q", "c"),
		tr("a", "ex:pq", "d"),
		tr("b", "ex:q", "c"),
		tr("c", "ex:r", "a"),
	}

	for i := range 7 {
		out = append(out, tr("a", "ex:p", models.Node(fmt.Sprintf("n%d", i))))
	}

	return out
}()

type backend struct {
	name string
	open func(t *testing.T) store.Graph
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) store.Graph {
			t.Helper()

			return store.NewMemoryStore()
		}},
		{"badger", func(t *testing.T) store.Graph {
			t.Helper()

			s, err := store.OpenBadger(store.BadgerConfig{InMemory: true}, testLogger())
			if err != nil {
				t.Fatalf("opening badger: %v", err)
			}

			return s
		}},
		{"sqlite", func(t *testing.T) store.Graph {
			t.Helper()

			s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "graph.db"), testLogger())
			if err != nil {
				t.Fatalf("opening sqlite: %v", err)
			}

			return s
		}},
		{"postgres", openTestPostgres},
	}
}

// openTestPostgres connects to TEST_DATABASE_URL and empties the graph
// tables. The test is skipped when no database is configured.
func openTestPostgres(t *testing.T) store.Graph {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	s, err := store.Open(ctx, store.Options{Backend: store.BackendPostgres, DatabaseURL: dbURL, MaxConns: 4}, testLogger())
	if err != nil {
		t.Fatalf("opening postgres: %v", err)
	}

	pool, err := dbpool.NewPool(ctx, dbpool.Config{URL: dbURL, MaxConns: 1})
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE kg_triples, kg_vertices"); err != nil {
		t.Fatalf("truncating: %v", err)
	}

	return s
}

func forEachBackend(t *testing.T, fn func(t *testing.T, g store.Graph)) {
	t.Helper()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			g := b.open(t)
			t.Cleanup(func() { _ = g.Close() })

			fn(t, g)
		})
	}
}

func load(t *testing.T, g store.Graph, triples []models.Triple) {
	t.Helper()

	if _, err := g.LoadTriples(context.Background(), triples); err != nil {
		t.Fatalf("LoadTriples: %v", err)
	}
}

// allEdges pages through an adjacency list with the given page size.
func allEdges(t *testing.T, g store.Store, q store.EdgeQuery) []models.Edge {
	t.Helper()

	var out []models.Edge

	for {
		page, err := g.Edges(context.Background(), q)
		if err != nil {
			t.Fatalf("Edges: %v", err)
		}

		out = append(out, page...)

		if len(page) < q.Limit || len(page) == 0 {
			return out
		}

		last := page[len(page)-1]
		q.After = &last
	}
}

func TestStore_Edges(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		load(t, g, graphTriples)

		ctx := context.Background()

		tests := []struct {
			name string
			q    store.EdgeQuery
			want []models.Edge
		}{
			{
				name: "out filtered",
				q:    store.EdgeQuery{Vertex: "a", Direction: models.Out, Predicates: []models.Node{"ex:q"}},
				want: []models.Edge{{Predicate: "ex:q", Vertex: "b"}, {Predicate: "ex:q", Vertex: "c"}},
			},
			{
				name: "out with predicates in any order",
				q:    store.EdgeQuery{Vertex: "a", Predicates: []models.Node{"ex:q", "ex:pq", "ex:q"}},
				want: []models.Edge{
					{Predicate: "ex:pq", Vertex: "d"},
					{Predicate: "ex:q", Vertex: "b"},
					{Predicate: "ex:q", Vertex: "c"},
				},
			},
			{
				name: "in",
				q:    store.EdgeQuery{Vertex: "c", Direction: models.In},
				want: []models.Edge{{Predicate: "ex:q", Vertex: "a"}, {Predicate: "ex:q", Vertex: "b"}},
			},
			{
				name: "unknown vertex",
				q:    store.EdgeQuery{Vertex: "zz", Direction: models.Out},
				want: nil,
			},
			{
				name: "unknown predicate",
				q:    store.EdgeQuery{Vertex: "a", Predicates: []models.Node{"ex:none"}},
				want: nil,
			},
			{
				name: "limit",
				q:    store.EdgeQuery{Vertex: "a", Limit: 2},
				want: []models.Edge{{Predicate: "ex:p", Vertex: "n0"}, {Predicate: "ex:p", Vertex: "n1"}},
			},
		}

		for _, tt := range tests {
			got, err := g.Edges(ctx, tt.q)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}

			if len(got) != len(tt.want) || (len(got) > 0 && !slices.Equal(got, tt.want)) {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		}
	})
}

func TestStore_EdgesPaging(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		load(t, g, graphTriples)

		want := allEdges(t, g, store.EdgeQuery{Vertex: "a", Limit: store.MaxPageSize})
		if len(want) != 10 {
			t.Fatalf("got %d edges of a, want 10", len(want))
		}

		if !slices.IsSortedFunc(want, func(x, y models.Edge) int {
			switch {
			case x.Less(y):
				return -1
			case y.Less(x):
				return 1
			default:
				return 0
			}
		}) {
			t.Errorf("edges not in (predicate, vertex) order: %v", want)
		}

		for _, size := range []int{1, 2, 3, 4} {
			if got := allEdges(t, g, store.EdgeQuery{Vertex: "a", Limit: size}); !slices.Equal(got, want) {
				t.Errorf("page size %d: got %v", size, got)
			}

			filtered := allEdges(t, g, store.EdgeQuery{
				Vertex:     "a",
				Predicates: []models.Node{"ex:q", "ex:p"},
				Limit:      size,
			})
			if len(filtered) != 9 || filtered[0].Predicate != "ex:p" || filtered[8].Vertex != "c" {
				t.Errorf("filtered page size %d: got %v", size, filtered)
			}
		}
	})
}

func TestStore_Contains(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		load(t, g, graphTriples)

		ctx := context.Background()

		tests := []struct {
			t    models.Triple
			want bool
		}{
			{tr("a", "ex:q", "b"), true},
			{tr("b", "ex:q", "a"), false},
			{tr("a", "ex:p", "n6"), true},
			{tr("a", "ex:p", "n7"), false},
		}

		for _, tt := range tests {
			got, err := g.Contains(ctx, tt.t)
			if err != nil {
				t.Fatalf("Contains(%s): %v", tt.t, err)
			}

			if got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.t, got, tt.want)
			}
		}
	})
}

func TestStore_Vertices(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		load(t, g, graphTriples)

		ctx := context.Background()

		var (
			all   []models.Node
			after models.Node
		)

		for {
			page, err := g.Vertices(ctx, after, 3)
			if err != nil {
				t.Fatalf("Vertices: %v", err)
			}

			all = append(all, page...)

			if len(page) < 3 {
				break
			}

			after = page[len(page)-1]
		}

		want := []models.Node{"a", "b", "c", "d", "n0", "n1", "n2", "n3", "n4", "n5", "n6"}
		if !slices.Equal(all, want) {
			t.Errorf("Vertices = %v, want %v", all, want)
		}
	})
}

func TestStore_LoadTriples(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		ctx := context.Background()

		n, err := g.LoadTriples(ctx, []models.Triple{tr("a", "p", "b"), tr("a", "p", "b"), tr("b", "p", "c")})
		if err != nil {
			t.Fatalf("LoadTriples: %v", err)
		}

		if n != 2 {
			t.Errorf("first load inserted %d, want 2", n)
		}

		n, err = g.LoadTriples(ctx, []models.Triple{tr("a", "p", "b"), tr("c", "p", "a")})
		if err != nil {
			t.Fatalf("LoadTriples: %v", err)
		}

		if n != 1 {
			t.Errorf("second load inserted %d, want 1", n)
		}

		_, err = g.LoadTriples(ctx, []models.Triple{tr("a", "", "b")})
		if !errors.Is(err, models.ErrInvalidTriple) {
			t.Errorf("invalid triple error = %v", err)
		}
	})
}

func TestStore_Closed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g store.Graph) {
		load(t, g, graphTriples)

		if err := g.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		ctx := context.Background()

		if _, err := g.Edges(ctx, store.EdgeQuery{Vertex: "a"}); !errors.Is(err, models.ErrStoreUnavailable) {
			t.Errorf("Edges after Close = %v", err)
		}

		if _, err := g.Contains(ctx, tr("a", "ex:q", "b")); !errors.Is(err, models.ErrStoreUnavailable) {
			t.Errorf("Contains after Close = %v", err)
		}

		if _, err := g.Vertices(ctx, "", 10); !errors.Is(err, models.ErrStoreUnavailable) {
			t.Errorf("Vertices after Close = %v", err)
		}

		if err := g.Ping(ctx); !errors.Is(err, models.ErrStoreUnavailable) {
			t.Errorf("Ping after Close = %v", err)
		}
	})
}
