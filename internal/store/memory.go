package store

import (
	"context"
	"errors"
	"sync"

	"github.com/tidwall/btree"

	"github.com/persistorai/triplewalk/internal/models"
)

const backendMemory = "memory"

var errClosed = errors.New("store is closed")

// MemoryStore keeps the graph in two ordered indexes, subject-predicate-object
// and object-predicate-subject, plus a vertex set.
type MemoryStore struct {
	mu       sync.RWMutex
	spo      *btree.BTreeG[models.Triple]
	ops      *btree.BTreeG[models.Triple]
	vertices *btree.BTreeG[models.Node]
	closed   bool
}

func lessSPO(a, b models.Triple) bool {
	if a.Subject != b.Subject {
		return a.Subject < b.Subject
	}

	if a.Predicate != b.Predicate {
		return a.Predicate < b.Predicate
	}

	return a.Object < b.Object
}

func lessOPS(a, b models.Triple) bool {
	if a.Object != b.Object {
		return a.Object < b.Object
	}

	if a.Predicate != b.Predicate {
		return a.Predicate < b.Predicate
	}

	return a.Subject < b.Subject
}

// NewMemoryStore creates an empty in-memory graph.
func NewMemoryStore() *MemoryStore {
	// The store's own RWMutex guards all three trees.
	opts := btree.Options{NoLocks: true}

	return &MemoryStore{
		spo:      btree.NewBTreeGOptions(lessSPO, opts),
		ops:      btree.NewBTreeGOptions(lessOPS, opts),
		vertices: btree.NewBTreeGOptions(func(a, b models.Node) bool { return a < b }, opts),
	}
}

// NewMemoryStoreFrom creates an in-memory graph holding the given triples.
func NewMemoryStoreFrom(triples ...models.Triple) (*MemoryStore, error) {
	s := NewMemoryStore()
	if _, err := s.LoadTriples(context.Background(), triples); err != nil {
		return nil, err
	}

	return s, nil
}

// Edges implements Store.
func (s *MemoryStore) Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(backendMemory, "edges", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, unavailable(backendMemory, "edges", errClosed)
	}

	tree, pivot, split := s.spo, s.spoPivot, splitSPO
	if q.Direction == models.In {
		tree, pivot, split = s.ops, s.opsPivot, splitOPS
	}

	limit := pageSize(q.Limit)
	preds := normalizePredicates(q.Predicates)
	out := make([]models.Edge, 0, min(limit, 64))

	scan := func(pred models.Node, from *models.Edge) {
		start := pivot(q.Vertex, pred, from)
		tree.Ascend(start, func(t models.Triple) bool {
			v, e := split(t)
			if v != q.Vertex || (pred != "" && e.Predicate != pred) {
				return false
			}

			if from != nil && !from.Less(e) {
				return true
			}

			out = append(out, e)

			return len(out) < limit
		})
	}

	if len(preds) == 0 {
		scan("", q.After)

		return out, nil
	}

	for _, p := range remainingPredicates(preds, q.After) {
		from := q.After
		if from != nil && from.Predicate != p {
			from = nil
		}

		scan(p, from)

		if len(out) >= limit {
			break
		}
	}

	return out, nil
}

func (s *MemoryStore) spoPivot(v, pred models.Node, from *models.Edge) models.Triple {
	if from != nil {
		return models.Triple{Subject: v, Predicate: from.Predicate, Object: from.Vertex}
	}

	return models.Triple{Subject: v, Predicate: pred}
}

func (s *MemoryStore) opsPivot(v, pred models.Node, from *models.Edge) models.Triple {
	if from != nil {
		return models.Triple{Object: v, Predicate: from.Predicate, Subject: from.Vertex}
	}

	return models.Triple{Object: v, Predicate: pred}
}

func splitSPO(t models.Triple) (models.Node, models.Edge) {
	return t.Subject, models.Edge{Predicate: t.Predicate, Vertex: t.Object}
}

func splitOPS(t models.Triple) (models.Node, models.Edge) {
	return t.Object, models.Edge{Predicate: t.Predicate, Vertex: t.Subject}
}

// Contains implements Store.
func (s *MemoryStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(backendMemory, "contains", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, unavailable(backendMemory, "contains", errClosed)
	}

	_, ok := s.spo.Get(t)

	return ok, nil
}

// Vertices implements Store.
func (s *MemoryStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(backendMemory, "vertices", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, unavailable(backendMemory, "vertices", errClosed)
	}

	limit = pageSize(limit)
	out := make([]models.Node, 0, min(limit, 64))

	s.vertices.Ascend(after, func(n models.Node) bool {
		if n == after {
			return true
		}

		out = append(out, n)

		return len(out) < limit
	})

	return out, nil
}

// LoadTriples implements Loader.
func (s *MemoryStore) LoadTriples(ctx context.Context, triples []models.Triple) (int, error) {
	if err := validateBatch(triples); err != nil {
		return 0, err
	}

	if err := ctx.Err(); err != nil {
		return 0, unavailable(backendMemory, "load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, unavailable(backendMemory, "load", errClosed)
	}

	added := 0

	for _, t := range triples {
		if _, replaced := s.spo.Set(t); replaced {
			continue
		}

		s.ops.Set(t)
		s.vertices.Set(t.Subject)
		s.vertices.Set(t.Object)
		added++
	}

	return added, nil
}

// Len returns the number of stored triples.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.spo.Len()
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return unavailable(backendMemory, "ping", errClosed)
	}

	return nil
}

// Close releases the indexes. Further calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.spo.Clear()
	s.ops.Clear()
	s.vertices.Clear()

	return nil
}
