package service

import (
	"context"
	"sync"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// mockStore records calls and forwards to a backing store unless a func
// field overrides the call.
type mockStore struct {
	mu    sync.Mutex
	calls []string

	backing  store.Store
	edges    func(ctx context.Context, q store.EdgeQuery) ([]models.Edge, error)
	contains func(ctx context.Context, t models.Triple) (bool, error)
	ping     func(ctx context.Context) error
}

func (m *mockStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockStore) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockStore) Edges(ctx context.Context, q store.EdgeQuery) ([]models.Edge, error) {
	m.record("Edges")
	if m.edges != nil {
		return m.edges(ctx, q)
	}
	return m.backing.Edges(ctx, q)
}

func (m *mockStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	m.record("Contains")
	if m.contains != nil {
		return m.contains(ctx, t)
	}
	return m.backing.Contains(ctx, t)
}

func (m *mockStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	m.record("Vertices")
	return m.backing.Vertices(ctx, after, limit)
}

func (m *mockStore) Ping(ctx context.Context) error {
	m.record("Ping")
	if m.ping != nil {
		return m.ping(ctx)
	}
	return m.backing.Ping(ctx)
}

func (m *mockStore) Close() error {
	m.record("Close")
	return nil
}

// mockLoader records every batch it receives.
type mockLoader struct {
	mu      sync.Mutex
	batches [][]models.Triple
	err     error
}

func (m *mockLoader) LoadTriples(_ context.Context, triples []models.Triple) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	m.batches = append(m.batches, triples)

	return len(triples), nil
}
