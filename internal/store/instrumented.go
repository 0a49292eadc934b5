package store

import (
	"context"
	"time"

	"github.com/persistorai/triplewalk/internal/metrics"
	"github.com/persistorai/triplewalk/internal/models"
)

// Instrumented records latency and outcome of every lookup in Prometheus.
type Instrumented struct {
	Graph
	backend string
}

// Instrument wraps g so its round-trips show up in store metrics.
func Instrument(g Graph, backend string) *Instrumented {
	return &Instrumented{Graph: g, backend: backend}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	metrics.StoreLookupsTotal.WithLabelValues(s.backend, op, outcome).Inc()
	metrics.StoreLookupDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

// Edges implements Store.
func (s *Instrumented) Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error) {
	start := time.Now()
	edges, err := s.Graph.Edges(ctx, q)
	s.observe("edges_"+q.Direction.String(), start, err)

	return edges, err
}

// Contains implements Store.
func (s *Instrumented) Contains(ctx context.Context, t models.Triple) (bool, error) {
	start := time.Now()
	ok, err := s.Graph.Contains(ctx, t)
	s.observe("contains", start, err)

	return ok, err
}

// Vertices implements Store.
func (s *Instrumented) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	start := time.Now()
	nodes, err := s.Graph.Vertices(ctx, after, limit)
	s.observe("vertices", start, err)

	return nodes, err
}

// LoadTriples implements Loader.
func (s *Instrumented) LoadTriples(ctx context.Context, triples []models.Triple) (int, error) {
	start := time.Now()
	n, err := s.Graph.LoadTriples(ctx, triples)
	s.observe("load", start, err)

	if n > 0 {
		metrics.TriplesLoadedTotal.Add(float64(n))
	}

	return n, err
}
