package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// source is one stage of a compiled pipeline. next pulls a single path from
// the stage; ok is false once the stage is exhausted.
type source interface {
	next(ctx context.Context) (path models.Path, ok bool, err error)
}

// startSource yields zero-step paths for the anchors, or for every vertex in
// the store when scan is set.
type startSource struct {
	st      store.Store
	anchors []models.Node
	scan    bool
	batch   int

	pos   int
	page  []models.Node
	after models.Node
	done  bool
}

func (s *startSource) next(ctx context.Context) (models.Path, bool, error) {
	if !s.scan {
		if s.pos >= len(s.anchors) {
			return models.Path{}, false, nil
		}

		n := s.anchors[s.pos]
		s.pos++

		return models.NewPath(n), true, nil
	}

	if s.pos >= len(s.page) {
		if s.done {
			return models.Path{}, false, nil
		}

		page, err := s.st.Vertices(ctx, s.after, s.batch)
		if err != nil {
			return models.Path{}, false, fmt.Errorf("scanning vertices after %q: %w", s.after, err)
		}

		s.page, s.pos = page, 0
		s.done = len(page) < s.batch

		if len(page) == 0 {
			return models.Path{}, false, nil
		}

		s.after = page[len(page)-1]
	}

	n := s.page[s.pos]
	s.pos++

	return models.NewPath(n), true, nil
}

// expansion is the adjacency list of one parent path, read a page at a time.
type expansion struct {
	parent    models.Path
	edges     []models.Edge
	pos       int
	exhausted bool
}

// stepSource extends every parent path by one edge in one direction.
type stepSource struct {
	prev   source
	st     store.Store
	step   int
	dir    models.Direction
	preds  []models.Node
	batch  int
	fanout int

	queue    []*expansion
	prevDone bool
}

func (s *stepSource) next(ctx context.Context) (models.Path, bool, error) {
	for {
		if len(s.queue) == 0 {
			if s.prevDone {
				return models.Path{}, false, nil
			}

			if err := s.fill(ctx); err != nil {
				return models.Path{}, false, err
			}

			continue
		}

		x := s.queue[0]
		if x.pos < len(x.edges) {
			e := x.edges[x.pos]
			x.pos++

			return x.parent.Extend(e), true, nil
		}

		if x.exhausted {
			s.queue[0] = nil
			s.queue = s.queue[1:]

			continue
		}

		if err := s.fetch(ctx, x); err != nil {
			return models.Path{}, false, err
		}
	}
}

// fill pulls up to fanout parents from the previous stage and reads the first
// page of each. With more than one parent the pages are read concurrently;
// the queue keeps the parents in the order they were pulled.
func (s *stepSource) fill(ctx context.Context) error {
	pending := make([]*expansion, 0, s.fanout)

	for len(pending) < s.fanout {
		p, ok, err := s.prev.next(ctx)
		if err != nil {
			return err
		}

		if !ok {
			s.prevDone = true

			break
		}

		pending = append(pending, &expansion{parent: p})
	}

	switch len(pending) {
	case 0:
		return nil
	case 1:
		if err := s.fetch(ctx, pending[0]); err != nil {
			return err
		}
	default:
		g, gctx := errgroup.WithContext(ctx)

		for _, x := range pending {
			g.Go(func() error { return s.fetch(gctx, x) })
		}

		if err := g.Wait(); err != nil {
			return err
		}
	}

	s.queue = append(s.queue, pending...)

	return nil
}

// fetch reads the next page of x's adjacency list, continuing after the last
// edge of the current page.
func (s *stepSource) fetch(ctx context.Context, x *expansion) error {
	q := store.EdgeQuery{
		Vertex:     x.parent.End(),
		Direction:  s.dir,
		Predicates: s.preds,
		Limit:      s.batch,
	}

	if n := len(x.edges); n > 0 {
		last := x.edges[n-1]
		q.After = &last
	}

	edges, err := s.st.Edges(ctx, q)
	if err != nil {
		return fmt.Errorf("expanding %s step %d from %q: %w", s.dir, s.step, q.Vertex, err)
	}

	x.edges, x.pos = edges, 0
	x.exhausted = len(edges) < s.batch

	return nil
}

// hasSource keeps paths whose end node has the edge pred -> object.
type hasSource struct {
	prev   source
	st     store.Store
	pred   models.Node
	object models.Node
}

func (s *hasSource) next(ctx context.Context) (models.Path, bool, error) {
	for {
		p, ok, err := s.prev.next(ctx)
		if err != nil || !ok {
			return p, ok, err
		}

		t := models.Triple{Subject: p.End(), Predicate: s.pred, Object: s.object}

		found, err := s.st.Contains(ctx, t)
		if err != nil {
			return models.Path{}, false, fmt.Errorf("checking %s: %w", t, err)
		}

		if found {
			return p, true, nil
		}
	}
}

// isSource keeps paths whose end node is in the set.
type isSource struct {
	prev source
	set  map[models.Node]struct{}
}

func (s *isSource) next(ctx context.Context) (models.Path, bool, error) {
	for {
		p, ok, err := s.prev.next(ctx)
		if err != nil || !ok {
			return p, ok, err
		}

		if _, hit := s.set[p.End()]; hit {
			return p, true, nil
		}
	}
}

type filterSource struct {
	prev source
	keep func(models.Path) bool
}

func (s *filterSource) next(ctx context.Context) (models.Path, bool, error) {
	for {
		p, ok, err := s.prev.next(ctx)
		if err != nil || !ok {
			return p, ok, err
		}

		if s.keep(p) {
			return p, true, nil
		}
	}
}

type tapSource struct {
	prev source
	fn   func(models.Path)
}

func (s *tapSource) next(ctx context.Context) (models.Path, bool, error) {
	p, ok, err := s.prev.next(ctx)
	if ok {
		s.fn(p)
	}

	return p, ok, err
}

// limitSource stops pulling once n paths have passed.
type limitSource struct {
	prev    source
	n       int
	emitted int
}

func (s *limitSource) next(ctx context.Context) (models.Path, bool, error) {
	if s.emitted >= s.n {
		return models.Path{}, false, nil
	}

	p, ok, err := s.prev.next(ctx)
	if ok {
		s.emitted++
	}

	return p, ok, err
}

// compile turns an expression into a pipeline of sources, root first.
func compile(e *Expr, st store.Store, cfg *walkConfig) source {
	chain := e.chain()

	anchors := chain[0].nodes
	if len(cfg.start) > 0 {
		anchors = cfg.start
	}

	var (
		src  source = &startSource{st: st, anchors: anchors, scan: len(anchors) == 0, batch: cfg.batch}
		step int
	)

	for _, s := range chain[1:] {
		switch s.op {
		case opOut, opIn:
			step++

			dir := models.Out
			if s.op == opIn {
				dir = models.In
			}

			src = &stepSource{
				prev:   src,
				st:     st,
				step:   step,
				dir:    dir,
				preds:  s.preds,
				batch:  cfg.batch,
				fanout: cfg.fanout,
			}
		case opHas:
			src = &hasSource{prev: src, st: st, pred: s.preds[0], object: s.nodes[0]}
		case opIs:
			set := make(map[models.Node]struct{}, len(s.nodes))
			for _, n := range s.nodes {
				set[n] = struct{}{}
			}

			src = &isSource{prev: src, set: set}
		case opFilter:
			src = &filterSource{prev: src, keep: s.filter}
		case opTap:
			src = &tapSource{prev: src, fn: s.tap}
		case opLimit:
			src = &limitSource{prev: src, n: s.n}
		}
	}

	return src
}
