package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// Resolver maps vertices to human-readable labels and back. Labels are the
// objects of a label predicate, rdfs:label unless configured otherwise.
type Resolver struct {
	st   store.Store
	pred models.Node
	opts []Option
}

// NewResolver creates a Resolver reading labels through pred. An empty pred
// selects rdfs:label. opts apply to every lookup walk.
func NewResolver(st store.Store, pred models.Node, opts ...Option) *Resolver {
	if pred == "" {
		pred = models.RDFSLabel
	}

	return &Resolver{st: st, pred: pred, opts: opts}
}

// Predicate returns the label predicate in use.
func (r *Resolver) Predicate() models.Node { return r.pred }

// Labels returns every label of n in store order. A vertex without labels
// yields an empty slice.
func (r *Resolver) Labels(ctx context.Context, n models.Node) ([]string, error) {
	cur, err := Walk(ctx, r.st, Vertex(n).Out(r.pred), r.opts...)
	if err != nil {
		return nil, err
	}

	labels := []string{}

	err = cur.Each(func(p models.Path) error {
		labels = append(labels, string(p.End()))

		return nil
	})
	if err != nil {
		return labels, fmt.Errorf("resolving labels of %q: %w", n, err)
	}

	return labels, nil
}

// LabelOf returns the first label of n in store order.
func (r *Resolver) LabelOf(ctx context.Context, n models.Node) (string, bool, error) {
	opts := append(slices.Clip(r.opts), WithBatchSize(1))

	cur, err := Walk(ctx, r.st, Vertex(n).Out(r.pred), opts...)
	if err != nil {
		return "", false, err
	}

	paths, err := cur.CollectN(1)
	if err != nil {
		return "", false, fmt.Errorf("resolving label of %q: %w", n, err)
	}

	if len(paths) == 0 {
		return "", false, nil
	}

	return string(paths[0].End()), true, nil
}

// Find returns the vertices carrying label.
func (r *Resolver) Find(ctx context.Context, label string) ([]models.Node, error) {
	if label == "" {
		return nil, models.ErrMissingLabel
	}

	cur, err := Walk(ctx, r.st, Vertex(models.Node(label)).In(r.pred), r.opts...)
	if err != nil {
		return nil, err
	}

	nodes := []models.Node{}

	err = cur.Each(func(p models.Path) error {
		nodes = append(nodes, p.End())

		return nil
	})
	if err != nil {
		return nodes, fmt.Errorf("finding %q: %w", label, err)
	}

	return nodes, nil
}

// ValueAt returns the label of the node at position i of p. Negative
// positions count from the end.
func (r *Resolver) ValueAt(ctx context.Context, p models.Path, i int) (string, bool, error) {
	n, ok := p.At(i)
	if !ok {
		return "", false, nil
	}

	return r.LabelOf(ctx, n)
}

// RelatedLabels finds the vertices labeled term, follows pred from each and
// returns the labels of everything reached. Labels are de-duplicated and
// kept in the order they were first seen.
func RelatedLabels(ctx context.Context, st store.Store, r *Resolver, term string, pred models.Node, opts ...Option) ([]string, error) {
	if term == "" {
		return nil, models.ErrMissingLabel
	}

	e := Vertex(models.Node(term)).In(r.pred).Out(pred).Out(r.pred)

	cur, err := Walk(ctx, st, e, opts...)
	if err != nil {
		return nil, err
	}

	seen := make(map[models.Node]struct{})
	labels := []string{}

	err = cur.Each(func(p models.Path) error {
		label := p.End()
		if _, dup := seen[label]; dup {
			return nil
		}

		seen[label] = struct{}{}
		labels = append(labels, string(label))

		return nil
	})
	if err != nil {
		return labels, fmt.Errorf("relating %q via %s: %w", term, pred, err)
	}

	return labels, nil
}
