package query

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/metrics"
	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// Unbounded is the MaxDepth that lets a closure recurse until it runs out of
// unseen vertices.
const Unbounded = -1

// ClosureOptions configures a recursive closure.
type ClosureOptions struct {
	// Predicate is the relation followed at every level.
	Predicate models.Node

	// Reverse follows the relation from object to subject.
	Reverse bool

	// MaxDepth bounds recursion: a vertex found at depth d is expanded only
	// when d < MaxDepth. Depth 0 holds the seeds' direct neighbors, so
	// MaxDepth 0 returns just those. A negative value is unbounded.
	MaxDepth int

	// Walk options applied to every expansion.
	Walk []Option

	Log *logrus.Logger
}

type closure struct {
	st      store.Store
	r       *Resolver
	opts    ClosureOptions
	visited map[models.Node]struct{}
	records []models.ClosureRecord
}

// Closure collects every vertex reachable from seeds through
// opts.Predicate, each with its labels and the depth it was first reached
// at. Records are in discovery order and every vertex appears once. If the
// store fails the records gathered so far are returned with the error.
func Closure(
	ctx context.Context,
	st store.Store,
	r *Resolver,
	opts ClosureOptions,
	seeds ...models.Node,
) ([]models.ClosureRecord, error) {
	if opts.Predicate == "" {
		return nil, models.ErrMissingPredicate
	}

	if err := models.ValidateNode(opts.Predicate); err != nil {
		return nil, invalid("closure predicate: %v", err)
	}

	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	if r == nil {
		r = NewResolver(st, "")
	}

	c := &closure{
		st:      st,
		r:       r,
		opts:    opts,
		visited: make(map[models.Node]struct{}),
		records: []models.ClosureRecord{},
	}

	start := time.Now()

	var err error

	for _, seed := range seeds {
		if err = c.expand(ctx, seed, 0); err != nil {
			break
		}
	}

	elapsed := time.Since(start)
	metrics.ClosureRecordsTotal.Add(float64(len(c.records)))
	metrics.WalkDuration.WithLabelValues("closure").Observe(elapsed.Seconds())

	opts.Log.WithFields(logrus.Fields{
		"predicate": opts.Predicate,
		"reverse":   opts.Reverse,
		"max_depth": opts.MaxDepth,
		"seeds":     len(seeds),
		"records":   len(c.records),
		"duration":  elapsed.String(),
	}).Debug("query.closure")

	if err != nil {
		return c.records, fmt.Errorf("closure over %s: %w", opts.Predicate, err)
	}

	return c.records, nil
}

// ClosureByLabel runs Closure seeded with the vertices labeled term. A term
// that labels nothing yields no records. A nil r resolves rdfs:label.
func ClosureByLabel(
	ctx context.Context,
	st store.Store,
	r *Resolver,
	opts ClosureOptions,
	term string,
) ([]models.ClosureRecord, error) {
	if r == nil {
		r = NewResolver(st, "")
	}

	seeds, err := r.Find(ctx, term)
	if err != nil {
		return []models.ClosureRecord{}, err
	}

	return Closure(ctx, st, r, opts, seeds...)
}

func (c *closure) expand(ctx context.Context, n models.Node, depth int) error {
	e := Vertex(n).Out(c.opts.Predicate)
	if c.opts.Reverse {
		e = Vertex(n).In(c.opts.Predicate)
	}

	paths, err := Collect(ctx, c.st, e, c.opts.Walk...)
	if err != nil {
		return err
	}

	for _, p := range paths {
		next := p.End()
		if _, seen := c.visited[next]; seen {
			continue
		}

		c.visited[next] = struct{}{}

		labels, err := c.r.Labels(ctx, next)
		if err != nil {
			return err
		}

		c.records = append(c.records, models.ClosureRecord{Node: next, Labels: labels, Depth: depth})

		if c.opts.MaxDepth < 0 || depth < c.opts.MaxDepth {
			if err := c.expand(ctx, next, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}
