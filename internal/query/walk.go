package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/store"
)

// MaxFanout caps how many parent paths a traversal stage expands at once.
const MaxFanout = 64

type walkConfig struct {
	start  []models.Node
	batch  int
	fanout int
	log    *logrus.Logger
}

// Option configures a single Walk.
type Option func(*walkConfig)

// WithStart replaces the expression's start set with nodes.
func WithStart(nodes ...models.Node) Option {
	return func(c *walkConfig) { c.start = slices.Clone(nodes) }
}

// WithBatchSize sets how many edges are read per store round-trip. It only
// affects performance; results are identical for every batch size.
func WithBatchSize(n int) Option {
	return func(c *walkConfig) {
		if n > 0 {
			c.batch = min(n, store.MaxPageSize)
		}
	}
}

// WithFanout lets each traversal stage read the first page of up to n
// parent paths concurrently. Output order does not change.
func WithFanout(n int) Option {
	return func(c *walkConfig) { c.fanout = max(1, min(n, MaxFanout)) }
}

// WithLogger sets the logger used for cursor lifecycle tracing.
func WithLogger(log *logrus.Logger) Option {
	return func(c *walkConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Walk evaluates e against st and returns a cursor over the matching paths.
// Build errors carried by e are returned before the store is touched, and
// the store is not read until the cursor is advanced.
//
// The start set is the WithStart nodes if given, else the expression's
// anchors, else every vertex in the store.
func Walk(ctx context.Context, st store.Store, e *Expr, opts ...Option) (*Cursor, error) {
	if err := e.Err(); err != nil {
		return nil, err
	}

	if st == nil {
		return nil, fmt.Errorf("walk: %w: no store", models.ErrStoreUnavailable)
	}

	cfg := walkConfig{
		batch:  store.DefaultPageSize,
		fanout: 1,
		log:    logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	for _, n := range cfg.start {
		if err := models.ValidateNode(n); err != nil {
			return nil, invalid("start vertex: %v", err)
		}
	}

	return newCursor(ctx, compile(e, st, &cfg), e.String(), cfg.log), nil
}

// Collect walks e and returns every path.
func Collect(ctx context.Context, st store.Store, e *Expr, opts ...Option) ([]models.Path, error) {
	cur, err := Walk(ctx, st, e, opts...)
	if err != nil {
		return nil, err
	}

	return cur.Collect()
}
