package query

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/metrics"
	"github.com/persistorai/triplewalk/internal/models"
)

// Cursor iterates the paths produced by a Walk. Each call to Next pulls just
// enough from the store to produce one more path.
//
//	cur, err := query.Walk(ctx, st, e)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//		p := cur.Path()
//	}
//	if err := cur.Err(); err != nil { ... }
//
// A Cursor is owned by one consumer and is not safe for concurrent use.
// It closes itself when the stream ends or fails; Close may also be called
// at any time to abandon it. A closed cursor never yields again.
type Cursor struct {
	ctx     context.Context
	src     source
	cur     models.Path
	err     error
	closed  bool
	count   int
	started time.Time
	expr    string
	log     *logrus.Logger
}

func newCursor(ctx context.Context, src source, expr string, log *logrus.Logger) *Cursor {
	return &Cursor{
		ctx:     ctx,
		src:     src,
		started: time.Now(),
		expr:    expr,
		log:     log,
	}
}

// Next advances to the next path. It returns false when the stream is
// exhausted, evaluation failed, or the cursor is closed.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}

	p, ok, err := c.src.next(c.ctx)
	if err != nil {
		c.err = err
		c.release()

		return false
	}

	if !ok {
		c.release()

		return false
	}

	c.cur = p
	c.count++

	return true
}

// Path returns the path Next advanced to.
func (c *Cursor) Path() models.Path { return c.cur }

// Err returns the error that ended evaluation, if any. Running out of paths
// and closing the cursor early are not errors.
func (c *Cursor) Err() error { return c.err }

// IsClosed reports whether the cursor has been closed or has run to the end.
func (c *Cursor) IsClosed() bool { return c.closed }

// Count returns the number of paths produced so far.
func (c *Cursor) Count() int { return c.count }

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() {
	c.release()
}

func (c *Cursor) release() {
	if c.closed {
		return
	}

	c.closed = true
	c.src = nil
	c.cur = models.Path{}

	elapsed := time.Since(c.started)
	metrics.WalkPathsTotal.Add(float64(c.count))
	metrics.WalkDuration.WithLabelValues("walk").Observe(elapsed.Seconds())

	fields := logrus.Fields{
		"expr":     c.expr,
		"paths":    c.count,
		"duration": elapsed.String(),
	}
	if c.err != nil {
		fields["error"] = c.err.Error()
	}

	c.log.WithFields(fields).Debug("query.walk: cursor closed")
}

// Collect drains the cursor and closes it. On failure the paths produced
// before the error are returned with it.
func (c *Cursor) Collect() ([]models.Path, error) {
	defer c.Close()

	out := []models.Path{}
	for c.Next() {
		out = append(out, c.Path())
	}

	return out, c.Err()
}

// CollectN returns at most n paths and closes the cursor.
func (c *Cursor) CollectN(n int) ([]models.Path, error) {
	defer c.Close()

	out := []models.Path{}
	for len(out) < n && c.Next() {
		out = append(out, c.Path())
	}

	return out, c.Err()
}

// Each calls fn for every remaining path and closes the cursor. It stops at
// the first error returned by fn.
func (c *Cursor) Each(fn func(models.Path) error) error {
	defer c.Close()

	for c.Next() {
		if err := fn(c.Path()); err != nil {
			return err
		}
	}

	return c.Err()
}
