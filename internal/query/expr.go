// Package query builds and evaluates path expressions over a graph store.
//
// An Expr is an immutable chain of stages rooted at a start selector:
//
//	e := query.Vertex("africa").In(models.RDFSLabel).Out(models.PartHolonym)
//	cur, err := query.Walk(ctx, st, e)
//
// Walk compiles the chain into a lazy pull pipeline and returns a Cursor;
// nothing touches the store until the cursor is advanced.
package query

import (
	"fmt"
	"slices"

	"github.com/persistorai/triplewalk/internal/models"
)

// MaxStages bounds the number of stages in one expression.
const MaxStages = 256

type op uint8

const (
	opStart op = iota
	opOut
	opIn
	opHas
	opIs
	opFilter
	opTap
	opLimit
)

func (o op) String() string {
	switch o {
	case opStart:
		return "start"
	case opOut:
		return "out"
	case opIn:
		return "in"
	case opHas:
		return "has"
	case opIs:
		return "is"
	case opFilter:
		return "filter"
	case opTap:
		return "tap"
	case opLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Expr is one stage of a path expression plus the stages before it.
// Builder methods never modify the receiver; each returns a new Expr that
// wraps it, so a prefix can be shared by any number of expressions.
type Expr struct {
	op     op
	preds  []models.Node // out/in filter (nil means all), has predicate
	nodes  []models.Node // start anchors, is set, has object
	n      int
	filter func(models.Path) bool
	tap    func(models.Path)
	prev   *Expr
	depth  int
	err    error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidExpression, fmt.Sprintf(format, args...))
}

// Vertex starts an expression anchored at the given vertices. With no
// vertices the expression is unanchored and walks every vertex in the store
// unless Walk is given a start set.
func Vertex(ids ...models.Node) *Expr {
	e := &Expr{op: opStart, nodes: slices.Clone(ids)}

	for _, id := range ids {
		if err := models.ValidateNode(id); err != nil {
			e.err = invalid("start vertex: %v", err)

			break
		}
	}

	return e
}

// Start returns an unanchored expression.
func Start() *Expr { return Vertex() }

// Out starts an unanchored expression with an Out step.
func Out(preds ...models.Node) *Expr { return Start().Out(preds...) }

// In starts an unanchored expression with an In step.
func In(preds ...models.Node) *Expr { return Start().In(preds...) }

// AllOut starts an unanchored expression with an AllOut step.
func AllOut() *Expr { return Start().AllOut() }

// AllIn starts an unanchored expression with an AllIn step.
func AllIn() *Expr { return Start().AllIn() }

func (e *Expr) then(next *Expr) *Expr {
	if e == nil {
		e = Start()
	}

	next.prev = e
	next.depth = e.depth + 1

	switch {
	case e.err != nil:
		next.err = e.err
	case e.op == opLimit:
		next.err = invalid("%s step after limit", next.op)
	case next.depth > MaxStages:
		next.err = invalid("more than %d stages", MaxStages)
	}

	return next
}

func (e *Expr) step(o op, preds []models.Node) *Expr {
	var own error
	if preds != nil && len(preds) == 0 {
		own = invalid("%s needs at least one predicate", o)
	}

	for _, p := range preds {
		if err := models.ValidateNode(p); err != nil {
			own = invalid("%s predicate: %v", o, err)

			break
		}
	}

	return e.keepErr(e.then(&Expr{op: o, preds: slices.Clone(preds)}), own)
}

// keepErr gives the receiver's inherited error precedence over the new
// stage's own error.
func (e *Expr) keepErr(next *Expr, own error) *Expr {
	if next.err == nil {
		next.err = own
	}

	return next
}

// Out follows outgoing edges labeled with any of preds.
func (e *Expr) Out(preds ...models.Node) *Expr {
	return e.step(opOut, nonNil(preds))
}

// In follows incoming edges labeled with any of preds.
func (e *Expr) In(preds ...models.Node) *Expr {
	return e.step(opIn, nonNil(preds))
}

// AllOut follows every outgoing edge.
func (e *Expr) AllOut() *Expr { return e.step(opOut, nil) }

// AllIn follows every incoming edge.
func (e *Expr) AllIn() *Expr { return e.step(opIn, nil) }

// Has keeps paths whose last node has an outgoing edge pred -> object.
func (e *Expr) Has(pred, object models.Node) *Expr {
	next := &Expr{op: opHas, preds: []models.Node{pred}, nodes: []models.Node{object}}

	var own error
	if err := models.ValidateNode(pred); err != nil {
		own = invalid("has predicate: %v", err)
	} else if err := models.ValidateNode(object); err != nil {
		own = invalid("has object: %v", err)
	}

	return e.keepErr(e.then(next), own)
}

// Is keeps paths whose last node is one of nodes.
func (e *Expr) Is(nodes ...models.Node) *Expr {
	next := &Expr{op: opIs, nodes: slices.Clone(nodes)}

	var own error
	if len(nodes) == 0 {
		own = invalid("is needs at least one node")
	}

	for _, n := range nodes {
		if err := models.ValidateNode(n); err != nil {
			own = invalid("is node: %v", err)

			break
		}
	}

	return e.keepErr(e.then(next), own)
}

// Filter keeps paths for which keep returns true.
func (e *Expr) Filter(keep func(models.Path) bool) *Expr {
	var own error
	if keep == nil {
		own = invalid("nil filter")
	}

	return e.keepErr(e.then(&Expr{op: opFilter, filter: keep}), own)
}

// Tap calls fn with every path that reaches this stage, then passes the path
// on unchanged. fn must not retain the path's slices.
func (e *Expr) Tap(fn func(models.Path)) *Expr {
	var own error
	if fn == nil {
		own = invalid("nil tap")
	}

	return e.keepErr(e.then(&Expr{op: opTap, tap: fn}), own)
}

// Limit ends the expression: at most n paths are produced. No stage may
// follow a Limit.
func (e *Expr) Limit(n int) *Expr {
	var own error
	if n <= 0 {
		own = invalid("limit must be positive, got %d", n)
	}

	return e.keepErr(e.then(&Expr{op: opLimit, n: n}), own)
}

// Err returns the build error carried by the expression, if any.
func (e *Expr) Err() error {
	if e == nil {
		return nil
	}

	return e.err
}

// Steps returns the number of traversal (Out/In) stages, which is the
// length every produced path has minus one.
func (e *Expr) Steps() int {
	n := 0

	for s := e; s != nil; s = s.prev {
		if s.op == opOut || s.op == opIn {
			n++
		}
	}

	return n
}

// Directions returns the direction of every traversal stage in order.
func (e *Expr) Directions() []models.Direction {
	var dirs []models.Direction

	for _, s := range e.chain() {
		switch s.op {
		case opOut:
			dirs = append(dirs, models.Out)
		case opIn:
			dirs = append(dirs, models.In)
		}
	}

	return dirs
}

// Anchors returns the start vertices, or nil for an unanchored expression.
func (e *Expr) Anchors() []models.Node {
	chain := e.chain()
	if len(chain) == 0 {
		return nil
	}

	return slices.Clone(chain[0].nodes)
}

// String renders the expression in builder form.
func (e *Expr) String() string {
	out := ""

	for _, s := range e.chain() {
		switch s.op {
		case opStart:
			out = fmt.Sprintf("Vertex(%s)", joinNodes(s.nodes))
		case opOut, opIn:
			name := "Out"
			if s.op == opIn {
				name = "In"
			}

			if s.preds == nil {
				out += ".All" + name + "()"
			} else {
				out += fmt.Sprintf(".%s(%s)", name, joinNodes(s.preds))
			}
		case opHas:
			out += fmt.Sprintf(".Has(%s, %s)", s.preds[0], s.nodes[0])
		case opIs:
			out += fmt.Sprintf(".Is(%s)", joinNodes(s.nodes))
		case opFilter:
			out += ".Filter(fn)"
		case opTap:
			out += ".Tap(fn)"
		case opLimit:
			out += fmt.Sprintf(".Limit(%d)", s.n)
		}
	}

	return out
}

// chain returns the stages from the root start selector to e.
func (e *Expr) chain() []*Expr {
	if e == nil {
		return []*Expr{Start()}
	}

	out := make([]*Expr, e.depth+1)

	for s := e; s != nil; s = s.prev {
		out[s.depth] = s
	}

	return out
}

func nonNil(preds []models.Node) []models.Node {
	if preds == nil {
		return []models.Node{}
	}

	return preds
}

func joinNodes(nodes []models.Node) string {
	out := ""

	for i, n := range nodes {
		if i > 0 {
			out += ", "
		}

		out += string(n)
	}

	return out
}
