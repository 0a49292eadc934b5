package models

import "strings"

// Path is one complete match of a path expression: the sequence of nodes
// visited plus the predicate followed at every step.
// len(Predicates) is always len(Nodes)-1.
type Path struct {
	Nodes      []Node `json:"nodes"`
	Predicates []Node `json:"predicates"`
}

// NewPath returns a zero-step path anchored at start.
func NewPath(start Node) Path {
	return Path{Nodes: []Node{start}, Predicates: []Node{}}
}

// Len returns the number of nodes on the path.
func (p Path) Len() int { return len(p.Nodes) }

// Steps returns the number of edges followed.
func (p Path) Steps() int { return len(p.Predicates) }

// Start returns the first node, or "" for an empty path.
func (p Path) Start() Node {
	if len(p.Nodes) == 0 {
		return ""
	}

	return p.Nodes[0]
}

// End returns the last node, or "" for an empty path.
func (p Path) End() Node {
	if len(p.Nodes) == 0 {
		return ""
	}

	return p.Nodes[len(p.Nodes)-1]
}

// At returns the node at position i. Negative positions count from the end.
func (p Path) At(i int) (Node, bool) {
	if i < 0 {
		i += len(p.Nodes)
	}

	if i < 0 || i >= len(p.Nodes) {
		return "", false
	}

	return p.Nodes[i], true
}

// PredicateAt returns the predicate followed from node i to node i+1.
func (p Path) PredicateAt(i int) (Node, bool) {
	if i < 0 {
		i += len(p.Predicates)
	}

	if i < 0 || i >= len(p.Predicates) {
		return "", false
	}

	return p.Predicates[i], true
}

// Extend returns a new path with one more step. The receiver is never
// modified and the result shares no backing array with it.
func (p Path) Extend(e Edge) Path {
	nodes := make([]Node, len(p.Nodes), len(p.Nodes)+1)
	copy(nodes, p.Nodes)

	preds := make([]Node, len(p.Predicates), len(p.Predicates)+1)
	copy(preds, p.Predicates)

	return Path{
		Nodes:      append(nodes, e.Vertex),
		Predicates: append(preds, e.Predicate),
	}
}

// String renders the path as "a -p-> b -q-> c".
func (p Path) String() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			b.WriteString(" -")
			b.WriteString(string(p.Predicates[i-1]))
			b.WriteString("-> ")
		}

		b.WriteString(string(n))
	}

	return b.String()
}
