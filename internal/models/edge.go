package models

import "fmt"

// Direction selects which end of a triple an adjacency lookup starts from.
type Direction uint8

const (
	// Out follows triples from subject to object.
	Out Direction = iota
	// In follows triples from object back to subject.
	In
)

// String returns "out" or "in".
func (d Direction) String() string {
	if d == In {
		return "in"
	}

	return "out"
}

// Triple is one directed, labeled edge of the graph.
type Triple struct {
	Subject   Node `json:"subject"`
	Predicate Node `json:"predicate"`
	Object    Node `json:"object"`
}

// Validate checks that all three components are present and encodable.
func (t Triple) Validate() error {
	if err := validateNode("subject", t.Subject); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, err)
	}

	if err := validateNode("predicate", t.Predicate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, err)
	}

	if err := validateNode("object", t.Object); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, err)
	}

	return nil
}

// String renders the triple in N-Triples-like form.
func (t Triple) String() string {
	return fmt.Sprintf("<%s> <%s> <%s> .", t.Subject, t.Predicate, t.Object)
}

// Edge is one adjacency hit. For an outgoing lookup Vertex is the object;
// for an incoming lookup it is the subject.
type Edge struct {
	Predicate Node `json:"predicate"`
	Vertex    Node `json:"vertex"`
}

// Less orders edges by predicate, then by vertex. This is the order every
// store returns adjacency lists in.
func (e Edge) Less(o Edge) bool {
	if e.Predicate != o.Predicate {
		return e.Predicate < o.Predicate
	}

	return e.Vertex < o.Vertex
}

// Triple rebuilds the stored triple this edge was read from, given the
// vertex the lookup started at.
func (e Edge) Triple(from Node, dir Direction) Triple {
	if dir == In {
		return Triple{Subject: e.Vertex, Predicate: e.Predicate, Object: from}
	}

	return Triple{Subject: from, Predicate: e.Predicate, Object: e.Vertex}
}
