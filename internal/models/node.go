// Package models defines data types for the triple graph and its query engine.
package models

import "strings"

// Well-known predicates.
const (
	RDFSLabel    Node = "http://www.w3.org/2000/01/rdf-schema#label"
	PartHolonym  Node = "http://wordnet-rdf.princeton.edu/ontology#part_holonym"
	Hypernym     Node = "http://wordnet-rdf.princeton.edu/ontology#hypernym"
	maxNodeBytes      = 4096
)

// Node is an opaque vertex identifier. Literal values such as label strings
// are Nodes too; two Nodes are the same vertex when their strings are equal.
type Node string

// String returns the raw identifier.
func (n Node) String() string { return string(n) }

// Nodes converts a list of strings into Nodes.
func Nodes(ids ...string) []Node {
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node(id)
	}

	return out
}

// validateNode checks a single identifier used as a triple component or
// query argument.
func validateNode(field string, n Node) error {
	if n == "" {
		return &FieldError{Field: field, Err: ErrEmptyNode}
	}

	if len(n) > maxNodeBytes {
		return ErrFieldTooLong(field, maxNodeBytes)
	}

	// NUL separates key components in the badger index layout.
	if strings.IndexByte(string(n), 0) >= 0 {
		return &FieldError{Field: field, Err: ErrReservedByte}
	}

	return nil
}

// ValidateNode checks that n is usable as a vertex identifier.
func ValidateNode(n Node) error {
	return validateNode("node", n)
}
