package models

import "fmt"

// Request limits. Labels are literal Nodes, so they share the node cap.
const (
	MaxStartNodes = 1000
	MaxSteps      = 64
	MaxPredicates = 100
	MaxLabelBytes = maxNodeBytes
)

// Step operations accepted in a WalkRequest.
const (
	StepOut    = "out"
	StepIn     = "in"
	StepAllOut = "all_out"
	StepAllIn  = "all_in"
	StepHas    = "has"
	StepIs     = "is"
)

// StepSpec is the wire form of one path expression stage.
type StepSpec struct {
	Op         string `json:"op"`
	Predicates []Node `json:"predicates,omitempty"`
	Predicate  Node   `json:"predicate,omitempty"`
	Object     Node   `json:"object,omitempty"`
	Nodes      []Node `json:"nodes,omitempty"`
}

// Validate checks the step against its operation.
func (s *StepSpec) Validate() error {
	switch s.Op {
	case StepOut, StepIn:
		if len(s.Predicates) == 0 {
			return ErrMissingPredicate
		}

		return validateList("predicates", s.Predicates, MaxPredicates)
	case StepAllOut, StepAllIn:
		if len(s.Predicates) > 0 {
			return fmt.Errorf("%s takes no predicates", s.Op)
		}

		return nil
	case StepHas:
		if err := validateNode("predicate", s.Predicate); err != nil {
			return err
		}

		return validateNode("object", s.Object)
	case StepIs:
		if len(s.Nodes) == 0 {
			return &FieldError{Field: "nodes", Err: ErrEmptyNode}
		}

		return validateList("nodes", s.Nodes, MaxStartNodes)
	default:
		return fmt.Errorf("%w %q", ErrUnknownStep, s.Op)
	}
}

// WalkRequest is the payload for evaluating a path expression.
type WalkRequest struct {
	From   []Node     `json:"from"`
	Steps  []StepSpec `json:"steps"`
	Limit  int        `json:"limit,omitempty"`
	Labels bool       `json:"labels,omitempty"`
}

// Validate checks the request shape. An empty From walks every vertex.
func (r *WalkRequest) Validate() error {
	if err := validateList("from", r.From, MaxStartNodes); err != nil {
		return err
	}

	if len(r.Steps) > MaxSteps {
		return fmt.Errorf("steps: at most %d allowed", MaxSteps)
	}

	for i := range r.Steps {
		if err := r.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	if r.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	return nil
}

// PathResult is one walk result with optional labels per node.
type PathResult struct {
	Nodes      []Node     `json:"nodes"`
	Predicates []Node     `json:"predicates"`
	Labels     [][]string `json:"labels,omitempty"`
}

// WalkResult holds the paths produced by a walk.
type WalkResult struct {
	Paths     []PathResult `json:"paths"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated"`
}

// ClosureRequest is the payload for a recursive closure.
// Either Seeds or Term must be set; Term is resolved through labels.
type ClosureRequest struct {
	Seeds     []Node `json:"seeds,omitempty"`
	Term      string `json:"term,omitempty"`
	Predicate Node   `json:"predicate"`
	Reverse   bool   `json:"reverse,omitempty"`
	MaxDepth  *int   `json:"max_depth,omitempty"`
}

// Validate checks required fields on a ClosureRequest.
func (r *ClosureRequest) Validate() error {
	if len(r.Seeds) == 0 && r.Term == "" {
		return ErrMissingStart
	}

	if err := validateList("seeds", r.Seeds, MaxStartNodes); err != nil {
		return err
	}

	if len(r.Term) > MaxLabelBytes {
		return ErrFieldTooLong("term", MaxLabelBytes)
	}

	if r.Predicate == "" {
		return ErrMissingPredicate
	}

	return validateNode("predicate", r.Predicate)
}

// ClosureRecord is one node discovered by a closure, with the depth it was
// first reached at. Depth 0 means a direct neighbor of a seed.
type ClosureRecord struct {
	Node   Node     `json:"node"`
	Labels []string `json:"labels"`
	Depth  int      `json:"depth"`
}

// ClosureResult holds the records of a closure in discovery order.
type ClosureResult struct {
	Seeds   []Node          `json:"seeds"`
	Records []ClosureRecord `json:"records"`
}

func validateList(field string, nodes []Node, maxLen int) error {
	if len(nodes) > maxLen {
		return fmt.Errorf("%s: at most %d allowed", field, maxLen)
	}

	for _, n := range nodes {
		if err := validateNode(field, n); err != nil {
			return err
		}
	}

	return nil
}
