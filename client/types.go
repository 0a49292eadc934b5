package client

// Step operators accepted in a WalkRequest.
const (
	StepOut    = "out"
	StepIn     = "in"
	StepAllOut = "all_out"
	StepAllIn  = "all_in"
	StepHas    = "has"
	StepIs     = "is"
)

// Step is one stage of a path expression.
type Step struct {
	Op         string   `json:"op"`
	Predicates []string `json:"predicates,omitempty"`
	Predicate  string   `json:"predicate,omitempty"`
	Object     string   `json:"object,omitempty"`
	Nodes      []string `json:"nodes,omitempty"`
}

// WalkRequest describes a path expression evaluated from the From nodes.
type WalkRequest struct {
	From   []string `json:"from"`
	Steps  []Step   `json:"steps"`
	Limit  int      `json:"limit,omitempty"`
	Labels bool     `json:"labels,omitempty"`
}

// Path is an alternating sequence of nodes and the predicates between them.
type Path struct {
	Nodes      []string   `json:"nodes"`
	Predicates []string   `json:"predicates"`
	Labels     [][]string `json:"labels,omitempty"`
}

// End returns the last node of the path.
func (p Path) End() string {
	if len(p.Nodes) == 0 {
		return ""
	}

	return p.Nodes[len(p.Nodes)-1]
}

// WalkResult is returned by Walk.
type WalkResult struct {
	Paths     []Path `json:"paths"`
	Count     int    `json:"count"`
	Truncated bool   `json:"truncated"`
}

// ClosureRequest asks for every node reachable over one predicate. Set
// either Seeds or Term. A nil MaxDepth uses the server default; a negative
// one is unbounded.
type ClosureRequest struct {
	Seeds     []string `json:"seeds,omitempty"`
	Term      string   `json:"term,omitempty"`
	Predicate string   `json:"predicate"`
	Reverse   bool     `json:"reverse,omitempty"`
	MaxDepth  *int     `json:"max_depth,omitempty"`
}

// ClosureRecord is one node reached by a closure.
type ClosureRecord struct {
	Node   string   `json:"node"`
	Labels []string `json:"labels"`
	Depth  int      `json:"depth"`
}

// ClosureResult is returned by Closure.
type ClosureResult struct {
	Seeds   []string        `json:"seeds"`
	Records []ClosureRecord `json:"records"`
}

// LabelsResult is returned by Labels.
type LabelsResult struct {
	Node   string   `json:"node"`
	Labels []string `json:"labels"`
}

// FindResult is returned by Find.
type FindResult struct {
	Label string   `json:"label"`
	Nodes []string `json:"nodes"`
}

// RelatedResult is returned by Related.
type RelatedResult struct {
	Term   string   `json:"term"`
	Labels []string `json:"labels"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	Store         string  `json:"store"`
	Streams       int     `json:"streams"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is returned by the readiness endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
