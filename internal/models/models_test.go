package models_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/persistorai/triplewalk/internal/models"
)

func ptr[T any](v T) *T { return &v }

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}

	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestTriple_Validate(t *testing.T) {
	tests := []struct {
		name    string
		triple  models.Triple
		wantErr string
	}{
		{name: "valid", triple: models.Triple{Subject: "a", Predicate: "p", Object: "b"}},
		{name: "missing subject", triple: models.Triple{Predicate: "p", Object: "b"}, wantErr: "subject: node is required"},
		{name: "missing predicate", triple: models.Triple{Subject: "a", Object: "b"}, wantErr: "predicate: node is required"},
		{name: "missing object", triple: models.Triple{Subject: "a", Predicate: "p"}, wantErr: "object: node is required"},
		{name: "nul byte", triple: models.Triple{Subject: "a\x00b", Predicate: "p", Object: "b"}, wantErr: "NUL"},
		{
			name:    "too long",
			triple:  models.Triple{Subject: "a", Predicate: "p", Object: models.Node(strings.Repeat("x", 4097))},
			wantErr: "object exceeds maximum length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.triple.Validate()
			if tt.wantErr == "" {
				assertNoError(t, err)

				return
			}

			assertErrorContains(t, err, tt.wantErr)

			if !errors.Is(err, models.ErrInvalidTriple) {
				t.Errorf("error %v should match ErrInvalidTriple", err)
			}
		})
	}
}

func TestEdge_Less(t *testing.T) {
	a := models.Edge{Predicate: "p", Vertex: "z"}
	b := models.Edge{Predicate: "pq", Vertex: "a"}
	c := models.Edge{Predicate: "pq", Vertex: "b"}

	if !a.Less(b) || !b.Less(c) || c.Less(a) || a.Less(a) {
		t.Error("edges must order by predicate, then vertex")
	}
}

func TestEdge_Triple(t *testing.T) {
	e := models.Edge{Predicate: "p", Vertex: "b"}

	if got := e.Triple("a", models.Out); got != (models.Triple{Subject: "a", Predicate: "p", Object: "b"}) {
		t.Errorf("out triple = %v", got)
	}

	if got := e.Triple("a", models.In); got != (models.Triple{Subject: "b", Predicate: "p", Object: "a"}) {
		t.Errorf("in triple = %v", got)
	}
}

func TestPath(t *testing.T) {
	p := models.NewPath("a")
	q := p.Extend(models.Edge{Predicate: "p", Vertex: "b"})
	r1 := q.Extend(models.Edge{Predicate: "q", Vertex: "c"})
	r2 := q.Extend(models.Edge{Predicate: "q", Vertex: "d"})

	if p.Len() != 1 || q.Len() != 2 || r1.Len() != 3 {
		t.Fatalf("lengths %d %d %d", p.Len(), q.Len(), r1.Len())
	}

	if r1.End() != "c" || r2.End() != "d" || r1.Start() != "a" {
		t.Errorf("paths sharing a prefix alias each other: %s, %s", r1, r2)
	}

	if r1.String() != "a -p-> b -q-> c" {
		t.Errorf("String() = %q", r1.String())
	}

	if n, ok := r1.At(-2); !ok || n != "b" {
		t.Errorf("At(-2) = %q, %v", n, ok)
	}

	if _, ok := r1.At(3); ok {
		t.Error("At(3) should be out of range")
	}

	if pred, ok := r1.PredicateAt(-1); !ok || pred != "q" {
		t.Errorf("PredicateAt(-1) = %q, %v", pred, ok)
	}

	var empty models.Path
	if empty.End() != "" || empty.Start() != "" {
		t.Error("empty path should have no ends")
	}
}

func TestWalkRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.WalkRequest
		wantErr string
	}{
		{
			name: "valid",
			req: models.WalkRequest{
				From: []models.Node{"a"},
				Steps: []models.StepSpec{
					{Op: models.StepOut, Predicates: []models.Node{"p"}},
					{Op: models.StepAllIn},
					{Op: models.StepHas, Predicate: "p", Object: "b"},
					{Op: models.StepIs, Nodes: []models.Node{"c"}},
				},
			},
		},
		{name: "unanchored", req: models.WalkRequest{Steps: []models.StepSpec{{Op: models.StepAllOut}}}},
		{
			name:    "out without predicates",
			req:     models.WalkRequest{Steps: []models.StepSpec{{Op: models.StepOut}}},
			wantErr: "step 0: predicate is required",
		},
		{
			name:    "all_in with predicates",
			req:     models.WalkRequest{Steps: []models.StepSpec{{Op: models.StepAllIn, Predicates: []models.Node{"p"}}}},
			wantErr: "all_in takes no predicates",
		},
		{
			name:    "unknown op",
			req:     models.WalkRequest{Steps: []models.StepSpec{{Op: "sideways"}}},
			wantErr: `unknown step "sideways"`,
		},
		{
			name:    "has without object",
			req:     models.WalkRequest{Steps: []models.StepSpec{{Op: models.StepHas, Predicate: "p"}}},
			wantErr: "object: node is required",
		},
		{
			name:    "is without nodes",
			req:     models.WalkRequest{Steps: []models.StepSpec{{Op: models.StepIs}}},
			wantErr: "nodes: node is required",
		},
		{name: "empty start", req: models.WalkRequest{From: []models.Node{""}}, wantErr: "from: node is required"},
		{name: "negative limit", req: models.WalkRequest{Limit: -1}, wantErr: "limit must not be negative"},
		{
			name:    "too many steps",
			req:     models.WalkRequest{Steps: make([]models.StepSpec, models.MaxSteps+1)},
			wantErr: "steps: at most",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assertNoError(t, err)

				return
			}

			assertErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestClosureRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.ClosureRequest
		wantErr string
	}{
		{name: "seeds", req: models.ClosureRequest{Seeds: []models.Node{"a"}, Predicate: "p", MaxDepth: ptr(2)}},
		{name: "term", req: models.ClosureRequest{Term: "virus", Predicate: "p"}},
		{name: "no start", req: models.ClosureRequest{Predicate: "p"}, wantErr: "seeds or term is required"},
		{name: "no predicate", req: models.ClosureRequest{Term: "virus"}, wantErr: "predicate is required"},
		{
			name:    "long term",
			req:     models.ClosureRequest{Term: strings.Repeat("x", models.MaxLabelBytes+1), Predicate: "p"},
			wantErr: "term exceeds maximum length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assertNoError(t, err)

				return
			}

			assertErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&models.StoreError{Backend: "postgres", Op: "edges", Err: cause})

	if !errors.Is(err, models.ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Errorf("StoreError should match ErrStoreUnavailable and its cause")
	}

	if err.Error() != "postgres store: edges: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
}
