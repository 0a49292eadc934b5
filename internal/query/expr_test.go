package query_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/query"
)

func TestExpr_InvalidExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr *query.Expr
	}{
		{"empty start vertex", query.Vertex("")},
		{"out without predicates", query.Vertex("a").Out()},
		{"in without predicates", query.In()},
		{"empty predicate", query.Vertex("a").Out("")},
		{"nul in predicate", query.Vertex("a").In("p\x00q")},
		{"is without nodes", query.Vertex("a").Is()},
		{"is with empty node", query.Vertex("a").Is("b", "")},
		{"has with empty predicate", query.Vertex("a").Has("", "b")},
		{"has with empty object", query.Vertex("a").Has("p", "")},
		{"zero limit", query.Vertex("a").Limit(0)},
		{"negative limit", query.Vertex("a").Limit(-3)},
		{"step after limit", query.Vertex("a").Limit(1).Out("p")},
		{"nil filter", query.Vertex("a").Filter(nil)},
		{"nil tap", query.Vertex("a").Tap(nil)},
		{"error inherited by later steps", query.Vertex("").Out("p").AllIn()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.expr.Err(), models.ErrInvalidExpression) {
				t.Fatalf("Err() = %v, want ErrInvalidExpression", tt.expr.Err())
			}

			st := &countingStore{Store: newFixture(t)}

			cur, err := query.Walk(context.Background(), st, tt.expr)
			if !errors.Is(err, models.ErrInvalidExpression) {
				t.Fatalf("Walk() error = %v, want ErrInvalidExpression", err)
			}

			if cur != nil {
				t.Error("expected nil cursor")
			}

			if n := st.total(); n != 0 {
				t.Errorf("store saw %d lookups, want 0", n)
			}
		})
	}
}

func TestExpr_TooManyStages(t *testing.T) {
	e := query.Vertex("a")
	for range query.MaxStages {
		e = e.AllOut()
	}

	if err := e.Err(); err != nil {
		t.Fatalf("expression at the stage limit: %v", err)
	}

	if err := e.AllOut().Err(); !errors.Is(err, models.ErrInvalidExpression) {
		t.Fatalf("Err() = %v, want ErrInvalidExpression", err)
	}
}

func TestExpr_Immutable(t *testing.T) {
	st := newFixture(t)
	base := query.Vertex("ex:egypt")
	before := base.String()

	up := base.Out(holonym)
	named := base.Out(label)
	_ = base.Has(holonym, "ex:africa").Limit(1)

	if base.String() != before {
		t.Fatalf("base changed from %s to %s", before, base.String())
	}

	if got := ends(collect(t, st, base)); !slices.Equal(got, []models.Node{"ex:egypt"}) {
		t.Errorf("base ends = %v", got)
	}

	if got := ends(collect(t, st, up)); !slices.Equal(got, []models.Node{"ex:africa"}) {
		t.Errorf("up ends = %v", got)
	}

	if got := ends(collect(t, st, named)); !slices.Equal(got, []models.Node{"Egypt"}) {
		t.Errorf("named ends = %v", got)
	}

	// The same expression walked twice gives the same answer.
	if !samePaths(collect(t, st, up), collect(t, st, up)) {
		t.Error("re-walking an expression changed its result")
	}
}

func TestExpr_String(t *testing.T) {
	tests := []struct {
		expr *query.Expr
		want string
	}{
		{query.Vertex("a", "b"), "Vertex(a, b)"},
		{query.Out("p"), "Vertex().Out(p)"},
		{query.Vertex("a").Out("p", "q").AllIn().Limit(3), "Vertex(a).Out(p, q).AllIn().Limit(3)"},
		{query.Vertex("a").In("p").Has("q", "b").Is("c"), "Vertex(a).In(p).Has(q, b).Is(c)"},
	}

	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestExpr_Accessors(t *testing.T) {
	e := query.Vertex("a", "b").Out("p").Is("c").AllIn().Limit(2)

	if e.Steps() != 2 {
		t.Errorf("Steps() = %d, want 2", e.Steps())
	}

	want := []models.Direction{models.Out, models.In}
	if got := e.Directions(); !slices.Equal(got, want) {
		t.Errorf("Directions() = %v, want %v", got, want)
	}

	if got := e.Anchors(); !slices.Equal(got, []models.Node{"a", "b"}) {
		t.Errorf("Anchors() = %v", got)
	}

	if got := query.AllOut().Anchors(); len(got) != 0 {
		t.Errorf("unanchored Anchors() = %v", got)
	}
}
