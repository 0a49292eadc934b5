package query

import (
	"github.com/persistorai/triplewalk/internal/models"
)

// FromRequest builds the expression described by a WalkRequest. The request
// limit is left to the caller, which usually wants to detect truncation.
func FromRequest(req models.WalkRequest) (*Expr, error) {
	e := Vertex(req.From...)

	for i, s := range req.Steps {
		switch s.Op {
		case models.StepOut:
			e = e.Out(s.Predicates...)
		case models.StepIn:
			e = e.In(s.Predicates...)
		case models.StepAllOut:
			e = e.AllOut()
		case models.StepAllIn:
			e = e.AllIn()
		case models.StepHas:
			e = e.Has(s.Predicate, s.Object)
		case models.StepIs:
			e = e.Is(s.Nodes...)
		default:
			return nil, invalid("step %d: %v %q", i, models.ErrUnknownStep, s.Op)
		}
	}

	if err := e.Err(); err != nil {
		return nil, err
	}

	return e, nil
}
