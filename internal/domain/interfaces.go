// Package domain defines the canonical service interfaces shared across API
// layers (REST, websocket streaming, CLI). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/query"
)

// QueryService defines every read operation over the graph.
type QueryService interface {
	Walk(ctx context.Context, req models.WalkRequest) (*models.WalkResult, error)
	OpenCursor(ctx context.Context, req models.WalkRequest) (*query.Cursor, error)
	Labels(ctx context.Context, node models.Node) ([]string, error)
	Find(ctx context.Context, label string) ([]models.Node, error)
	Closure(ctx context.Context, req models.ClosureRequest) (*models.ClosureResult, error)
	Related(ctx context.Context, term string, predicate models.Node) ([]string, error)
	Ping(ctx context.Context) error
}
