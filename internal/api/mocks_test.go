package api_test

import (
	"context"
	"errors"

	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/query"
)

var errNotMocked = errors.New("not mocked")

// mockQueryService implements api.QueryService for testing.
type mockQueryService struct {
	walkFn    func(ctx context.Context, req models.WalkRequest) (*models.WalkResult, error)
	labelsFn  func(ctx context.Context, node models.Node) ([]string, error)
	findFn    func(ctx context.Context, label string) ([]models.Node, error)
	closureFn func(ctx context.Context, req models.ClosureRequest) (*models.ClosureResult, error)
	relatedFn func(ctx context.Context, term string, predicate models.Node) ([]string, error)
	pingFn    func(ctx context.Context) error
}

func (m *mockQueryService) Walk(ctx context.Context, req models.WalkRequest) (*models.WalkResult, error) {
	if m.walkFn == nil {
		return nil, errNotMocked
	}

	return m.walkFn(ctx, req)
}

func (m *mockQueryService) OpenCursor(context.Context, models.WalkRequest) (*query.Cursor, error) {
	return nil, errNotMocked
}

func (m *mockQueryService) Labels(ctx context.Context, node models.Node) ([]string, error) {
	if m.labelsFn == nil {
		return nil, errNotMocked
	}

	return m.labelsFn(ctx, node)
}

func (m *mockQueryService) Find(ctx context.Context, label string) ([]models.Node, error) {
	if m.findFn == nil {
		return nil, errNotMocked
	}

	return m.findFn(ctx, label)
}

func (m *mockQueryService) Closure(ctx context.Context, req models.ClosureRequest) (*models.ClosureResult, error) {
	if m.closureFn == nil {
		return nil, errNotMocked
	}

	return m.closureFn(ctx, req)
}

func (m *mockQueryService) Related(ctx context.Context, term string, predicate models.Node) ([]string, error) {
	if m.relatedFn == nil {
		return nil, errNotMocked
	}

	return m.relatedFn(ctx, term, predicate)
}

func (m *mockQueryService) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}

	return m.pingFn(ctx)
}
