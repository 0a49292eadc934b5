// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/domain"
	"github.com/persistorai/triplewalk/internal/models"
	"github.com/persistorai/triplewalk/internal/query"
	"github.com/persistorai/triplewalk/internal/store"
)

// Compile-time check: *QueryService must satisfy domain.QueryService.
var _ domain.QueryService = (*QueryService)(nil)

// DefaultMaxResults applies when QueryConfig.MaxResults is not set.
const DefaultMaxResults = 1000

// QueryConfig bounds the work a single request may ask for.
type QueryConfig struct {
	LabelPredicate models.Node
	BatchSize      int
	Fanout         int
	// MaxResults caps the paths returned by Walk.
	MaxResults int
	// MaxDepth caps closure depth. Negative allows unbounded closures.
	MaxDepth int
}

// QueryService evaluates path expressions and closures against a store.
type QueryService struct {
	store    store.Store
	resolver *query.Resolver
	cfg      QueryConfig
	log      *logrus.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(st store.Store, cfg QueryConfig, log *logrus.Logger) *QueryService {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	return &QueryService{
		store:    st,
		resolver: query.NewResolver(st, cfg.LabelPredicate, query.WithBatchSize(cfg.BatchSize), query.WithLogger(log)),
		cfg:      cfg,
		log:      log,
	}
}

func (s *QueryService) walkOptions() []query.Option {
	return []query.Option{
		query.WithBatchSize(s.cfg.BatchSize),
		query.WithFanout(s.cfg.Fanout),
		query.WithLogger(s.log),
	}
}

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
}

// OpenCursor validates req and returns an unread cursor over its paths. The
// caller owns the cursor and must close it.
func (s *QueryService) OpenCursor(ctx context.Context, req models.WalkRequest) (*query.Cursor, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}

	e, err := query.FromRequest(req)
	if err != nil {
		return nil, err
	}

	if req.Limit > 0 {
		e = e.Limit(req.Limit)
	}

	return query.Walk(ctx, s.store, e, s.walkOptions()...)
}

// Walk evaluates req and returns at most MaxResults paths (or req.Limit if
// smaller). Truncated reports whether more paths were available.
func (s *QueryService) Walk(ctx context.Context, req models.WalkRequest) (*models.WalkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}

	e, err := query.FromRequest(req)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.MaxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	cur, err := query.Walk(ctx, s.store, e, s.walkOptions()...)
	if err != nil {
		return nil, err
	}

	// One extra path tells us whether the result was cut short.
	paths, err := cur.CollectN(limit + 1)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", e, err)
	}

	result := &models.WalkResult{Paths: make([]models.PathResult, 0, min(len(paths), limit))}
	if len(paths) > limit {
		paths = paths[:limit]
		result.Truncated = true
	}

	cache := make(map[models.Node][]string)

	for _, p := range paths {
		pr := models.PathResult{Nodes: p.Nodes, Predicates: p.Predicates}

		if req.Labels {
			pr.Labels, err = s.pathLabels(ctx, p, cache)
			if err != nil {
				return nil, err
			}
		}

		result.Paths = append(result.Paths, pr)
	}

	result.Count = len(result.Paths)

	s.log.WithFields(logrus.Fields{
		"expr":      e.String(),
		"count":     result.Count,
		"truncated": result.Truncated,
	}).Debug("query.walk")

	return result, nil
}

// pathLabels resolves the labels of every node on p, memoizing per request.
func (s *QueryService) pathLabels(ctx context.Context, p models.Path, cache map[models.Node][]string) ([][]string, error) {
	out := make([][]string, len(p.Nodes))

	for i, n := range p.Nodes {
		labels, ok := cache[n]
		if !ok {
			var err error

			labels, err = s.resolver.Labels(ctx, n)
			if err != nil {
				return nil, err
			}

			cache[n] = labels
		}

		out[i] = labels
	}

	return out, nil
}

// Labels returns the labels of node.
func (s *QueryService) Labels(ctx context.Context, node models.Node) ([]string, error) {
	if err := models.ValidateNode(node); err != nil {
		return nil, invalidRequest(err)
	}

	return s.resolver.Labels(ctx, node)
}

// Find returns the vertices labeled label.
func (s *QueryService) Find(ctx context.Context, label string) ([]models.Node, error) {
	if label == "" {
		return nil, invalidRequest(models.ErrMissingLabel)
	}

	if len(label) > models.MaxLabelBytes {
		return nil, invalidRequest(models.ErrFieldTooLong("label", models.MaxLabelBytes))
	}

	return s.resolver.Find(ctx, label)
}

// maxDepth applies the configured cap to a requested closure depth.
func (s *QueryService) maxDepth(requested *int) int {
	limit := s.cfg.MaxDepth

	switch {
	case requested == nil:
		return limit
	case limit < 0:
		return *requested
	case *requested < 0 || *requested > limit:
		return limit
	default:
		return *requested
	}
}

// Closure runs a recursive closure seeded by ids or by a label term.
// On a store failure the partial result is returned together with the error.
func (s *QueryService) Closure(ctx context.Context, req models.ClosureRequest) (*models.ClosureResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}

	seeds := req.Seeds
	if len(seeds) == 0 {
		found, err := s.resolver.Find(ctx, req.Term)
		if err != nil {
			return nil, fmt.Errorf("resolving closure term: %w", err)
		}

		if len(found) == 0 {
			return nil, fmt.Errorf("%w: no vertex labeled %q", models.ErrNodeNotFound, req.Term)
		}

		seeds = found
	}

	opts := query.ClosureOptions{
		Predicate: req.Predicate,
		Reverse:   req.Reverse,
		MaxDepth:  s.maxDepth(req.MaxDepth),
		Walk:      s.walkOptions(),
		Log:       s.log,
	}

	records, err := query.Closure(ctx, s.store, s.resolver, opts, seeds...)

	return &models.ClosureResult{Seeds: seeds, Records: records}, err
}

// Related returns the labels of vertices reached from the vertices labeled
// term through predicate, which defaults to part holonym.
func (s *QueryService) Related(ctx context.Context, term string, predicate models.Node) ([]string, error) {
	if term == "" {
		return nil, invalidRequest(models.ErrMissingLabel)
	}

	if len(term) > models.MaxLabelBytes {
		return nil, invalidRequest(models.ErrFieldTooLong("term", models.MaxLabelBytes))
	}

	if predicate == "" {
		predicate = models.PartHolonym
	}

	if err := models.ValidateNode(predicate); err != nil {
		return nil, invalidRequest(err)
	}

	return query.RelatedLabels(ctx, s.store, s.resolver, term, predicate, s.walkOptions()...)
}

// Ping checks the store.
func (s *QueryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
