package client

import (
	"context"
	"net/url"
)

// Walk evaluates a path expression and returns its paths. The server caps
// the result; Truncated reports whether more paths existed.
func (c *Client) Walk(ctx context.Context, req WalkRequest) (*WalkResult, error) {
	var resp WalkResult
	if err := c.post(ctx, "/api/v1/walk", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Closure returns every node reachable from the seeds over one predicate.
func (c *Client) Closure(ctx context.Context, req ClosureRequest) (*ClosureResult, error) {
	var resp ClosureResult
	if err := c.post(ctx, "/api/v1/closure", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Related returns the labels of nodes linked to term's nodes by predicate.
func (c *Client) Related(ctx context.Context, term, predicate string) (*RelatedResult, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("predicate", predicate)

	var resp RelatedResult
	if err := c.get(ctx, "/api/v1/related", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Labels returns the labels of a node.
func (c *Client) Labels(ctx context.Context, node string) (*LabelsResult, error) {
	params := url.Values{}
	params.Set("node", node)

	var resp LabelsResult
	if err := c.get(ctx, "/api/v1/labels", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Find returns the nodes carrying a label.
func (c *Client) Find(ctx context.Context, label string) (*FindResult, error) {
	params := url.Values{}
	params.Set("label", label)

	var resp FindResult
	if err := c.get(ctx, "/api/v1/find", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
