package api

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// ListAllBranches fetches every branch concurrently. The first failure
// cancels the remaining requests.
func (c *Client) ListAllBranches(ctx context.Context, group string) (map[model.Branch][]model.TaxonomyNode, error) {
	results := make([][]model.TaxonomyNode, len(model.Branches))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range model.Branches {
		g.Go(func() error {
			nodes, err := c.ListNodes(gctx, ListNodesParams{Branch: b, GovernanceGroup: group})
			if err != nil {
				return err
			}
			results[i] = nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[model.Branch][]model.TaxonomyNode, len(model.Branches))
	for i, b := range model.Branches {
		out[b] = results[i]
	}
	return out, nil
}
