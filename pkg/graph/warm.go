package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/thoth-station/adviser/pkg/stack"
)

// DefaultWarmConcurrency bounds the number of concurrent queries Warm issues.
const DefaultWarmConcurrency = 8

// Warm fills the cache with the solver results and observations of pvs in
// env, querying at most concurrency packages at once. The first failing
// query cancels the rest.
func (c *CachedGraph) Warm(ctx context.Context, pvs []stack.PackageVersion, env Environment, concurrency int) error {
	if concurrency <= 0 {
		concurrency = DefaultWarmConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, pv := range pvs {
		g.Go(func() error {
			if _, err := c.HasSolverResult(gctx, pv, env); err != nil {
				return fmt.Errorf("failed to warm solver result of %s: %w", pv, err)
			}
			if _, err := c.Observations(gctx, pv); err != nil {
				return fmt.Errorf("failed to warm observations of %s: %w", pv, err)
			}
			return nil
		})
	}

	return g.Wait()
}
