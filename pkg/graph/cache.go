package graph

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thoth-station/adviser/pkg/stack"
)

// DefaultCacheSize is the per-query entry limit of NewCachedGraph.
const DefaultCacheSize = 4096

// CacheStats counts cache hits and misses across all queries.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// CachedGraph memoizes the answers of an underlying KnowledgeGraph. Errors
// are not cached. The knowledge graph is read-only during a run, so entries
// never expire; Purge drops them all.
type CachedGraph struct {
	next KnowledgeGraph

	solved       *lru.Cache[string, bool]
	observations *lru.Cache[string, []Observation]
	indexes      *lru.Cache[string, bool]
	versions     *lru.Cache[string, []stack.PackageVersion]

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ KnowledgeGraph = (*CachedGraph)(nil)

// NewCachedGraph wraps next with caches holding at most size entries per
// query; size <= 0 means DefaultCacheSize.
func NewCachedGraph(next KnowledgeGraph, size int) (*CachedGraph, error) {
	if next == nil {
		return nil, fmt.Errorf("cached graph requires an underlying knowledge graph")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}

	solved, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create solver cache: %w", err)
	}
	observations, err := lru.New[string, []Observation](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create observation cache: %w", err)
	}
	indexes, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create index cache: %w", err)
	}
	versions, err := lru.New[string, []stack.PackageVersion](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create version cache: %w", err)
	}

	return &CachedGraph{
		next:         next,
		solved:       solved,
		observations: observations,
		indexes:      indexes,
		versions:     versions,
	}, nil
}

// Unwrap returns the underlying knowledge graph.
func (c *CachedGraph) Unwrap() KnowledgeGraph { return c.next }

// HasSolverResult implements KnowledgeGraph.
func (c *CachedGraph) HasSolverResult(ctx context.Context, pv stack.PackageVersion, env Environment) (bool, error) {
	key := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		normalizeName(pv.Name), pv.Version, pv.Index, env.OSName, env.OSVersion, env.PythonVersion)
	if v, ok := c.solved.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err := c.next.HasSolverResult(ctx, pv, env)
	if err != nil {
		return false, err
	}
	c.solved.Add(key, v)
	return v, nil
}

// Observations implements KnowledgeGraph. The returned slice is a copy.
func (c *CachedGraph) Observations(ctx context.Context, pv stack.PackageVersion) ([]Observation, error) {
	key := normalizeName(pv.Name) + "\x00" + pv.Version + "\x00" + pv.Index
	if v, ok := c.observations.Get(key); ok {
		c.hits.Add(1)
		return slices.Clone(v), nil
	}
	c.misses.Add(1)

	v, err := c.next.Observations(ctx, pv)
	if err != nil {
		return nil, err
	}
	c.observations.Add(key, v)
	return slices.Clone(v), nil
}

// IsIndexEnabled implements KnowledgeGraph.
func (c *CachedGraph) IsIndexEnabled(ctx context.Context, url string) (bool, error) {
	if v, ok := c.indexes.Get(url); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err := c.next.IsIndexEnabled(ctx, url)
	if err != nil {
		return false, err
	}
	c.indexes.Add(url, v)
	return v, nil
}

// PackageVersions implements KnowledgeGraph. The returned slice is a copy.
func (c *CachedGraph) PackageVersions(ctx context.Context, name string) ([]stack.PackageVersion, error) {
	key := normalizeName(name)
	if v, ok := c.versions.Get(key); ok {
		c.hits.Add(1)
		return slices.Clone(v), nil
	}
	c.misses.Add(1)

	v, err := c.next.PackageVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	c.versions.Add(key, v)
	return slices.Clone(v), nil
}

// Stats returns the hit and miss counters.
func (c *CachedGraph) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Purge drops every cached entry.
func (c *CachedGraph) Purge() {
	c.solved.Purge()
	c.observations.Purge()
	c.indexes.Purge()
	c.versions.Purge()
}
