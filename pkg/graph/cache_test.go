package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/thoth-station/adviser/pkg/stack"
)

type countingGraph struct {
	calls int
	err   error
}

func (g *countingGraph) HasSolverResult(context.Context, stack.PackageVersion, Environment) (bool, error) {
	g.calls++
	return true, g.err
}

func (g *countingGraph) Observations(_ context.Context, pv stack.PackageVersion) ([]Observation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []Observation{{Package: pv, Kind: ObservationBuild, Score: 1}}, nil
}

func (g *countingGraph) IsIndexEnabled(context.Context, string) (bool, error) {
	g.calls++
	return true, g.err
}

func (g *countingGraph) PackageVersions(_ context.Context, name string) ([]stack.PackageVersion, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return []stack.PackageVersion{{Name: name, Version: "1.0.0"}}, nil
}

func TestNewCachedGraph_RequiresGraph(t *testing.T) {
	if _, err := NewCachedGraph(nil, 10); err == nil {
		t.Fatal("expected error for nil graph")
	}
}

func TestCachedGraph_Memoizes(t *testing.T) {
	next := &countingGraph{}
	c, err := NewCachedGraph(next, 0)
	if err != nil {
		t.Fatalf("NewCachedGraph: %v", err)
	}
	ctx := context.Background()
	pv := stack.PackageVersion{Name: "Flask", Version: "3.0.0"}

	for range 3 {
		if _, err := c.HasSolverResult(ctx, pv, Environment{PythonVersion: "3.11"}); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Observations(ctx, pv); err != nil {
			t.Fatal(err)
		}
		if _, err := c.IsIndexEnabled(ctx, pypi); err != nil {
			t.Fatal(err)
		}
		if _, err := c.PackageVersions(ctx, "flask"); err != nil {
			t.Fatal(err)
		}
	}

	if next.calls != 4 {
		t.Errorf("underlying graph called %d times, want 4", next.calls)
	}
	if stats := c.Stats(); stats.Hits != 8 || stats.Misses != 4 {
		t.Errorf("Stats() = %+v, want 8 hits and 4 misses", stats)
	}

	// A different environment is a different key.
	if _, err := c.HasSolverResult(ctx, pv, Environment{PythonVersion: "3.12"}); err != nil {
		t.Fatal(err)
	}
	if next.calls != 5 {
		t.Errorf("underlying graph called %d times, want 5", next.calls)
	}

	c.Purge()
	if _, err := c.IsIndexEnabled(ctx, pypi); err != nil {
		t.Fatal(err)
	}
	if next.calls != 6 {
		t.Errorf("purge did not drop entries, calls = %d", next.calls)
	}
}

func TestCachedGraph_ReturnsCopies(t *testing.T) {
	c, err := NewCachedGraph(&countingGraph{}, 8)
	if err != nil {
		t.Fatalf("NewCachedGraph: %v", err)
	}
	ctx := context.Background()

	versions, _ := c.PackageVersions(ctx, "six")
	versions[0].Version = "mutated"

	again, _ := c.PackageVersions(ctx, "six")
	if again[0].Version != "1.0.0" {
		t.Errorf("cached entry was mutated: %v", again)
	}
}

func TestCachedGraph_DoesNotCacheErrors(t *testing.T) {
	next := &countingGraph{err: errors.New("unavailable")}
	c, err := NewCachedGraph(next, 8)
	if err != nil {
		t.Fatalf("NewCachedGraph: %v", err)
	}
	ctx := context.Background()

	for range 2 {
		if _, err := c.Observations(ctx, stack.PackageVersion{Name: "a", Version: "1"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if next.calls != 2 {
		t.Errorf("errors should not be cached, calls = %d", next.calls)
	}
}

func TestCachedGraph_OverSQLite(t *testing.T) {
	g := setupTestGraph(t)
	ctx := context.Background()
	if err := g.AddIndex(ctx, pypi, true); err != nil {
		t.Fatal(err)
	}

	c, err := NewCachedGraph(g, 16)
	if err != nil {
		t.Fatalf("NewCachedGraph: %v", err)
	}
	if c.Unwrap() != KnowledgeGraph(g) {
		t.Error("Unwrap should return the underlying graph")
	}
	ok, err := c.IsIndexEnabled(ctx, pypi)
	if err != nil || !ok {
		t.Errorf("IsIndexEnabled() = %v, %v", ok, err)
	}
}
