package graph_test

import (
	"context"
	"fmt"
	"log"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/stack"
)

// ExampleOpen demonstrates opening an in-memory knowledge graph and querying
// a solver result through the cache.
func ExampleOpen() {
	ctx := context.Background()

	g, err := graph.Open(ctx, graph.Config{Path: ":memory:"})
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	pv := stack.PackageVersion{Name: "flask", Version: "3.0.0", Index: "https://pypi.org/simple"}
	err = g.AddSolverResult(ctx, graph.SolverResult{
		Package:     pv,
		Environment: graph.Environment{PythonVersion: "3.11"},
		Solved:      true,
	})
	if err != nil {
		log.Fatal(err)
	}

	cached, err := graph.NewCachedGraph(g, 0)
	if err != nil {
		log.Fatal(err)
	}

	solved, err := cached.HasSolverResult(ctx, pv, graph.Environment{PythonVersion: "3.11"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("solved:", solved)
	// Output: solved: true
}
