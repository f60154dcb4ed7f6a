package units

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

func solved(pv stack.PackageVersion, env graph.Environment) graph.SolverResult {
	return graph.SolverResult{Package: pv, Environment: env, Solved: true}
}

func TestCutPrereleasesSieve(t *testing.T) {
	cat := newTestCatalogue(t, Dependencies{})
	candidates := []stack.PackageVersion{
		pkg("flask", "3.0.0"),
		pkg("flask", "3.1.0rc1"),
		pkg("numpy", "2.0.0b1"),
		pkg("numpy", "1.26.4"),
	}

	tests := []struct {
		name string
		cfg  pipeline.Configuration
		want []string
	}{
		{"every package", nil, []string{"flask==3.0.0", "numpy==1.26.4"}},
		{"one package", pipeline.Configuration{"package_name": "numpy"}, []string{"flask==3.0.0", "flask==3.1.0rc1", "numpy==1.26.4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sieve := instantiate[*CutPrereleasesSieve](t, cat, "CutPrereleasesSieve", tt.cfg)
			rc := newRunContext(t, runOptions{})
			if got := collect(sieve.Run(rc, slices.Values(candidates))); !slices.Equal(got, tt.want) {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCutPrereleasesSieve_Lazy(t *testing.T) {
	cat := newTestCatalogue(t, Dependencies{})
	sieve := instantiate[*CutPrereleasesSieve](t, cat, "CutPrereleasesSieve", nil)
	rc := newRunContext(t, runOptions{})

	pulled := 0
	source := func(yield func(stack.PackageVersion) bool) {
		for _, v := range []string{"1.0", "2.0", "3.0", "4.0"} {
			pulled++
			if !yield(pkg("six", v)) {
				return
			}
		}
	}

	for range sieve.Run(rc, source) {
		break
	}
	if pulled != 1 {
		t.Errorf("pulled %d candidates, want 1", pulled)
	}
}

func TestCutPrereleasesSieve_ShouldInclude(t *testing.T) {
	def := cutPrereleasesSieveDefinition()
	tests := []struct {
		opts pipeline.BuilderOptions
		want bool
	}{
		{pipeline.BuilderOptions{RecommendationType: pipeline.RecommendationStable}, true},
		{pipeline.BuilderOptions{RecommendationType: pipeline.RecommendationTesting}, false},
		{pipeline.BuilderOptions{DecisionType: pipeline.DecisionAll}, false},
	}
	for _, tt := range tests {
		bc, err := pipeline.NewBuilderContext(tt.opts)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(def.ShouldInclude(bc)) > 0; got != tt.want {
			t.Errorf("ShouldInclude(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestSolvedSieve(t *testing.T) {
	kg := openGraph(t)
	p := testProject()
	env := environmentOf(p.RuntimeEnvironment)

	if err := kg.AddSolverResult(t.Context(), solved(pkg("flask", "3.0.0"), env)); err != nil {
		t.Fatal(err)
	}
	failed := solved(pkg("flask", "2.0.0"), env)
	failed.Solved = false
	failed.Error = "no matching distribution"
	if err := kg.AddSolverResult(t.Context(), failed); err != nil {
		t.Fatal(err)
	}
	other := env
	other.PythonVersion = "3.8"
	if err := kg.AddSolverResult(t.Context(), solved(pkg("flask", "1.0.0"), other)); err != nil {
		t.Fatal(err)
	}

	cat := newTestCatalogue(t, Dependencies{})
	sieve := instantiate[*SolvedSieve](t, cat, "SolvedSieve", nil)
	rc := newRunContext(t, runOptions{project: p, graph: kg})

	candidates := []stack.PackageVersion{pkg("flask", "3.0.0"), pkg("flask", "2.0.0"), pkg("flask", "1.0.0"), pkg("flask", "0.1")}
	if got := collect(sieve.Run(rc, slices.Values(candidates))); !slices.Equal(got, []string{"flask==3.0.0"}) {
		t.Errorf("Run() = %v, want [flask==3.0.0]", got)
	}
}

func TestSolvedSieve_WithoutGraph(t *testing.T) {
	cat := newTestCatalogue(t, Dependencies{})
	sieve := instantiate[*SolvedSieve](t, cat, "SolvedSieve", nil)
	rc := newRunContext(t, runOptions{project: testProject()})

	candidates := []stack.PackageVersion{pkg("flask", "3.0.0")}
	if got := collect(sieve.Run(rc, slices.Values(candidates))); len(got) != 1 {
		t.Errorf("Run() = %v, want candidates passed through", got)
	}
}

type failingGraph struct{ graph.KnowledgeGraph }

var errGraph = errors.New("graph unavailable")

func (failingGraph) IsIndexEnabled(_ context.Context, _ string) (bool, error) {
	return false, errGraph
}

func TestIndexEnabledSieve(t *testing.T) {
	kg := openGraph(t)
	if err := kg.AddIndex(t.Context(), pypi, true); err != nil {
		t.Fatal(err)
	}
	if err := kg.AddIndex(t.Context(), "https://mirror.example.com/simple", false); err != nil {
		t.Fatal(err)
	}

	candidates := []stack.PackageVersion{
		pkg("six", "1.16.0"),
		{Name: "six", Version: "1.15.0", Index: "https://mirror.example.com/simple"},
		{Name: "six", Version: "1.14.0", Index: "https://unknown.example.com/simple"},
	}

	cat := newTestCatalogue(t, Dependencies{})
	sieve := instantiate[*IndexEnabledSieve](t, cat, "IndexEnabledSieve", nil)

	rc := newRunContext(t, runOptions{graph: kg})
	if got := collect(sieve.Run(rc, slices.Values(candidates))); !slices.Equal(got, []string{"six==1.16.0"}) {
		t.Errorf("Run() = %v, want [six==1.16.0]", got)
	}

	rc = newRunContext(t, runOptions{graph: failingGraph{kg}})
	if got := collect(sieve.Run(rc, slices.Values(candidates))); len(got) != 0 {
		t.Errorf("Run() with failing graph = %v, want none", got)
	}
}
