package units

import (
	"iter"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/policy"
	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
)

const pypi = "https://pypi.org/simple"

var nopLogger = zerolog.New(nil).Level(zerolog.Disabled)

func newTestCatalogue(t *testing.T, deps Dependencies) *pipeline.Catalogue {
	t.Helper()
	deps.Logger = nopLogger
	cat, err := NewCatalogue(nil, deps)
	if err != nil {
		t.Fatalf("NewCatalogue() error = %v", err)
	}
	return cat
}

// instantiate creates a configured unit of the shipped catalogue.
func instantiate[U pipeline.Unit](t *testing.T, cat *pipeline.Catalogue, name string, cfg pipeline.Configuration) U {
	t.Helper()
	def, ok := cat.Lookup(name)
	if !ok {
		t.Fatalf("unit %s not registered", name)
	}
	u, err := cat.Instantiate(def, cfg)
	if err != nil {
		t.Fatalf("Instantiate(%s) error = %v", name, err)
	}
	typed, ok := u.(U)
	if !ok {
		t.Fatalf("unit %s is %T", name, u)
	}
	return typed
}

func newPolicyEngine(t *testing.T) *policy.Engine {
	t.Helper()
	eng, err := policy.NewEngine(nopLogger)
	if err != nil {
		t.Fatalf("policy.NewEngine() error = %v", err)
	}
	return eng
}

func openGraph(t *testing.T) *graph.SQLiteGraph {
	t.Helper()
	g, err := graph.Open(t.Context(), graph.Config{Path: ":memory:", Logger: nopLogger})
	if err != nil {
		t.Fatalf("graph.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func testProject() *project.Project {
	return &project.Project{
		Name:         "app",
		Requirements: []string{"flask", "tensorflow"},
		RuntimeEnvironment: project.RuntimeEnvironment{
			OperatingSystem: project.OperatingSystem{Name: "rhel", Version: "9.2"},
			PythonVersion:   "3.11",
		},
	}
}

type runOptions struct {
	project *project.Project
	graph   graph.KnowledgeGraph
	rt      pipeline.RecommendationType
	dt      pipeline.DecisionType
}

func newRunContext(t *testing.T, o runOptions) *pipeline.RunContext {
	t.Helper()
	if o.rt == "" && o.dt == "" {
		o.rt = pipeline.RecommendationStable
	}
	rc := pipeline.NewRunContext(pipeline.RunOptions{
		Context:            t.Context(),
		Project:            o.project,
		Graph:              o.graph,
		RecommendationType: o.rt,
		DecisionType:       o.dt,
		Logger:             nopLogger,
	})
	t.Cleanup(rc.Release)
	return rc
}

func pkg(name, version string) stack.PackageVersion {
	return stack.PackageVersion{Name: name, Version: version, Index: pypi}
}

func stateOf(pkgs ...stack.PackageVersion) *stack.State {
	s := stack.NewState()
	for _, p := range pkgs {
		s.AddResolved(p)
	}
	return s
}

func collect(seq iter.Seq[stack.PackageVersion]) []string {
	var out []string
	for pv := range seq {
		out = append(out, pv.Name+"=="+pv.Version)
	}
	return out
}

func unitNames[U pipeline.Unit](units []U) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name())
	}
	return out
}

func hasJustification(js []stack.Justification, t stack.JustificationType) bool {
	return slices.ContainsFunc(js, func(j stack.Justification) bool { return j.Type == t })
}
