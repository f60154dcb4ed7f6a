package units

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/config"
	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/policy"
	"github.com/thoth-station/adviser/pkg/project"
)

// Dependencies are the shared services units are built with.
type Dependencies struct {
	// Policies backs PolicyStride. Without it the stride is never included
	// automatically and fails in PreRun.
	Policies *policy.Engine

	// Scripts evaluates ScriptedStride predicates; nil gets an evaluator
	// with the default timeout.
	Scripts *config.StarlarkEvaluator

	// Aliases maps a package name to the alias AliasPseudonym proposes for
	// it. Each entry registers one pseudonym instance.
	Aliases map[string]string

	Logger zerolog.Logger
}

// Definitions returns the shipped unit definitions in registration order.
func Definitions(deps Dependencies) []pipeline.Definition {
	if deps.Scripts == nil {
		deps.Scripts = config.NewStarlarkEvaluator(0)
	}
	logger := deps.Logger.With().Str("component", "units").Logger()

	return []pipeline.Definition{
		pythonVersionBootDefinition(),
		osNormalizationBootDefinition(),
		aliasPseudonymDefinition(deps.Aliases),
		cutPrereleasesSieveDefinition(),
		indexEnabledSieveDefinition(logger),
		solvedSieveDefinition(logger),
		observationStepDefinition(logger),
		scriptedStrideDefinition(deps.Scripts),
		policyStrideDefinition(deps.Policies),
		stackInfoWrapDefinition(),
	}
}

// Register adds the shipped units to cat.
func Register(cat *pipeline.Catalogue, deps Dependencies) error {
	if err := cat.Register(Definitions(deps)...); err != nil {
		return fmt.Errorf("failed to register units: %w", err)
	}
	return nil
}

// NewCatalogue returns a catalogue holding the shipped units.
func NewCatalogue(schemas *config.SchemaRegistry, deps Dependencies) (*pipeline.Catalogue, error) {
	cat := pipeline.NewCatalogue(schemas)
	if err := Register(cat, deps); err != nil {
		return nil, err
	}
	return cat, nil
}

func once() []pipeline.Configuration {
	return []pipeline.Configuration{{}}
}

func stringValue(cfg pipeline.Configuration, key string) string {
	s, _ := cfg[key].(string)
	return s
}

func boolValue(cfg pipeline.Configuration, key string) bool {
	b, _ := cfg[key].(bool)
	return b
}

// floatValue reads a number decoded from YAML or JSON.
func floatValue(cfg pipeline.Configuration, key string, fallback float64) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

func stringsValue(cfg pipeline.Configuration, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func environment(rc *pipeline.RunContext) graph.Environment {
	p := rc.Project()
	if p == nil {
		return graph.Environment{}
	}
	return environmentOf(p.RuntimeEnvironment)
}

func environmentOf(env project.RuntimeEnvironment) graph.Environment {
	return graph.Environment{
		OSName:        env.OperatingSystem.Name,
		OSVersion:     env.OperatingSystem.Version,
		PythonVersion: env.PythonVersion,
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

func runtimeEnvironment(rc *pipeline.RunContext) *project.RuntimeEnvironment {
	p := rc.Project()
	if p == nil {
		return nil
	}
	env := p.RuntimeEnvironment
	return &env
}
