package units

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

// ObservationStep scores a decision with the knowledge-graph observations
// recorded for the package version. The summed score is multiplied by
// multiplier and clamped to [-1, 1]. An empty kinds list counts every
// observation.
type ObservationStep struct {
	pipeline.Base
	logger zerolog.Logger
}

func observationStepDefinition(logger zerolog.Logger) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindStep,
		Description: "Scores decisions from knowledge-graph observations",
		Defaults:    pipeline.Configuration{"multiplier": 1.0, "kinds": []any{}},
		Schema: `multiplier: number & >=0 & <=10
kinds: [...("performance" | "security" | "build" | "runtime")]`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if bc.Graph() == nil || !bc.IsAdviserPipeline() {
				return nil
			}
			switch bc.RecommendationType() {
			case pipeline.RecommendationPerformance:
				return []pipeline.Configuration{{"kinds": []any{string(graph.ObservationPerformance)}}}
			case pipeline.RecommendationSecurity:
				return []pipeline.Configuration{{"kinds": []any{string(graph.ObservationSecurity)}}}
			default:
				return once()
			}
		},
		New: func() pipeline.Unit { return &ObservationStep{logger: logger} },
	}
}

// Run implements pipeline.Step.
func (s *ObservationStep) Run(rc *pipeline.RunContext, _ *stack.State, pv stack.PackageVersion) pipeline.Result {
	kg := rc.Graph()
	if kg == nil {
		return pipeline.Accept()
	}

	observations, err := kg.Observations(rc.Context(), pv)
	if err != nil {
		s.logger.Warn().Err(err).Str("package", pv.String()).Msg("Observation lookup failed")
		return pipeline.Accept()
	}

	cfg := s.Configuration()
	kinds := stringsValue(cfg, "kinds")

	var (
		score         float64
		matched       bool
		justification []stack.Justification
	)
	for _, o := range observations {
		if len(kinds) > 0 && !slices.Contains(kinds, string(o.Kind)) {
			continue
		}
		matched = true
		score += o.Score

		t := stack.JustificationInfo
		if o.Score < 0 {
			t = stack.JustificationWarning
		}
		justification = append(justification, stack.Justification{
			Type:    t,
			Message: o.Message,
			Link:    o.Link,
			Package: pv.Name,
		})
	}
	if !matched {
		return pipeline.Accept()
	}

	score *= floatValue(cfg, "multiplier", 1)
	return pipeline.AcceptScore(max(-1, min(1, score)), justification...)
}
