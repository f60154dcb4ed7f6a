package units

import (
	"iter"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

// CutPrereleasesSieve drops pre-release versions, either of every package or
// of the configured package_name only.
type CutPrereleasesSieve struct {
	pipeline.Base
}

func cutPrereleasesSieveDefinition() pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindSieve,
		Description: "Drops pre-release versions",
		Defaults:    pipeline.Configuration{"package_name": nil},
		Schema:      `package_name: string | null`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if !bc.IsAdviserPipeline() || bc.RecommendationType() == pipeline.RecommendationTesting {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &CutPrereleasesSieve{} },
	}
}

// Run implements pipeline.Sieve.
func (s *CutPrereleasesSieve) Run(rc *pipeline.RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion] {
	only := stringValue(s.Configuration(), "package_name")
	logger := rc.Logger()
	return func(yield func(stack.PackageVersion) bool) {
		for pv := range candidates {
			if (only == "" || pv.Name == only) && pv.IsPrerelease() {
				logger.Debug().Str("package", pv.String()).Msg("Removing pre-release")
				continue
			}
			if !yield(pv) {
				return
			}
		}
	}
}

// SolvedSieve drops candidates the knowledge graph has no successful solver
// result for in the runtime environment. Candidates whose lookup fails are
// dropped as well.
type SolvedSieve struct {
	pipeline.Base
	logger zerolog.Logger
}

func solvedSieveDefinition(logger zerolog.Logger) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindSieve,
		Description: "Drops candidates without a solver result",
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if bc.Graph() == nil {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &SolvedSieve{logger: logger} },
	}
}

// Run implements pipeline.Sieve.
func (s *SolvedSieve) Run(rc *pipeline.RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion] {
	kg := rc.Graph()
	if kg == nil {
		return candidates
	}
	ctx := rc.Context()
	env := environment(rc)

	return func(yield func(stack.PackageVersion) bool) {
		for pv := range candidates {
			solved, err := kg.HasSolverResult(ctx, pv, env)
			if err != nil {
				s.logger.Warn().Err(err).Str("package", pv.String()).Msg("Solver result lookup failed, removing candidate")
				continue
			}
			if !solved {
				s.logger.Debug().Str("package", pv.String()).Msg("Removing unsolved candidate")
				continue
			}
			if !yield(pv) {
				return
			}
		}
	}
}

// IndexEnabledSieve drops candidates served by a package index the
// knowledge graph does not list as enabled.
type IndexEnabledSieve struct {
	pipeline.Base
	logger zerolog.Logger
}

func indexEnabledSieveDefinition(logger zerolog.Logger) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindSieve,
		Description: "Drops candidates from disabled package indexes",
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if bc.Graph() == nil {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &IndexEnabledSieve{logger: logger} },
	}
}

// Run implements pipeline.Sieve.
func (s *IndexEnabledSieve) Run(rc *pipeline.RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion] {
	kg := rc.Graph()
	if kg == nil {
		return candidates
	}
	ctx := rc.Context()

	return func(yield func(stack.PackageVersion) bool) {
		for pv := range candidates {
			enabled, err := kg.IsIndexEnabled(ctx, pv.Index)
			if err != nil {
				s.logger.Warn().Err(err).Str("index", pv.Index).Msg("Index lookup failed, removing candidate")
				continue
			}
			if !enabled {
				s.logger.Debug().Str("package", pv.String()).Msg("Removing candidate from disabled index")
				continue
			}
			if !yield(pv) {
				return
			}
		}
	}
}
