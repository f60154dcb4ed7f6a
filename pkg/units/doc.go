// Package units ships a small catalogue of generic pipeline units.
//
// Boots prepare the project before resolution (PythonVersionBoot,
// OSNormalizationBoot). Sieves drop candidates (CutPrereleasesSieve,
// IndexEnabledSieve, SolvedSieve). ObservationStep scores decisions from
// knowledge-graph observations. ScriptedStride and PolicyStride accept or
// reject whole states with Starlark predicates and Rego policies.
// StackInfoWrap annotates accepted states and AliasPseudonym proposes
// configured aliases, one instance per alias pair.
//
//	cat, err := units.NewCatalogue(nil, units.Dependencies{
//	    Policies: engine,
//	    Aliases:  map[string]string{"tensorflow": "intel-tensorflow"},
//	    Logger:   logger,
//	})
//	builder := pipeline.NewBuilder(cat, pipeline.WithLogger(logger))
//	cfg, err := builder.AdviserConfig(ctx, pipeline.BuildRequest{Project: p, Graph: kg}, pipeline.RecommendationStable)
package units
