// Package pipeline assembles and drives the unit pipeline of an adviser or
// dependency monkey run.
//
// # Overview
//
// A pipeline is made of units, each playing one of six roles (Kind):
//
//   - Boot: runs once per resolution; may reject the whole run
//   - Pseudonym: proposes alias candidates for one package
//   - Sieve: filters the lazy stream of candidate package versions
//   - Step: scores one resolution decision
//   - Stride: accepts or rejects a fully assembled state
//   - Wrap: enriches an accepted final state
//
// Every unit embeds Base and implements the Run method of its kind. Unit
// types are described to the builder by a Definition registered in a
// Catalogue, with default configuration, an optional CUE schema and a
// ShouldInclude predicate.
//
// # Building
//
// Builder.AdviserConfig and Builder.DependencyMonkeyConfig poll every
// definition against a BuilderContext until a whole round adds nothing.
// Predicates may depend on units included earlier, so a unit that is not
// eligible in one round can be picked up in a later one:
//
//	cat := pipeline.NewCatalogue(nil)
//	cat.MustRegister(definitions...)
//
//	b := pipeline.NewBuilder(cat, pipeline.WithLogger(logger))
//	cfg, err := b.AdviserConfig(ctx, pipeline.BuildRequest{Project: proj}, pipeline.RecommendationStable)
//
// Units named in THOTH_ADVISER_BLOCKED_UNITS are never included by the
// fixed-point loop. Pipelines can also be loaded from a YAML or JSON
// document with Builder.Load, and serialized back with Config.Document.
//
// # Running
//
// Config.Run does not walk the dependency graph; the caller creates a
// RunContext and passes a ResolveFunc driving the resolver:
//
//	rc := pipeline.NewRunContext(pipeline.RunOptions{Project: proj, RecommendationType: pipeline.RecommendationStable})
//	err := cfg.Run(rc, resolve)
//
// Lifecycle hooks are broadcast in forward order (pre_run) and reverse
// order (post_run, post_run_report). The first failing hook aborts its
// broadcast with a unit Error. The RunContext is released when Run returns;
// reading it afterwards panics with ErrContextReleased.
//
// # Errors
//
// Build and load failures are *Error values classified as configuration,
// unknown_unit, unit or internal. They carry the offending unit name and
// configuration so a pipeline document can be fixed without reading code.
package pipeline
