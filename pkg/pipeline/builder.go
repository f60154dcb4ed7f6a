package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/telemetry"
)

// BuildRequest carries the inputs shared by adviser and dependency monkey
// builds.
type BuildRequest struct {
	Project      *project.Project
	Graph        graph.KnowledgeGraph
	LibraryUsage project.LibraryUsage
}

// Builder assembles pipelines from a catalogue.
type Builder struct {
	catalogue *Catalogue
	opts      []Option
	blocked   map[string]struct{}
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
}

// NewBuilder creates a builder. Unless WithBlockedUnits is given, the
// block-list is read from BlockedUnitsEnv.
func NewBuilder(catalogue *Catalogue, opts ...Option) *Builder {
	o := newOptions(opts)
	if !o.blockedSet {
		WithBlockedUnits(BlockedUnitsFromEnv()...)(o)
	}
	return &Builder{
		catalogue: catalogue,
		opts:      opts,
		blocked:   o.blockedUnits,
		logger:    o.logger.With().Str("component", "builder").Logger(),
		metrics:   o.metrics,
		tracer:    o.tracer,
	}
}

// Catalogue returns the catalogue the builder draws units from.
func (b *Builder) Catalogue() *Catalogue {
	return b.catalogue
}

// IsBlocked reports whether a unit name is on the block-list.
func (b *Builder) IsBlocked(name string) bool {
	_, ok := b.blocked[name]
	return ok
}

// AdviserConfig builds the pipeline of an adviser run.
func (b *Builder) AdviserConfig(ctx context.Context, req BuildRequest, rt RecommendationType) (*Config, error) {
	return b.build(ctx, "adviser", BuilderOptions{
		Project:            req.Project,
		Graph:              req.Graph,
		LibraryUsage:       req.LibraryUsage,
		RecommendationType: rt,
	})
}

// DependencyMonkeyConfig builds the pipeline of a dependency monkey run.
func (b *Builder) DependencyMonkeyConfig(ctx context.Context, req BuildRequest, dt DecisionType) (*Config, error) {
	return b.build(ctx, "dependency_monkey", BuilderOptions{
		Project:      req.Project,
		Graph:        req.Graph,
		LibraryUsage: req.LibraryUsage,
		DecisionType: dt,
	})
}

// build polls every non-blocked definition until a whole round includes
// nothing. Each round includes at most one new instance per definition.
func (b *Builder) build(ctx context.Context, mode string, opts BuilderOptions) (*Config, error) {
	start := time.Now()
	ctx, span := b.tracer.StartBuildSpan(ctx, mode)
	defer span.End()

	rounds := 0
	fail := func(err error) (*Config, error) {
		b.metrics.RecordBuild(mode, "failed", rounds, time.Since(start))
		var e *Error
		if errors.As(err, &e) {
			b.metrics.RecordError(string(e.Class))
		}
		telemetry.RecordError(span, err)
		b.logger.Error().Err(err).Str("mode", mode).Msg("Pipeline build failed")
		return nil, err
	}

	bc, err := NewBuilderContext(opts)
	if err != nil {
		return fail(err)
	}

	definitions := b.catalogue.Definitions()
	for {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("pipeline build interrupted: %w", err))
		}
		rounds++

		changed := false
		for _, def := range definitions {
			if def.ShouldInclude == nil || b.IsBlocked(def.Name) {
				continue
			}

			// Panics in ShouldInclude are bugs and propagate.
			configurations := def.ShouldInclude(bc)
			next := bc.IncludedCount(def.Name)
			if next >= len(configurations) {
				continue
			}

			u, err := b.catalogue.Instantiate(def, configurations[next])
			if err != nil {
				return fail(err)
			}
			if err := bc.AddUnit(u); err != nil {
				return fail(err)
			}

			b.logger.Debug().
				Str("unit", def.Name).
				Str("kind", string(def.Kind)).
				Interface("configuration", u.Configuration()).
				Int("round", rounds).
				Msg("Including unit")
			b.metrics.RecordUnitIncluded(string(def.Kind))
			changed = true
		}

		if !changed {
			break
		}
	}

	cfg, err := NewConfig(bc.order, b.opts...)
	if err != nil {
		return fail(err)
	}

	b.metrics.RecordBuild(mode, "succeeded", rounds, time.Since(start))
	telemetry.RecordSuccess(span)
	b.logger.Info().
		Str("mode", mode).
		Int("rounds", rounds).
		Int("units", cfg.Len()).
		Dur("duration", time.Since(start)).
		Msg("Pipeline built")

	return cfg, nil
}

// FromDocument instantiates the units a document lists, in order. Names are
// resolved against the catalogue within their section's kind. The
// block-list does not apply to explicit documents.
func (b *Builder) FromDocument(doc Document) (*Config, error) {
	var units []Unit
	for _, kind := range Kinds {
		for _, entry := range doc.Entries(kind) {
			def, ok := b.catalogue.Lookup(entry.Name)
			if !ok || def.Kind != kind {
				err := NewUnknownUnitError(entry.Name).WithKind(kind)
				b.metrics.RecordError(string(err.Class))
				return nil, err
			}

			u, err := b.catalogue.Instantiate(def, entry.Configuration)
			if err != nil {
				b.metrics.RecordError(string(ErrorClassConfiguration))
				return nil, err
			}
			units = append(units, u)
		}
	}

	return NewConfig(units, b.opts...)
}

// Load builds a pipeline from a document given either as a path to an
// existing file or as inline YAML/JSON text.
func (b *Builder) Load(ctx context.Context, pathOrText string) (*Config, error) {
	data := []byte(pathOrText)
	if info, err := os.Stat(pathOrText); err == nil && !info.IsDir() {
		data, err = os.ReadFile(pathOrText)
		if err != nil {
			return nil, fmt.Errorf("failed to read pipeline document %s: %w", pathOrText, err)
		}
		b.logger.Debug().Str("path", pathOrText).Msg("Loading pipeline document from file")
	}

	doc, err := ParseDocument(ctx, b.catalogue.Schemas(), data)
	if err != nil {
		return nil, err
	}
	return b.FromDocument(doc)
}
