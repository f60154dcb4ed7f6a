package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/policy"
	"github.com/thoth-station/adviser/pkg/units"
)

// catalogueFlags are the flags shared by commands that need the unit
// catalogue.
type catalogueFlags struct {
	policyPaths []string
	aliases     map[string]string
}

// newCatalogue creates the shipped unit catalogue. Policies from
// policyPaths are added to the built-in ones.
func newCatalogue(ctx context.Context, flags catalogueFlags) (*pipeline.Catalogue, *policy.Engine, error) {
	engine, err := policy.NewEngine(log.Logger)
	if err != nil {
		return nil, nil, err
	}
	if len(flags.policyPaths) > 0 {
		if err := engine.LoadPolicies(ctx, flags.policyPaths); err != nil {
			return nil, nil, err
		}
	}

	cat, err := units.NewCatalogue(nil, units.Dependencies{
		Policies: engine,
		Aliases:  flags.aliases,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return cat, engine, nil
}

func newBuilder(cat *pipeline.Catalogue) *pipeline.Builder {
	opts := []pipeline.Option{pipeline.WithLogger(log.Logger)}
	if tel != nil {
		opts = append(opts, pipeline.WithMetrics(tel.Metrics), pipeline.WithTracer(tel.Tracer))
	}
	return pipeline.NewBuilder(cat, opts...)
}

// openGraph opens a SQLite knowledge graph behind a read-through cache. An
// empty path returns a nil graph.
func openGraph(ctx context.Context, path string) (*graph.CachedGraph, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}

	db, err := graph.Open(ctx, graph.Config{Path: path, Logger: log.Logger})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open knowledge graph: %w", err)
	}
	cached, err := graph.NewCachedGraph(db, 0)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		stats := cached.Stats()
		log.Debug().Uint64("hits", stats.Hits).Uint64("misses", stats.Misses).Msg("Knowledge graph cache statistics")
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close knowledge graph")
		}
	}
	return cached, closeFn, nil
}

// writeOutput encodes v as JSON or YAML. Values without a YAML form are
// converted through their JSON encoding.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		if _, ok := v.(yaml.Marshaler); !ok {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			var generic any
			if err := json.Unmarshal(data, &generic); err != nil {
				return err
			}
			v = generic
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q (must be json or yaml)", format)
	}
}
