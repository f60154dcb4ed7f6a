package graph

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is a YAML document describing knowledge graph content, used to
// populate a local database.
type Seed struct {
	Indexes       []SeedIndex    `yaml:"indexes"`
	SolverResults []SolverResult `yaml:"solver_results"`
	Observations  []Observation  `yaml:"observations"`
}

// SeedIndex is one package index entry of a Seed.
type SeedIndex struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// LoadSeed reads a seed document from path.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed %s: %w", path, err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	return &seed, nil
}

// Import writes the seed content in a single transaction.
func (g *SQLiteGraph) Import(ctx context.Context, seed *Seed) error {
	if g.db == nil {
		return ErrNotInitialized
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, idx := range seed.Indexes {
		if err := addIndex(ctx, tx, idx.URL, idx.Enabled); err != nil {
			return err
		}
	}
	for _, r := range seed.SolverResults {
		if err := addSolverResult(ctx, tx, r); err != nil {
			return err
		}
	}
	for i := range seed.Observations {
		if err := addObservation(ctx, tx, &seed.Observations[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	g.logger.Info().
		Int("indexes", len(seed.Indexes)).
		Int("solver_results", len(seed.SolverResults)).
		Int("observations", len(seed.Observations)).
		Msg("Knowledge graph seeded")
	return nil
}
