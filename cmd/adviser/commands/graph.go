package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thoth-station/adviser/pkg/graph"
)

func newGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Manage the local knowledge graph",
	}
	cmd.AddCommand(newGraphImportCommand())
	return cmd
}

func newGraphImportCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "import <seed.yaml>...",
		Short: "Import seed documents into a knowledge graph database",
		Long: `Import creates the knowledge graph database when needed, applies its
migrations and writes the indexes, solver results and observations listed in
each seed document. Every seed is imported in its own transaction.`,
		Example: `  adviser graph import --graph kg.db seed.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := graph.Open(ctx, graph.Config{Path: path, Logger: log.Logger})
			if err != nil {
				return fmt.Errorf("failed to open knowledge graph: %w", err)
			}
			defer db.Close()

			for _, seedPath := range args {
				seed, err := graph.LoadSeed(seedPath)
				if err != nil {
					return err
				}
				if err := db.Import(ctx, seed); err != nil {
					return fmt.Errorf("failed to import %s: %w", seedPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d indexes, %d solver results, %d observations\n",
					seedPath, len(seed.Indexes), len(seed.SolverResults), len(seed.Observations))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "graph", "", "SQLite knowledge graph database")
	_ = cmd.MarkFlagRequired("graph")

	return cmd
}
