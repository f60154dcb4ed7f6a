package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thoth-station/adviser/pkg/policy"
)

func newValidateCommand() *cobra.Command {
	var (
		flags   catalogueFlags
		bundles []string
	)

	cmd := &cobra.Command{
		Use:   "validate [pipeline...]",
		Short: "Validate pipeline documents and policies",
		Long: `Validate checks pipeline documents against the unit catalogue and compiles
policies, without running anything.

Every document is parsed, validated against the pipeline schema and
instantiated unit by unit, so unknown units and invalid configurations are
reported the same way a run would report them.`,
		Example: `  # Validate a pipeline document
  adviser validate pipeline.yaml

  # Validate policies only
  adviser validate --policy ./policies --bundle bundle.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, engine, err := newCatalogue(ctx, flags)
			if err != nil {
				return err
			}
			for _, path := range bundles {
				if err := loadBundle(cmd, engine, path); err != nil {
					return err
				}
			}

			builder := newBuilder(cat)
			failed := 0
			for _, path := range args {
				cfg, err := builder.Load(ctx, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d units)\n", path, cfg.Len())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "policies: ok (%d loaded)\n", len(engine.List()))
			if failed > 0 {
				return fmt.Errorf("%d of %d pipeline documents are invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flags.policyPaths, "policy", nil, "Rego or JSON policy files or directories")
	cmd.Flags().StringSliceVar(&bundles, "bundle", nil, "policy bundles (YAML or JSON)")

	return cmd
}

func loadBundle(cmd *cobra.Command, engine *policy.Engine, path string) error {
	bundle, err := policy.NewLoader(log.Logger).LoadBundle(path)
	if err != nil {
		return err
	}
	for _, p := range bundle.Policies {
		if err := engine.AddPolicy(cmd.Context(), p); err != nil {
			return fmt.Errorf("bundle %s: %w", bundle.Name, err)
		}
	}
	log.Debug().Str("bundle", bundle.Name).Str("version", bundle.Version).Int("policies", len(bundle.Policies)).Msg("Bundle loaded")
	return nil
}

