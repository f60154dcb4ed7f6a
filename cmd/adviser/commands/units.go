package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type unitInfo struct {
	Name        string         `json:"name" yaml:"name"`
	Kind        string         `json:"kind" yaml:"kind"`
	Description string         `json:"description" yaml:"description"`
	Defaults    map[string]any `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

func newUnitsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "units",
		Short: "List the unit catalogue",
		Long: `List every unit the builder can include, in polling order, with its kind
and default configuration.`,
		Example: `  # Human-readable table
  adviser units

  # Machine-readable listing
  adviser units -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, _, err := newCatalogue(cmd.Context(), catalogueFlags{})
			if err != nil {
				return err
			}

			var infos []unitInfo
			for _, def := range cat.Definitions() {
				infos = append(infos, unitInfo{
					Name:        def.Name,
					Kind:        string(def.Kind),
					Description: def.Description,
					Defaults:    def.Defaults.Clone(),
				})
			}

			if output != "" {
				return writeOutput(cmd.OutOrStdout(), output, infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.Kind, info.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format (json, yaml); a table when empty")
	return cmd
}
