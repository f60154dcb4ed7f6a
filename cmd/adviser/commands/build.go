package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/report"
)

const (
	modeAdviser          = "adviser"
	modeDependencyMonkey = "dependency-monkey"
)

type buildOptions struct {
	catalogueFlags

	mode               string
	projectPath        string
	graphPath          string
	pipelinePath       string
	recommendationType string
	decisionType       string
	evaluate           bool
	count              int
	limit              int
	output             string
}

func newBuildCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a pipeline for a project",
		Long: `Build assembles the pipeline for a project, either from the unit catalogue
or from an explicit pipeline document, and prints its document.

With --evaluate the pipeline is also run over the locked requirements of the
project and the resulting report is printed instead.`,
		Example: `  # Print the adviser pipeline for a project
  adviser build --project project.yaml

  # Use a knowledge graph and extra policies, then score the locked stack
  adviser build --project project.yaml --graph kg.db --policy ./policies --evaluate

  # Dependency monkey pipeline from an explicit document
  adviser build --mode dependency-monkey --project project.yaml --pipeline pipeline.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", modeAdviser, "pipeline mode (adviser, dependency-monkey)")
	cmd.Flags().StringVarP(&opts.projectPath, "project", "p", "", "project descriptor (YAML or JSON)")
	cmd.Flags().StringVar(&opts.graphPath, "graph", "", "SQLite knowledge graph database")
	cmd.Flags().StringVar(&opts.pipelinePath, "pipeline", "", "pipeline document to load instead of building one")
	cmd.Flags().StringSliceVar(&opts.policyPaths, "policy", nil, "Rego or JSON policy files or directories")
	cmd.Flags().StringToStringVar(&opts.aliases, "alias", nil, "package aliases (name=alias)")
	cmd.Flags().StringVar(&opts.recommendationType, "recommendation-type", string(pipeline.RecommendationStable), "adviser recommendation type")
	cmd.Flags().StringVar(&opts.decisionType, "decision-type", string(pipeline.DecisionRandom), "dependency monkey decision type")
	cmd.Flags().BoolVar(&opts.evaluate, "evaluate", false, "run the pipeline over the locked requirements")
	cmd.Flags().IntVar(&opts.count, "count", 3, "number of products to report")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "state generation limit (0 is unbounded)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "yaml", "output format (json, yaml)")

	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	ctx := cmd.Context()

	if opts.mode != modeAdviser && opts.mode != modeDependencyMonkey {
		return fmt.Errorf("unknown mode %q (must be %s or %s)", opts.mode, modeAdviser, modeDependencyMonkey)
	}

	proj, err := project.Load(opts.projectPath)
	if err != nil {
		return err
	}

	kg, closeGraph, err := openGraph(ctx, opts.graphPath)
	if err != nil {
		return err
	}
	defer closeGraph()

	cat, _, err := newCatalogue(ctx, opts.catalogueFlags)
	if err != nil {
		return err
	}
	builder := newBuilder(cat)

	req := pipeline.BuildRequest{Project: proj}
	if kg != nil {
		req.Graph = kg
	}

	var cfg *pipeline.Config
	switch {
	case opts.pipelinePath != "":
		cfg, err = builder.Load(ctx, opts.pipelinePath)
	case opts.mode == modeAdviser:
		cfg, err = builder.AdviserConfig(ctx, req, pipeline.RecommendationType(opts.recommendationType))
	default:
		cfg, err = builder.DependencyMonkeyConfig(ctx, req, pipeline.DecisionType(opts.decisionType))
	}
	if err != nil {
		return err
	}

	if !opts.evaluate {
		return writeOutput(cmd.OutOrStdout(), opts.output, cfg)
	}

	rcOpts := pipeline.RunOptions{
		Context: ctx,
		Project: proj,
		Count:   opts.count,
		Limit:   opts.limit,
		Logger:  log.Logger,
	}
	if kg != nil {
		rcOpts.Graph = kg
	}
	if opts.mode == modeAdviser {
		rcOpts.RecommendationType = pipeline.RecommendationType(opts.recommendationType)
	} else {
		rcOpts.DecisionType = pipeline.DecisionType(opts.decisionType)
	}

	summary, err := evaluate(cfg, pipeline.NewRunContext(rcOpts), opts.mode, kg)
	if err != nil && !errors.Is(err, pipeline.ErrNotAcceptable) {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("Locked stack is not acceptable")
	}
	return writeOutput(cmd.OutOrStdout(), opts.output, summary)
}

// evaluate runs cfg over the locked stack and returns the mode's report.
func evaluate(cfg *pipeline.Config, rc *pipeline.RunContext, mode string, kg *graph.CachedGraph) (pipeline.Summary, error) {
	var (
		adviserReport *report.Report
		monkeyReport  *report.DependencyMonkeyReport
		err           error
	)
	if mode == modeAdviser {
		adviserReport, err = report.New(cfg, rc.Count(), reportOptions()...)
		if err != nil {
			rc.Release()
			return nil, err
		}
	} else {
		monkeyReport = report.NewDependencyMonkeyReport()
	}

	resolve := func(rc *pipeline.RunContext) (pipeline.Summary, error) {
		p := rc.Project()
		if kg != nil && p.HasLocked() {
			env := graph.Environment{
				OSName:        p.RuntimeEnvironment.OperatingSystem.Name,
				OSVersion:     p.RuntimeEnvironment.OperatingSystem.Version,
				PythonVersion: p.RuntimeEnvironment.PythonVersion,
			}
			if err := kg.Warm(rc.Context(), p.RequirementsLocked, env, graph.DefaultWarmConcurrency); err != nil {
				return nil, err
			}
		}

		state, res := evaluateLocked(cfg, rc)
		var product *report.Product
		if !res.Rejected() {
			env := p.RuntimeEnvironment
			product = report.NewProduct(state, &env)
		} else {
			rc.Logger().Info().Str("reason", res.Reason).Msg("Locked stack rejected")
		}

		if adviserReport != nil {
			if product != nil {
				adviserReport.AddProduct(product)
			}
			adviserReport.SetStackInfo(rc.StackInfo())
			return adviserReport, nil
		}
		if product == nil {
			monkeyReport.Skip()
			return monkeyReport, nil
		}
		if err := monkeyReport.AddResponse("local", product); err != nil {
			return nil, err
		}
		return monkeyReport, nil
	}

	err = cfg.Run(rc, resolve)
	if adviserReport != nil {
		return adviserReport, err
	}
	return monkeyReport, err
}

func reportOptions() []report.Option {
	if tel == nil {
		return nil
	}
	return []report.Option{report.WithMetrics(tel.Metrics)}
}
