package units

import (
	"errors"
	"fmt"

	"github.com/thoth-station/adviser/pkg/config"
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/policy"
	"github.com/thoth-station/adviser/pkg/stack"
)

// ScriptedStride accepts or rejects states with a Starlark predicate. The
// script sees packages (a list of name/version/index dicts), score and
// recommendation_type, and must set accept; reason explains a rejection.
//
// It is only included through pipeline documents.
type ScriptedStride struct {
	pipeline.Base
	scripts *config.StarlarkEvaluator
}

func scriptedStrideDefinition(scripts *config.StarlarkEvaluator) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindStride,
		Description: "Filters states with a Starlark predicate",
		Defaults:    pipeline.Configuration{"script": ""},
		Schema:      `script: string & != ""`,
		New:         func() pipeline.Unit { return &ScriptedStride{scripts: scripts} },
	}
}

// PreRun checks the script compiles.
func (s *ScriptedStride) PreRun(*pipeline.RunContext) error {
	return s.scripts.Compile(stringValue(s.Configuration(), "script"))
}

// Run implements pipeline.Stride.
func (s *ScriptedStride) Run(rc *pipeline.RunContext, state *stack.State) pipeline.Result {
	packages := make([]any, 0, len(state.ResolvedDependencies))
	for _, pv := range state.Packages() {
		packages = append(packages, map[string]any{
			"name":    pv.Name,
			"version": pv.Version,
			"index":   pv.Index,
		})
	}
	input := map[string]any{
		"packages":            packages,
		"score":               state.Score,
		"recommendation_type": string(rc.RecommendationType()),
	}

	accept, reason, err := s.scripts.EvaluatePredicate(rc.Context(), stringValue(s.Configuration(), "script"), input)
	if err != nil {
		rc.Logger().Warn().Err(err).Str("unit", s.Name()).Msg("Predicate script failed")
		return pipeline.Reject(fmt.Sprintf("predicate script failed: %v", err))
	}
	if !accept {
		if reason == "" {
			reason = "rejected by predicate script"
		}
		return pipeline.Reject(reason)
	}
	return pipeline.Accept()
}

// PolicyStride rejects states violating the deny rules of the policy engine.
// Non-blocking findings are attached as justification when
// report_warnings is set.
type PolicyStride struct {
	pipeline.Base
	engine *policy.Engine
}

func policyStrideDefinition(engine *policy.Engine) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindStride,
		Description: "Rejects states violating Rego policies",
		Defaults:    pipeline.Configuration{"report_warnings": true},
		Schema:      `report_warnings: bool`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if engine == nil {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &PolicyStride{engine: engine} },
	}
}

// PreRun fails when no policy engine is available.
func (s *PolicyStride) PreRun(*pipeline.RunContext) error {
	if s.engine == nil {
		return errors.New("no policy engine configured")
	}
	return nil
}

// Run implements pipeline.Stride.
func (s *PolicyStride) Run(rc *pipeline.RunContext, state *stack.State) pipeline.Result {
	input := policy.NewStateInput(state, runtimeEnvironment(rc), policy.InputContext{
		RecommendationType: string(rc.RecommendationType()),
		DecisionType:       string(rc.DecisionType()),
		Metadata:           map[string]any{"run_id": rc.ID()},
	})

	result, err := s.engine.Evaluate(rc.Context(), input)
	if err != nil {
		return pipeline.Reject(fmt.Sprintf("policy evaluation failed: %v", err))
	}

	if !result.Allowed {
		justification := make([]stack.Justification, 0, len(result.Violations))
		for _, v := range result.Violations {
			justification = append(justification, v.Justification())
		}
		return pipeline.Reject(fmt.Sprintf("policy %s: %s", result.Violations[0].Policy, result.Violations[0].Message), justification...)
	}

	if !boolValue(s.Configuration(), "report_warnings") {
		return pipeline.Accept()
	}
	justification := make([]stack.Justification, 0, len(result.Warnings))
	for _, v := range result.Warnings {
		justification = append(justification, v.Justification())
	}
	return pipeline.Accept(justification...)
}
