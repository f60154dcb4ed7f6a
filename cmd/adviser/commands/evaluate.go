package commands

import (
	"fmt"
	"slices"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

// evaluateLocked runs the locked stack of the project through cfg as a
// single state: every pinned package passes the sieves and steps in lock
// order, then the strides and wraps see the assembled state. Packages a step
// skips are left out of the state.
func evaluateLocked(cfg *pipeline.Config, rc *pipeline.RunContext) (*stack.State, pipeline.Result) {
	p := rc.Project()
	if p == nil || !p.HasLocked() {
		return nil, pipeline.Reject("the project has no locked requirements")
	}

	state := stack.NewState()
	for _, pv := range p.RequirementsLocked {
		kept := false
		for range cfg.Filter(rc, slices.Values([]stack.PackageVersion{pv})) {
			kept = true
		}
		if !kept {
			return nil, pipeline.Reject(fmt.Sprintf("%s was removed by a sieve", pv))
		}

		for alias := range cfg.Aliases(rc, pv) {
			state.AddJustification(stack.Justification{
				Type:    stack.JustificationInfo,
				Message: fmt.Sprintf("%s==%s can be replaced with %s", pv.Name, pv.Version, alias.Name),
				Package: pv.Name,
			})
		}

		res := cfg.EvaluateStep(rc, state, pv)
		switch {
		case res.Rejected():
			return nil, pipeline.Reject(fmt.Sprintf("%s: %s", pv, res.Reason), res.Justification...)
		case res.Skipped():
			rc.Logger().Debug().Str("package", pv.String()).Str("reason", res.Reason).Msg("Package skipped")
			continue
		}
		state.Score += res.Score
		state.AddJustification(res.Justification...)
		state.AddResolved(pv)
	}

	res := cfg.AcceptState(rc, state)
	if res.Rejected() {
		return nil, res
	}
	state.AddJustification(res.Justification...)
	cfg.WrapState(rc, state)
	return state, pipeline.Accept()
}
