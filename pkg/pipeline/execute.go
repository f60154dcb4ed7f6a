package pipeline

import (
	"errors"
	"fmt"
	"iter"

	"github.com/thoth-station/adviser/pkg/stack"
	"github.com/thoth-station/adviser/pkg/telemetry"
)

// ResolveFunc drives the resolution walk of one run. It returns the summary
// handed to PostRunReport, or nil to skip that hook.
type ResolveFunc func(rc *RunContext) (Summary, error)

// Run performs one resolution pass: pre-run broadcast, boots, resolve,
// post-run broadcast and, when resolve produced a summary, the post-run
// report broadcast. The run context is released when Run returns.
//
// A boot rejection is returned as an error wrapping ErrNotAcceptable. Post-run
// hooks are called whenever pre-run succeeded.
func (c *Config) Run(rc *RunContext, resolve ResolveFunc) error {
	defer rc.Release()

	_, span := c.tracer.StartRunSpan(rc.Context(), rc.ID())
	defer span.End()

	c.metrics.RecordRunStarted()
	status := "failed"
	defer func() {
		c.metrics.RecordRunCompleted(status)
		span.SetAttributes(telemetry.AttrRunStatus.String(status))
	}()

	logger := c.logger.With().Str("run_id", rc.ID()).Logger()

	if err := c.CallPreRun(rc); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	summary, runErr := c.runBody(rc, resolve)

	postErr := c.CallPostRun(rc)
	if runErr == nil && postErr == nil && summary != nil {
		postErr = c.CallPostRunReport(rc, summary)
	}

	err := errors.Join(runErr, postErr)
	switch {
	case err == nil:
		status = "succeeded"
		telemetry.RecordSuccess(span)
	case errors.Is(err, ErrNotAcceptable) && postErr == nil:
		status = "not_acceptable"
		logger.Info().Err(runErr).Msg("Run is not acceptable")
	default:
		telemetry.RecordError(span, err)
	}
	return err
}

func (c *Config) runBody(rc *RunContext, resolve ResolveFunc) (Summary, error) {
	if res := c.RunBoots(rc); res.Rejected() {
		return nil, fmt.Errorf("%w: %s", ErrNotAcceptable, res.Reason)
	}
	if resolve == nil {
		return nil, nil
	}
	return resolve(rc)
}

// RunBoots runs every boot in order. The first rejection is returned and
// stops the remaining boots.
func (c *Config) RunBoots(rc *RunContext) Result {
	for _, b := range c.boots {
		res := b.Run(rc)
		c.metrics.RecordUnitResult(string(KindBoot), outcome(res))
		if res.Rejected() {
			rc.Logger().Warn().Str("unit", b.Name()).Str("reason", res.Reason).Msg("Boot rejected the run")
			return res
		}
	}
	return Accept()
}

// Filter chains every sieve over candidates. The result stays lazy: sieves
// pull from the previous one as the caller iterates.
func (c *Config) Filter(rc *RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion] {
	seq := candidates
	for _, s := range c.sieves {
		seq = s.Run(rc, seq)
	}
	return seq
}

// Aliases yields the alias candidates every pseudonym registered for pv's
// package proposes, in inclusion order.
func (c *Config) Aliases(rc *RunContext, pv stack.PackageVersion) iter.Seq[stack.Alias] {
	pseudonyms := c.pseudonymIndex[pv.Name]
	return func(yield func(stack.Alias) bool) {
		for _, p := range pseudonyms {
			for alias := range p.Run(rc, pv) {
				if !yield(alias) {
					return
				}
			}
		}
	}
}

// EvaluateStep runs every step on the decision of adding pv to state. The
// first reject or skip is returned as is; otherwise scores are summed and
// justifications concatenated.
func (c *Config) EvaluateStep(rc *RunContext, state *stack.State, pv stack.PackageVersion) Result {
	total := Accept()
	for _, s := range c.steps {
		res := s.Run(rc, state, pv)
		c.metrics.RecordUnitResult(string(KindStep), outcome(res))
		if !res.Accepted() {
			return res
		}
		if res.Scored {
			total.Score += res.Score
			total.Scored = true
		}
		total.Justification = append(total.Justification, res.Justification...)
	}
	return total
}

// AcceptState runs every stride on a fully assembled state. The first
// rejection wins.
func (c *Config) AcceptState(rc *RunContext, state *stack.State) Result {
	var justification []stack.Justification
	for _, s := range c.strides {
		res := s.Run(rc, state)
		c.metrics.RecordUnitResult(string(KindStride), outcome(res))
		if res.Rejected() {
			return res
		}
		justification = append(justification, res.Justification...)
	}
	return Accept(justification...)
}

// WrapState runs every wrap on an accepted final state.
func (c *Config) WrapState(rc *RunContext, state *stack.State) {
	for _, w := range c.wraps {
		w.Run(rc, state)
	}
}

func outcome(r Result) string {
	if r.Outcome == "" {
		return string(OutcomeAccept)
	}
	return string(r.Outcome)
}
