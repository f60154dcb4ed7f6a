package pipeline

import "github.com/thoth-station/adviser/pkg/stack"

// Outcome is the decision carried by a Result.
type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeReject Outcome = "reject"
	OutcomeSkip   Outcome = "skip"
)

// Result is what boots, steps and strides return from Run.
//
// Rejecting prunes the current run (boot), decision (step) or state (stride).
// Skip is only meaningful for steps and drops the package from the current
// decision without pruning the state.
type Result struct {
	Outcome Outcome
	Reason  string

	// Score is the score contribution of an accepted step. Scored
	// distinguishes a zero score from no score.
	Score  float64
	Scored bool

	Justification []stack.Justification
}

// Accept accepts with optional justification.
func Accept(justification ...stack.Justification) Result {
	return Result{Outcome: OutcomeAccept, Justification: justification}
}

// AcceptScore accepts with a score contribution.
func AcceptScore(score float64, justification ...stack.Justification) Result {
	return Result{Outcome: OutcomeAccept, Score: score, Scored: true, Justification: justification}
}

// Reject rejects with a reason.
func Reject(reason string, justification ...stack.Justification) Result {
	return Result{Outcome: OutcomeReject, Reason: reason, Justification: justification}
}

// Skip skips the current package.
func Skip(reason string) Result {
	return Result{Outcome: OutcomeSkip, Reason: reason}
}

// Accepted reports whether the result accepts.
func (r Result) Accepted() bool {
	return r.Outcome == OutcomeAccept || r.Outcome == ""
}

// Rejected reports whether the result rejects.
func (r Result) Rejected() bool {
	return r.Outcome == OutcomeReject
}

// Skipped reports whether the result skips.
func (r Result) Skipped() bool {
	return r.Outcome == OutcomeSkip
}
