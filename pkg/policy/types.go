package policy

import (
	"time"

	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings worth reporting that do not reject a
	// state.
	SeverityWarning Severity = "warning"

	// SeverityError rejects the evaluated state.
	SeverityError Severity = "error"

	// SeverityCritical rejects the evaluated state.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether violations of this severity reject a state.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy is a Rego module whose deny rule lists violations.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Package is the offending package name, if the rule names one.
	Package string `json:"package,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Link points to further information, if the rule provides one.
	Link string `json:"link,omitempty"`
}

// Justification converts the violation to a stack justification entry.
func (v Violation) Justification() stack.Justification {
	t := stack.JustificationInfo
	switch {
	case v.Severity.Blocking():
		t = stack.JustificationError
	case v.Severity == SeverityWarning:
		t = stack.JustificationWarning
	}
	return stack.Justification{Type: t, Message: v.Message, Link: v.Link, Package: v.Package}
}

// Result represents the result of policy evaluation.
type Result struct {
	// Allowed is false when any blocking violation was found.
	Allowed bool `json:"allowed"`

	// Violations lists blocking violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists non-blocking violations.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the policy was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Input is the document policies see as input.
type Input struct {
	// Packages are the pinned packages of the evaluated state.
	Packages []stack.PackageVersion `json:"packages"`

	// Score is the state score.
	Score float64 `json:"score"`

	// Justification is the justification accumulated so far.
	Justification []stack.Justification `json:"justification,omitempty"`

	// RuntimeEnvironment is the targeted runtime environment.
	RuntimeEnvironment *project.RuntimeEnvironment `json:"runtime_environment,omitempty"`

	// Context provides additional evaluation context.
	Context *InputContext `json:"context"`
}

// InputContext provides context information for policy evaluation.
type InputContext struct {
	// RecommendationType is set for adviser runs.
	RecommendationType string `json:"recommendation_type,omitempty"`

	// DecisionType is set for dependency monkey runs.
	DecisionType string `json:"decision_type,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional context metadata.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewStateInput builds policy input from a resolver state.
func NewStateInput(state *stack.State, env *project.RuntimeEnvironment, ctx InputContext) *Input {
	if ctx.Timestamp.IsZero() {
		ctx.Timestamp = time.Now()
	}
	return &Input{
		Packages:           state.Packages(),
		Score:              state.Score,
		Justification:      state.Justification,
		RuntimeEnvironment: env,
		Context:            &ctx,
	}
}

// Bundle represents a collection of related policies.
type Bundle struct {
	// Name is the unique name of the bundle.
	Name string `json:"name"`

	// Version is the bundle version.
	Version string `json:"version"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Policies are the policies in this bundle.
	Policies []Policy `json:"policies"`
}
