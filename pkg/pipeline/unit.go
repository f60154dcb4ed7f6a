package pipeline

import (
	"iter"
	"maps"

	"github.com/thoth-station/adviser/pkg/stack"
)

// Configuration is a unit configuration: string keys to YAML/JSON values.
type Configuration map[string]any

// Clone returns a deep copy of the configuration. Nested maps and slices
// decoded from YAML or JSON are copied as well; nested maps always come back
// as map[string]any whatever type the decoder produced.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	out := make(Configuration, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(Configuration(val).Clone())
	case Configuration:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Summary is the view of a finished run handed to PostRunReport.
type Summary interface {
	// ProductCount is the number of products the run retained.
	ProductCount() int
}

// Unit is the contract shared by every pipeline participant.
//
// Concrete units embed Base, which implements everything but Run and the
// hooks a unit wants to override. Run is declared per kind: see Boot, Sieve,
// Step, Stride, Wrap and Pseudonym.
type Unit interface {
	// Name identifies the unit's definition in the catalogue.
	Name() string

	// Kind is the unit's role in the pipeline.
	Kind() Kind

	// Configuration returns the live configuration.
	Configuration() Configuration

	// UpdateConfiguration merges values into the configuration and validates
	// the result. On failure the invalid configuration stays in place and the
	// unit must be discarded.
	UpdateConfiguration(values Configuration) error

	// PreRun is called once before a resolution pass.
	PreRun(rc *RunContext) error

	// PostRun is called once after a resolution pass, in reverse order.
	PostRun(rc *RunContext) error

	// PostRunReport is called once after PostRun when a summary was produced.
	PostRunReport(rc *RunContext, summary Summary) error

	base() *Base
}

// Base implements the parts of Unit shared by every kind. The zero value is
// ready to be embedded; the catalogue fills it when instantiating a unit.
type Base struct {
	name          string
	kind          Kind
	configuration Configuration
	validate      func(Configuration) error
}

// Name returns the unit name.
func (b *Base) Name() string { return b.name }

// Kind returns the unit kind.
func (b *Base) Kind() Kind { return b.kind }

// Configuration returns the live configuration.
func (b *Base) Configuration() Configuration {
	if b.configuration == nil {
		b.configuration = Configuration{}
	}
	return b.configuration
}

// UpdateConfiguration merges values into the configuration (top-level keys
// replace existing ones) and validates the result against the unit schema.
func (b *Base) UpdateConfiguration(values Configuration) error {
	if b.configuration == nil {
		b.configuration = Configuration{}
	}
	maps.Copy(b.configuration, values.Clone())

	if b.validate != nil {
		return b.validate(b.configuration)
	}
	return nil
}

// PreRun does nothing.
func (b *Base) PreRun(*RunContext) error { return nil }

// PostRun does nothing.
func (b *Base) PostRun(*RunContext) error { return nil }

// PostRunReport does nothing.
func (b *Base) PostRunReport(*RunContext, Summary) error { return nil }

func (b *Base) base() *Base { return b }

// Boot runs once per resolution with no package argument. Rejecting aborts
// the whole run before any candidate is considered.
type Boot interface {
	Unit
	Run(rc *RunContext) Result
}

// Sieve filters a lazy sequence of candidate package versions. Dropping a
// candidate means not yielding it; a sieve must not drain its input up front.
type Sieve interface {
	Unit
	Run(rc *RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion]
}

// Step evaluates one resolution decision: adding pv to state.
type Step interface {
	Unit
	Run(rc *RunContext, state *stack.State, pv stack.PackageVersion) Result
}

// Stride evaluates one fully assembled candidate state.
type Stride interface {
	Unit
	Run(rc *RunContext, state *stack.State) Result
}

// Wrap enriches an accepted final state. It cannot reject.
type Wrap interface {
	Unit
	Run(rc *RunContext, state *stack.State)
}

// Pseudonym proposes alias candidates for versions of one package.
type Pseudonym interface {
	Unit
	// PackageName is the package the pseudonym is registered for.
	PackageName() string
	Run(rc *RunContext, pv stack.PackageVersion) iter.Seq[stack.Alias]
}

// checkKind reports whether u implements the Run contract of kind.
func checkKind(u Unit, kind Kind) bool {
	switch kind {
	case KindBoot:
		_, ok := u.(Boot)
		return ok
	case KindPseudonym:
		_, ok := u.(Pseudonym)
		return ok
	case KindSieve:
		_, ok := u.(Sieve)
		return ok
	case KindStep:
		_, ok := u.(Step)
		return ok
	case KindStride:
		_, ok := u.(Stride)
		return ok
	case KindWrap:
		_, ok := u.(Wrap)
		return ok
	default:
		return false
	}
}
