package pipeline

import (
	"fmt"
	"slices"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/project"
)

// BuilderOptions are the inputs of one pipeline build.
type BuilderOptions struct {
	Project      *project.Project
	Graph        graph.KnowledgeGraph
	LibraryUsage project.LibraryUsage

	// Exactly one of RecommendationType and DecisionType must be set.
	RecommendationType RecommendationType
	DecisionType       DecisionType
}

// BuilderContext accumulates units while a pipeline is assembled. It is
// created per build and discarded once the Config is produced.
type BuilderContext struct {
	opts     BuilderOptions
	units    map[Kind][]Unit
	order    []Unit
	included map[string]int
}

// NewBuilderContext validates the options and creates an empty context.
func NewBuilderContext(opts BuilderOptions) (*BuilderContext, error) {
	hasRecommendation := opts.RecommendationType != ""
	hasDecision := opts.DecisionType != ""

	if hasRecommendation == hasDecision {
		return nil, &Error{
			Class:   ErrorClassConfiguration,
			Message: "exactly one of recommendation type and decision type must be set",
			Code:    ErrCodeInvalidBuilderContext,
			Err: fmt.Errorf("recommendation_type=%q decision_type=%q",
				opts.RecommendationType, opts.DecisionType),
		}
	}
	if hasRecommendation {
		if err := opts.RecommendationType.Validate(); err != nil {
			return nil, &Error{Class: ErrorClassConfiguration, Message: "invalid builder context", Code: ErrCodeInvalidBuilderContext, Err: err}
		}
	} else if err := opts.DecisionType.Validate(); err != nil {
		return nil, &Error{Class: ErrorClassConfiguration, Message: "invalid builder context", Code: ErrCodeInvalidBuilderContext, Err: err}
	}

	return &BuilderContext{
		opts:     opts,
		units:    make(map[Kind][]Unit, len(Kinds)),
		included: make(map[string]int),
	}, nil
}

// IsAdviserPipeline reports whether the build is for an adviser run.
func (bc *BuilderContext) IsAdviserPipeline() bool {
	return bc.opts.RecommendationType != ""
}

// IsDependencyMonkeyPipeline reports whether the build is for a dependency
// monkey run.
func (bc *BuilderContext) IsDependencyMonkeyPipeline() bool {
	return bc.opts.DecisionType != ""
}

// Project returns the project descriptor; may be nil.
func (bc *BuilderContext) Project() *project.Project { return bc.opts.Project }

// Graph returns the knowledge graph; may be nil.
func (bc *BuilderContext) Graph() graph.KnowledgeGraph { return bc.opts.Graph }

// LibraryUsage returns the library usage digest; may be nil.
func (bc *BuilderContext) LibraryUsage() project.LibraryUsage { return bc.opts.LibraryUsage }

// RecommendationType is set for adviser builds.
func (bc *BuilderContext) RecommendationType() RecommendationType {
	return bc.opts.RecommendationType
}

// DecisionType is set for dependency monkey builds.
func (bc *BuilderContext) DecisionType() DecisionType { return bc.opts.DecisionType }

// IsIncluded reports whether a unit with the given definition name was added.
func (bc *BuilderContext) IsIncluded(name string) bool {
	return bc.included[name] > 0
}

// IncludedCount returns how many units with the given name were added.
func (bc *BuilderContext) IncludedCount(name string) int {
	return bc.included[name]
}

// AddUnit appends u to the sequence of its kind and marks its definition as
// included.
func (bc *BuilderContext) AddUnit(u Unit) error {
	kind := u.Kind()
	if err := kind.Validate(); err != nil {
		return NewInternalError("cannot add unit", err).
			WithCode(ErrCodeUnknownKind).WithUnit(u.Name(), kind)
	}
	if !checkKind(u, kind) {
		return NewInternalError(fmt.Sprintf("%T does not implement the %s contract", u, kind), nil).
			WithCode(ErrCodeKindMismatch).WithUnit(u.Name(), kind)
	}

	bc.units[kind] = append(bc.units[kind], u)
	bc.order = append(bc.order, u)
	bc.included[u.Name()]++
	return nil
}

// Units returns the units of one kind in inclusion order.
func (bc *BuilderContext) Units(kind Kind) []Unit {
	return slices.Clone(bc.units[kind])
}

// UnitCount returns the total number of units added.
func (bc *BuilderContext) UnitCount() int {
	return len(bc.order)
}
