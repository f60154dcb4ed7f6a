package pipeline

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/graph"
	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
)

// RunOptions are the inputs of one resolution pass.
type RunOptions struct {
	// Context bounds blocking calls made by units; defaults to
	// context.Background.
	Context context.Context

	Project      *project.Project
	Graph        graph.KnowledgeGraph
	LibraryUsage project.LibraryUsage

	RecommendationType RecommendationType
	DecisionType       DecisionType

	// Count is the number of products the run should report.
	Count int

	// Limit caps the number of states the resolver generates; 0 is unbounded.
	Limit int

	Logger zerolog.Logger
}

// RunContext is the token giving units access to the shared state of one
// resolution pass. It is valid from NewRunContext until Release; every
// accessor panics with ErrContextReleased afterwards.
//
// At most one goroutine drives a run, so a RunContext is not safe for
// concurrent mutation.
type RunContext struct {
	id        string
	opts      RunOptions
	logger    zerolog.Logger
	stackInfo []stack.Justification
	released  atomic.Bool
}

// NewRunContext issues a run context.
func NewRunContext(opts RunOptions) *RunContext {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	id := uuid.New().String()
	return &RunContext{
		id:     id,
		opts:   opts,
		logger: opts.Logger.With().Str("run_id", id).Logger(),
	}
}

// Release ends the run context. It is safe to call more than once.
func (rc *RunContext) Release() {
	rc.released.Store(true)
}

// Released reports whether the context was released. It never panics.
func (rc *RunContext) Released() bool {
	return rc.released.Load()
}

func (rc *RunContext) check() {
	if rc.released.Load() {
		panic(ErrContextReleased)
	}
}

// ID returns the run identifier.
func (rc *RunContext) ID() string {
	rc.check()
	return rc.id
}

// Context returns the context bounding blocking unit calls.
func (rc *RunContext) Context() context.Context {
	rc.check()
	return rc.opts.Context
}

// Project returns the project descriptor. Boots may modify it in place.
func (rc *RunContext) Project() *project.Project {
	rc.check()
	return rc.opts.Project
}

// Graph returns the knowledge graph.
func (rc *RunContext) Graph() graph.KnowledgeGraph {
	rc.check()
	return rc.opts.Graph
}

// LibraryUsage returns the library usage digest.
func (rc *RunContext) LibraryUsage() project.LibraryUsage {
	rc.check()
	return rc.opts.LibraryUsage
}

// RecommendationType is set for adviser runs.
func (rc *RunContext) RecommendationType() RecommendationType {
	rc.check()
	return rc.opts.RecommendationType
}

// DecisionType is set for dependency monkey runs.
func (rc *RunContext) DecisionType() DecisionType {
	rc.check()
	return rc.opts.DecisionType
}

// IsAdviserRun reports whether this is an adviser run.
func (rc *RunContext) IsAdviserRun() bool {
	rc.check()
	return rc.opts.RecommendationType != ""
}

// Count returns the number of products to report.
func (rc *RunContext) Count() int {
	rc.check()
	return rc.opts.Count
}

// Limit returns the state generation limit.
func (rc *RunContext) Limit() int {
	rc.check()
	return rc.opts.Limit
}

// Logger returns the run logger.
func (rc *RunContext) Logger() *zerolog.Logger {
	rc.check()
	return &rc.logger
}

// AddStackInfo appends run-level justification, reported once per run rather
// than per product.
func (rc *RunContext) AddStackInfo(j ...stack.Justification) {
	rc.check()
	rc.stackInfo = append(rc.stackInfo, j...)
}

// StackInfo returns the run-level justification collected so far.
func (rc *RunContext) StackInfo() []stack.Justification {
	rc.check()
	return slices.Clone(rc.stackInfo)
}
