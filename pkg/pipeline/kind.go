package pipeline

import "fmt"

// Kind is the role a unit plays in a pipeline.
type Kind string

const (
	// KindBoot units run once per resolution, before any candidate is
	// considered.
	KindBoot Kind = "boot"

	// KindPseudonym units propose alias candidates for a package version.
	KindPseudonym Kind = "pseudonym"

	// KindSieve units filter the lazy stream of candidate package versions.
	KindSieve Kind = "sieve"

	// KindStep units score one resolution decision.
	KindStep Kind = "step"

	// KindStride units accept or reject a fully assembled state.
	KindStride Kind = "stride"

	// KindWrap units enrich an accepted final state.
	KindWrap Kind = "wrap"
)

// Kinds lists every kind in catalogue polling order.
var Kinds = []Kind{KindBoot, KindPseudonym, KindSieve, KindStep, KindStride, KindWrap}

// Validate reports whether k is one of the known kinds.
func (k Kind) Validate() error {
	switch k {
	case KindBoot, KindPseudonym, KindSieve, KindStep, KindStride, KindWrap:
		return nil
	default:
		return fmt.Errorf("unknown unit kind %q", string(k))
	}
}

// Section returns the pipeline document section holding units of this kind.
func (k Kind) Section() string {
	return string(k) + "s"
}

// RecommendationType selects what an adviser run optimizes for.
type RecommendationType string

const (
	RecommendationLatest      RecommendationType = "latest"
	RecommendationStable      RecommendationType = "stable"
	RecommendationTesting     RecommendationType = "testing"
	RecommendationPerformance RecommendationType = "performance"
	RecommendationSecurity    RecommendationType = "security"
)

// Validate reports whether r is a known recommendation type.
func (r RecommendationType) Validate() error {
	switch r {
	case RecommendationLatest, RecommendationStable, RecommendationTesting, RecommendationPerformance, RecommendationSecurity:
		return nil
	default:
		return fmt.Errorf("unknown recommendation type %q", string(r))
	}
}

// DecisionType selects how a dependency monkey run samples stacks.
type DecisionType string

const (
	DecisionRandom DecisionType = "random"
	DecisionAll    DecisionType = "all"
)

// Validate reports whether d is a known decision type.
func (d DecisionType) Validate() error {
	switch d {
	case DecisionRandom, DecisionAll:
		return nil
	default:
		return fmt.Errorf("unknown decision type %q", string(d))
	}
}
