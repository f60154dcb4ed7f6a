package report

import (
	"github.com/google/uuid"

	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
)

// Product is one recommended stack.
type Product struct {
	ID                     string                      `json:"id"`
	Score                  float64                     `json:"score"`
	Justification          []stack.Justification       `json:"justification"`
	Packages               []stack.PackageVersion      `json:"packages"`
	AdvisedManifestChanges []stack.ManifestChange      `json:"advised_manifest_changes,omitempty"`
	AdvisedRuntime         *project.RuntimeEnvironment `json:"advised_runtime_environment,omitempty"`
}

// NewProduct builds a product from a final state. The state's slices are
// copied.
func NewProduct(state *stack.State, advisedRuntime *project.RuntimeEnvironment) *Product {
	c := state.Clone()
	return &Product{
		ID:                     uuid.New().String(),
		Score:                  c.Score,
		Justification:          c.Justification,
		Packages:               c.Packages(),
		AdvisedManifestChanges: c.AdvisedManifestChanges,
		AdvisedRuntime:         advisedRuntime,
	}
}
