package report

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/thoth-station/adviser/pkg/pipeline"
)

// Response pairs a dependency monkey response label with the product it
// was produced for, serialized when it was added.
type Response struct {
	Response string          `json:"response"`
	Product  json.RawMessage `json:"product"`
}

// DependencyMonkeyReport collects every product a dependency monkey run
// submitted. It has no capacity bound.
type DependencyMonkeyReport struct {
	skipped   int
	responses []Response
}

var _ pipeline.Summary = (*DependencyMonkeyReport)(nil)

// NewDependencyMonkeyReport creates an empty report.
func NewDependencyMonkeyReport() *DependencyMonkeyReport {
	return &DependencyMonkeyReport{}
}

// AddResponse serializes p and appends it with its response label. Later
// changes to p are not reflected in the report.
func (r *DependencyMonkeyReport) AddResponse(response string, p *Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize product %s: %w", p.ID, err)
	}
	r.responses = append(r.responses, Response{Response: response, Product: data})
	return nil
}

// Skip counts one product that was generated but not submitted.
func (r *DependencyMonkeyReport) Skip() { r.skipped++ }

// Skipped returns the number of skipped products.
func (r *DependencyMonkeyReport) Skipped() int { return r.skipped }

// Responses returns the collected responses in insertion order.
func (r *DependencyMonkeyReport) Responses() []Response {
	return slices.Clone(r.responses)
}

// ProductCount returns the number of collected responses.
func (r *DependencyMonkeyReport) ProductCount() int { return len(r.responses) }

// MarshalJSON encodes the report.
func (r *DependencyMonkeyReport) MarshalJSON() ([]byte, error) {
	responses := r.responses
	if responses == nil {
		responses = []Response{}
	}
	return json.Marshal(struct {
		Skipped   int        `json:"skipped"`
		Responses []Response `json:"responses"`
	}{r.skipped, responses})
}
