package report

import (
	"cmp"
	"container/heap"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
	"github.com/thoth-station/adviser/pkg/telemetry"
)

type item struct {
	product *Product
	seq     uint64
}

// productHeap is a min-heap on (score, seq). The root is the product
// evicted next; among equal scores the oldest insertion goes first.
type productHeap []item

func (h productHeap) Len() int { return len(h) }

func (h productHeap) Less(i, j int) bool {
	if h[i].product.Score != h[j].product.Score {
		return h[i].product.Score < h[j].product.Score
	}
	return h[i].seq < h[j].seq
}

func (h productHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *productHeap) Push(x any) { *h = append(*h, x.(item)) }

func (h *productHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = item{}
	*h = old[:n-1]
	return it
}

// Option configures a Report.
type Option func(*Report)

// WithMetrics records product additions and evictions.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Report) { r.metrics = m }
}

// Report keeps the count highest-scoring products seen during a run.
//
// A Report has a single writer; it is not safe for concurrent use.
type Report struct {
	count     int
	heap      productHeap
	seq       uint64
	pipeline  *pipeline.Config
	stackInfo []stack.Justification
	metrics   *telemetry.Metrics
}

var _ pipeline.Summary = (*Report)(nil)

// New creates a report retaining at most count products. cfg is the
// pipeline serialized alongside the products and may be nil.
func New(cfg *pipeline.Config, count int, opts ...Option) (*Report, error) {
	if count <= 0 {
		return nil, fmt.Errorf("report count must be positive, got %d", count)
	}
	r := &Report{
		count:    count,
		heap:     make(productHeap, 0, count),
		pipeline: cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Count returns the capacity of the report.
func (r *Report) Count() int { return r.count }

// Pipeline returns the pipeline the report was produced with.
func (r *Report) Pipeline() *pipeline.Config { return r.pipeline }

// AddProduct offers a product. Once the report is full the lowest-scoring
// product is dropped, which may be p itself. Ties are resolved in favour
// of the product added last. It reports whether p was retained; a product
// scored NaN is never retained since it has no place in the ordering.
func (r *Report) AddProduct(p *Product) bool {
	if math.IsNaN(p.Score) {
		return false
	}
	r.seq++
	it := item{product: p, seq: r.seq}

	if len(r.heap) < r.count {
		heap.Push(&r.heap, it)
		r.metrics.RecordProductAdded(false)
		return true
	}

	// Push-then-pop-minimum: p carries the highest seq, so it is the
	// minimum only when its score is strictly below the root's.
	if it.product.Score < r.heap[0].product.Score {
		r.metrics.RecordProductAdded(true)
		return false
	}
	r.heap[0] = it
	heap.Fix(&r.heap, 0)
	r.metrics.RecordProductAdded(true)
	return true
}

// ProductCount returns the number of retained products.
func (r *Report) ProductCount() int { return len(r.heap) }

// Products returns the retained products in no particular order.
func (r *Report) Products() []*Product {
	out := make([]*Product, len(r.heap))
	for i, it := range r.heap {
		out[i] = it.product
	}
	return out
}

// ProductsSorted returns the retained products ordered by score, highest
// first when reverse is set. Equal scores keep insertion order.
func (r *Report) ProductsSorted(reverse bool) []*Product {
	items := slices.Clone(r.heap)
	slices.SortFunc(items, func(a, b item) int {
		return cmp.Or(cmp.Compare(a.product.Score, b.product.Score), cmp.Compare(a.seq, b.seq))
	})
	if reverse {
		slices.Reverse(items)
	}

	out := make([]*Product, len(items))
	for i, it := range items {
		out[i] = it.product
	}
	return out
}

// SetStackInfo sets the run-level justification.
func (r *Report) SetStackInfo(info []stack.Justification) {
	r.stackInfo = slices.Clone(info)
}

// StackInfo returns the run-level justification, nil if never set.
func (r *Report) StackInfo() []stack.Justification {
	return slices.Clone(r.stackInfo)
}

type reportJSON struct {
	Pipeline  *pipeline.Document    `json:"pipeline"`
	Products  []*Product            `json:"products"`
	StackInfo []stack.Justification `json:"stack_info"`
}

// MarshalJSON encodes the report with products sorted by descending score.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Products:  r.ProductsSorted(true),
		StackInfo: r.stackInfo,
	}
	if r.pipeline != nil {
		doc := r.pipeline.Document()
		out.Pipeline = &doc
	}
	return json.Marshal(out)
}
