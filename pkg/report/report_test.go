package report

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
	"github.com/thoth-station/adviser/pkg/telemetry"
)

func product(id string, score float64) *Product {
	return &Product{ID: id, Score: score}
}

func ids(products []*Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func scores(products []*Product) []float64 {
	out := make([]float64, len(products))
	for i, p := range products {
		out[i] = p.Score
	}
	return out
}

func mustReport(t *testing.T, count int, opts ...Option) *Report {
	t.Helper()
	r, err := New(nil, count, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_RequiresPositiveCount(t *testing.T) {
	for _, count := range []int{0, -1} {
		if _, err := New(nil, count); err == nil {
			t.Errorf("New(%d) should fail", count)
		}
	}
}

func TestReport_KeepsHighestScores(t *testing.T) {
	r := mustReport(t, 2)

	retained := []bool{
		r.AddProduct(product("a", 0.42)),
		r.AddProduct(product("b", 0.0)),
		r.AddProduct(product("c", 0.98)),
		r.AddProduct(product("d", 0.666)),
	}

	if want := []bool{true, true, true, true}; !reflect.DeepEqual(retained, want) {
		t.Errorf("AddProduct() = %v, want %v", retained, want)
	}
	if r.ProductCount() != 2 {
		t.Fatalf("ProductCount() = %d, want 2", r.ProductCount())
	}
	if got := scores(r.ProductsSorted(true)); !reflect.DeepEqual(got, []float64{0.98, 0.666}) {
		t.Errorf("retained scores = %v", got)
	}
	if got := scores(r.ProductsSorted(false)); !reflect.DeepEqual(got, []float64{0.666, 0.98}) {
		t.Errorf("ascending scores = %v", got)
	}

	if r.AddProduct(product("e", 0.1)) {
		t.Error("a product below the minimum should be dropped")
	}
}

func TestReport_TieBreakFavoursRecent(t *testing.T) {
	r := mustReport(t, 2)
	r.AddProduct(product("first", 0.5))
	r.AddProduct(product("second", 0.5))

	if !r.AddProduct(product("third", 0.5)) {
		t.Fatal("an equal-score product added last should be retained")
	}

	got := ids(r.ProductsSorted(false))
	if !reflect.DeepEqual(got, []string{"second", "third"}) {
		t.Errorf("retained = %v, want [second third]", got)
	}
}

func TestReport_TopK(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, count := range []int{1, 3, 10, 50} {
		r := mustReport(t, count)
		var all []float64
		for i := 0; i < 200; i++ {
			// Coarse scores force plenty of ties.
			s := float64(rng.Intn(20)) / 10
			all = append(all, s)
			r.AddProduct(product("", s))
			if r.ProductCount() > count {
				t.Fatalf("count %d exceeded: %d", count, r.ProductCount())
			}
		}

		sort.Sort(sort.Reverse(sort.Float64Slice(all)))
		want := all[:count]
		if got := scores(r.ProductsSorted(true)); !reflect.DeepEqual(got, want) {
			t.Errorf("count %d: retained %v, want %v", count, got, want)
		}
	}
}

func TestReport_ProductsUnsorted(t *testing.T) {
	r := mustReport(t, 5)
	for i, s := range []float64{3, 1, 2} {
		r.AddProduct(product(string(rune('a'+i)), s))
	}

	got := ids(r.Products())
	slices.Sort(got)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Products() = %v", got)
	}
}

func TestReport_StackInfo(t *testing.T) {
	r := mustReport(t, 1)
	if r.StackInfo() != nil {
		t.Error("stack info should start nil")
	}

	info := []stack.Justification{{Type: stack.JustificationWarning, Message: "partial runtime environment"}}
	r.SetStackInfo(info)
	info[0].Message = "changed"

	if got := r.StackInfo(); len(got) != 1 || got[0].Message != "partial runtime environment" {
		t.Errorf("StackInfo() = %v", got)
	}
}

func TestReport_MarshalJSON(t *testing.T) {
	cat := pipeline.NewCatalogue(nil)
	cfg, err := pipeline.NewBuilder(cat, pipeline.WithBlockedUnits()).Load(t.Context(), "{}")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	r, err := New(cfg, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.AddProduct(product("low", 0.1))
	r.AddProduct(product("high", 0.9))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		Pipeline  map[string]any   `json:"pipeline"`
		Products  []map[string]any `json:"products"`
		StackInfo []any            `json:"stack_info"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Pipeline == nil {
		t.Error("pipeline should be encoded")
	}
	if len(decoded.Products) != 2 || decoded.Products[0]["id"] != "high" {
		t.Errorf("products not sorted by descending score: %s", data)
	}
	if !strings.Contains(string(data), `"stack_info":null`) {
		t.Errorf("unset stack info should encode as null: %s", data)
	}
}

func TestReport_Metrics(t *testing.T) {
	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	r := mustReport(t, 1, WithMetrics(metrics))
	r.AddProduct(product("a", 1))
	r.AddProduct(product("b", 2))
	r.AddProduct(product("c", 0))

	expected := `
# HELP test_report_products_added_total Total number of products offered to reports
# TYPE test_report_products_added_total counter
test_report_products_added_total 3
# HELP test_report_products_evicted_total Total number of products dropped by bounded reports
# TYPE test_report_products_evicted_total counter
test_report_products_evicted_total 2
`
	err = testutil.CollectAndCompare(metrics.Registry(), strings.NewReader(expected),
		"test_report_products_added_total", "test_report_products_evicted_total")
	if err != nil {
		t.Errorf("unexpected report metrics: %v", err)
	}
}

func TestNewProduct(t *testing.T) {
	state := stack.NewState()
	state.Score = 0.75
	state.AddResolved(stack.PackageVersion{Name: "urllib3", Version: "2.0.0", Index: "https://pypi.org/simple"})
	state.AddResolved(stack.PackageVersion{Name: "requests", Version: "2.31.0", Index: "https://pypi.org/simple"})
	state.AddJustification(stack.Justification{Type: stack.JustificationInfo, Message: "ok"})

	env := &project.RuntimeEnvironment{PythonVersion: "3.11"}
	p := NewProduct(state, env)

	if p.ID == "" || p.Score != 0.75 || p.AdvisedRuntime != env {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.Packages[0].Name != "requests" || p.Packages[1].Name != "urllib3" {
		t.Errorf("packages should be sorted by name: %v", p.Packages)
	}

	state.Justification[0].Message = "changed"
	if p.Justification[0].Message != "ok" {
		t.Error("product shares justification with the state")
	}
}

func TestReport_IgnoresNaNScores(t *testing.T) {
	tests := []struct {
		name   string
		before []*Product
	}{
		{name: "empty report", before: nil},
		{name: "full report", before: []*Product{product("a", 0.2), product("b", 0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustReport(t, 2)
			for _, p := range tt.before {
				r.AddProduct(p)
			}

			if r.AddProduct(product("nan", math.NaN())) {
				t.Error("AddProduct() retained a NaN-scored product")
			}
			if r.ProductCount() != len(tt.before) {
				t.Errorf("ProductCount() = %d, want %d", r.ProductCount(), len(tt.before))
			}

			r.AddProduct(product("c", 0.3))
			want := []string{"c"}
			if len(tt.before) > 0 {
				want = []string{"c", "b"}
			}
			if got := ids(r.ProductsSorted(false)); !slices.Equal(got, want) {
				t.Errorf("ProductsSorted() = %v, want %v", got, want)
			}
		})
	}
}
