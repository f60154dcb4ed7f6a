package pipeline

import (
	"errors"
	"iter"
	"testing"

	"github.com/thoth-station/adviser/pkg/stack"
)

var errBoom = errors.New("boom")

// hooks records lifecycle calls into a shared log and can be told to fail
// or panic in one of them.
type hooks struct {
	Base
	log       *[]string
	failHook  string
	panicHook string
	do        func(rc *RunContext)
}

func (h *hooks) hook(rc *RunContext, name string) error {
	if h.log != nil {
		*h.log = append(*h.log, name+":"+h.Name())
	}
	if h.do != nil {
		h.do(rc)
	}
	if name == h.panicHook {
		panic("kaboom")
	}
	if name == h.failHook {
		return errBoom
	}
	return nil
}

func (h *hooks) PreRun(rc *RunContext) error  { return h.hook(rc, HookPreRun) }
func (h *hooks) PostRun(rc *RunContext) error { return h.hook(rc, HookPostRun) }
func (h *hooks) PostRunReport(rc *RunContext, _ Summary) error {
	return h.hook(rc, HookPostRunReport)
}

type testBoot struct {
	hooks
	reject string
}

func (b *testBoot) Run(*RunContext) Result {
	if b.log != nil {
		*b.log = append(*b.log, "run:"+b.Name())
	}
	if b.reject != "" {
		return Reject(b.reject)
	}
	return Accept()
}

type testSieve struct {
	hooks
	drop string
}

func (s *testSieve) Run(_ *RunContext, candidates iter.Seq[stack.PackageVersion]) iter.Seq[stack.PackageVersion] {
	return func(yield func(stack.PackageVersion) bool) {
		for pv := range candidates {
			if pv.Name == s.drop {
				continue
			}
			if !yield(pv) {
				return
			}
		}
	}
}

type testStep struct {
	hooks
	result Result
}

func (s *testStep) Run(*RunContext, *stack.State, stack.PackageVersion) Result {
	return s.result
}

type testStride struct {
	hooks
	reject string
}

func (s *testStride) Run(_ *RunContext, state *stack.State) Result {
	if s.reject != "" {
		return Reject(s.reject)
	}
	return Accept(stack.Justification{Type: stack.JustificationInfo, Message: s.Name()})
}

type testWrap struct {
	hooks
}

func (w *testWrap) Run(_ *RunContext, state *stack.State) {
	state.AddJustification(stack.Justification{Type: stack.JustificationInfo, Message: "wrapped by " + w.Name()})
}

type testPseudonym struct {
	hooks
	pkg   string
	alias string
}

func (p *testPseudonym) PackageName() string {
	if name, ok := p.Configuration()["package_name"].(string); ok {
		return name
	}
	return p.pkg
}

func (p *testPseudonym) Run(_ *RunContext, pv stack.PackageVersion) iter.Seq[stack.Alias] {
	return func(yield func(stack.Alias) bool) {
		yield(stack.Alias{Name: p.alias, Version: pv.Version, Index: pv.Index})
	}
}

// newUnit builds a unit of kind directly, bypassing the catalogue.
func newUnit(kind Kind, name string, log *[]string) Unit {
	h := hooks{Base: Base{name: name, kind: kind}, log: log}
	switch kind {
	case KindBoot:
		return &testBoot{hooks: h}
	case KindSieve:
		return &testSieve{hooks: h}
	case KindStep:
		return &testStep{hooks: h, result: Accept()}
	case KindStride:
		return &testStride{hooks: h}
	case KindWrap:
		return &testWrap{hooks: h}
	case KindPseudonym:
		return &testPseudonym{hooks: h, pkg: "tensorflow", alias: "intel-tensorflow"}
	default:
		panic("unknown kind " + string(kind))
	}
}

func mustConfig(t *testing.T, units ...Unit) *Config {
	t.Helper()
	cfg, err := NewConfig(units)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func names(seq iter.Seq[Unit]) []string {
	var out []string
	for u := range seq {
		out = append(out, u.Name())
	}
	return out
}

type productCount int

func (p productCount) ProductCount() int { return int(p) }

func always(cfgs ...Configuration) func(*BuilderContext) []Configuration {
	return func(*BuilderContext) []Configuration { return cfgs }
}

func newTestCatalogue(t *testing.T, defs ...Definition) *Catalogue {
	t.Helper()
	cat := NewCatalogue(nil)
	if err := cat.Register(defs...); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return cat
}

func newTestRunContext() *RunContext {
	return NewRunContext(RunOptions{RecommendationType: RecommendationLatest, Count: 3})
}
