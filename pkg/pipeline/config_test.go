package pipeline

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestConfig_Order(t *testing.T) {
	// Units are handed over interleaved; each lands in its kind's sequence.
	cfg := mustConfig(t,
		newUnit(KindWrap, "w1", nil),
		newUnit(KindBoot, "b1", nil),
		newUnit(KindStep, "t1", nil),
		newUnit(KindSieve, "s1", nil),
		newUnit(KindBoot, "b2", nil),
		newUnit(KindPseudonym, "p1", nil),
		newUnit(KindStride, "r1", nil),
		newUnit(KindStep, "t2", nil),
	)

	forward := names(cfg.Units())
	want := []string{"b1", "b2", "s1", "t1", "t2", "r1", "w1"}
	if !reflect.DeepEqual(forward, want) {
		t.Errorf("Units() = %v, want %v", forward, want)
	}

	reversed := names(cfg.UnitsReversed())
	slices.Reverse(forward)
	if !reflect.DeepEqual(reversed, forward) {
		t.Errorf("UnitsReversed() = %v, want %v", reversed, forward)
	}

	if cfg.Len() != 8 {
		t.Errorf("Len() = %d, want 8", cfg.Len())
	}
}

func TestConfig_UnitsStopEarly(t *testing.T) {
	cfg := mustConfig(t,
		newUnit(KindBoot, "b1", nil),
		newUnit(KindBoot, "b2", nil),
		newUnit(KindWrap, "w1", nil),
	)

	var got []string
	for u := range cfg.UnitsReversed() {
		got = append(got, u.Name())
		if len(got) == 2 {
			break
		}
	}
	if !reflect.DeepEqual(got, []string{"w1", "b2"}) {
		t.Errorf("got %v", got)
	}
}

func TestConfig_Pseudonyms(t *testing.T) {
	tf := newUnit(KindPseudonym, "tf", nil).(*testPseudonym)
	other := newUnit(KindPseudonym, "other", nil).(*testPseudonym)
	other.pkg = "torch"
	tf2 := newUnit(KindPseudonym, "tf2", nil)

	cfg := mustConfig(t, tf, other, tf2)

	if got := unitNames(cfg.Pseudonyms("tensorflow")); !reflect.DeepEqual(got, []string{"tf", "tf2"}) {
		t.Errorf("Pseudonyms(tensorflow) = %v", got)
	}
	if got := unitNames(cfg.Pseudonyms("numpy")); len(got) != 0 {
		t.Errorf("Pseudonyms(numpy) = %v", got)
	}
	if got := len(cfg.AllPseudonyms()); got != 3 {
		t.Errorf("AllPseudonyms() has %d entries", got)
	}
	if n := len(names(cfg.Units())); n != 0 {
		t.Errorf("pseudonyms leaked into Units(): %d", n)
	}
}

func TestNewConfig_InvalidUnits(t *testing.T) {
	tests := []struct {
		name string
		unit Unit
		code string
	}{
		{
			name: "unknown kind",
			unit: &testWrap{hooks: hooks{Base: Base{name: "x", kind: "gizmo"}}},
			code: ErrCodeUnknownKind,
		},
		{
			name: "kind mismatch",
			unit: &testWrap{hooks: hooks{Base: Base{name: "x", kind: KindBoot}}},
			code: ErrCodeKindMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig([]Unit{tt.unit})
			if !IsInternal(err) {
				t.Fatalf("expected internal error, got %v", err)
			}
			var e *Error
			if errors.As(err, &e) && e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestConfig_HookOrder(t *testing.T) {
	var log []string
	cfg := mustConfig(t,
		newUnit(KindBoot, "b1", &log),
		newUnit(KindPseudonym, "p1", &log),
		newUnit(KindSieve, "s1", &log),
		newUnit(KindWrap, "w1", &log),
	)
	rc := newTestRunContext()

	if err := cfg.CallPreRun(rc); err != nil {
		t.Fatalf("CallPreRun: %v", err)
	}
	if err := cfg.CallPostRun(rc); err != nil {
		t.Fatalf("CallPostRun: %v", err)
	}
	if err := cfg.CallPostRunReport(rc, productCount(1)); err != nil {
		t.Fatalf("CallPostRunReport: %v", err)
	}

	want := []string{
		"pre_run:b1", "pre_run:s1", "pre_run:w1", "pre_run:p1",
		"post_run:p1", "post_run:w1", "post_run:s1", "post_run:b1",
		"post_run_report:p1", "post_run_report:w1", "post_run_report:s1", "post_run_report:b1",
	}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("hook order:\n got  %v\n want %v", log, want)
	}
}

func TestConfig_HookFailureAborts(t *testing.T) {
	tests := []struct {
		name     string
		hook     string
		panics   bool
		call     func(*Config, *RunContext) error
		wantLog  []string
		wantCode string
	}{
		{
			name:     "pre_run error",
			hook:     HookPreRun,
			call:     (*Config).CallPreRun,
			wantLog:  []string{"pre_run:a", "pre_run:b"},
			wantCode: ErrCodeHookFailed,
		},
		{
			name:     "post_run panic",
			hook:     HookPostRun,
			panics:   true,
			call:     (*Config).CallPostRun,
			wantLog:  []string{"post_run:c", "post_run:b"},
			wantCode: ErrCodeHookPanicked,
		},
		{
			name: "post_run_report error",
			hook: HookPostRunReport,
			call: func(c *Config, rc *RunContext) error {
				return c.CallPostRunReport(rc, productCount(0))
			},
			wantLog:  []string{"post_run_report:c", "post_run_report:b"},
			wantCode: ErrCodeHookFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			failing := newUnit(KindStep, "b", &log).(*testStep)
			if tt.panics {
				failing.panicHook = tt.hook
			} else {
				failing.failHook = tt.hook
			}
			cfg := mustConfig(t,
				newUnit(KindBoot, "a", &log),
				failing,
				newUnit(KindWrap, "c", &log),
			)

			err := tt.call(cfg, newTestRunContext())
			if !IsUnitError(err) {
				t.Fatalf("expected unit error, got %v", err)
			}

			var e *Error
			errors.As(err, &e)
			if e.Unit != "b" || e.Kind != KindStep || e.Hook != tt.hook || e.Code != tt.wantCode {
				t.Errorf("unexpected error fields: %+v", e)
			}
			if !tt.panics && !errors.Is(err, errBoom) {
				t.Errorf("original error not wrapped: %v", err)
			}
			if !reflect.DeepEqual(log, tt.wantLog) {
				t.Errorf("log = %v, want %v", log, tt.wantLog)
			}
		})
	}
}

func TestConfig_ReleasedContextPanics(t *testing.T) {
	u := newUnit(KindBoot, "b1", nil).(*testBoot)
	u.do = func(rc *RunContext) {
		rc.Release()
		_ = rc.Project()
	}
	cfg := mustConfig(t, u)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrContextReleased) {
			t.Errorf("recover() = %v, want ErrContextReleased", r)
		}
	}()
	_ = cfg.CallPreRun(newTestRunContext())
	t.Error("expected panic")
}
