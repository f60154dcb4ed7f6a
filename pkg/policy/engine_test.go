package policy

import (
	"errors"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/project"
	"github.com/thoth-station/adviser/pkg/stack"
)

const pypi = "https://pypi.org/simple"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(zerolog.New(nil).Level(zerolog.Disabled))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func stateOf(pkgs ...stack.PackageVersion) *stack.State {
	s := stack.NewState()
	for _, p := range pkgs {
		s.AddResolved(p)
	}
	return s
}

func TestNewEngine(t *testing.T) {
	eng := newTestEngine(t)

	var names []string
	for _, p := range eng.List() {
		names = append(names, p.Name)
	}
	want := []string{"package-index", "python-version", "stable-prerelease"}
	if !slices.Equal(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestEvaluate_Builtins(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name         string
		state        *stack.State
		env          *project.RuntimeEnvironment
		rt           string
		wantAllowed  bool
		wantBlocking int
		wantWarnings int
	}{
		{
			name:        "clean stable state",
			state:       stateOf(stack.PackageVersion{Name: "flask", Version: "2.0.1", Index: pypi}),
			env:         &project.RuntimeEnvironment{PythonVersion: "3.11"},
			rt:          "stable",
			wantAllowed: true,
		},
		{
			name:         "pre-release in stable",
			state:        stateOf(stack.PackageVersion{Name: "tensorflow", Version: "2.0.0rc1", Index: pypi}),
			rt:           "stable",
			wantAllowed:  false,
			wantBlocking: 1,
		},
		{
			name:        "pre-release in latest",
			state:       stateOf(stack.PackageVersion{Name: "tensorflow", Version: "2.0.0rc1", Index: pypi}),
			rt:          "latest",
			wantAllowed: true,
		},
		{
			name:         "missing index",
			state:        stateOf(stack.PackageVersion{Name: "six", Version: "1.16.0"}),
			rt:           "stable",
			wantAllowed:  true,
			wantWarnings: 1,
		},
		{
			name:         "end-of-life python",
			state:        stateOf(stack.PackageVersion{Name: "six", Version: "1.16.0", Index: pypi}),
			env:          &project.RuntimeEnvironment{PythonVersion: "3.6"},
			rt:           "stable",
			wantAllowed:  true,
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewStateInput(tt.state, tt.env, InputContext{RecommendationType: tt.rt})
			result, err := eng.Evaluate(t.Context(), input)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if len(result.Violations) != tt.wantBlocking {
				t.Errorf("Violations = %v, want %d", result.Violations, tt.wantBlocking)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d", result.Warnings, tt.wantWarnings)
			}
			if len(result.EvaluatedPolicies) != 3 {
				t.Errorf("EvaluatedPolicies = %v", result.EvaluatedPolicies)
			}
		})
	}
}

func TestEvaluate_ViolationFields(t *testing.T) {
	eng := newTestEngine(t)

	input := NewStateInput(
		stateOf(stack.PackageVersion{Name: "numpy", Version: "2.0.0b1", Index: pypi}),
		nil,
		InputContext{RecommendationType: "stable"},
	)
	result, err := eng.Evaluate(t.Context(), input)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("Violations = %v", result.Violations)
	}

	v := result.Violations[0]
	if v.Policy != "stable-prerelease" || v.Package != "numpy" || v.Severity != SeverityError {
		t.Errorf("unexpected violation %+v", v)
	}
	j := v.Justification()
	if j.Type != stack.JustificationError || j.Package != "numpy" || j.Message != v.Message {
		t.Errorf("Justification() = %+v", j)
	}
}

func TestAddPolicy_CustomDeny(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.AddPolicy(t.Context(), Policy{
		Name:    "no-urllib3",
		Enabled: true,
		Rego: `package custom.urllib3

deny[msg] {
	input.packages[_].name == "urllib3"
	msg := "urllib3 is not allowed"
}`,
	})
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	p, err := eng.Get("no-urllib3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Severity != SeverityError {
		t.Errorf("default severity = %s, want error", p.Severity)
	}

	input := NewStateInput(stateOf(stack.PackageVersion{Name: "urllib3", Version: "1.26.0", Index: pypi}), nil, InputContext{})
	result, err := eng.Evaluate(t.Context(), input)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Allowed {
		t.Fatal("expected state to be rejected")
	}
	if result.Violations[0].Message != "urllib3 is not allowed" {
		t.Errorf("Message = %q", result.Violations[0].Message)
	}
}

func TestAddPolicy_SeverityOverride(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.AddPolicy(t.Context(), Policy{
		Name:     "soft",
		Enabled:  true,
		Severity: SeverityError,
		Rego: `package custom.soft

import rego.v1

deny contains {"message": "just a note", "severity": "info"} if {
	count(input.packages) > 0
}`,
	})
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	input := NewStateInput(stateOf(stack.PackageVersion{Name: "six", Version: "1.0", Index: pypi}), nil, InputContext{})
	result, err := eng.Evaluate(t.Context(), input)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !result.Allowed {
		t.Errorf("info severity must not reject: %+v", result.Violations)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Policy == "soft" && w.Severity == SeverityInfo {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %+v, want soft info entry", result.Warnings)
	}
}

func TestAddPolicy_Invalid(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.AddPolicy(t.Context(), Policy{Name: "broken", Rego: "package broken\n\ndeny[msg] {"})
	if err == nil {
		t.Fatal("expected compile error")
	}
	if _, err := eng.Get("broken"); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("Get() error = %v, want ErrPolicyNotFound", err)
	}
}

func TestEnableDisable(t *testing.T) {
	eng := newTestEngine(t)

	if err := eng.Disable("stable-prerelease"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	input := NewStateInput(stateOf(stack.PackageVersion{Name: "tensorflow", Version: "2.0.0rc1", Index: pypi}), nil, InputContext{RecommendationType: "stable"})
	result, err := eng.Evaluate(t.Context(), input)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !result.Allowed {
		t.Error("disabled policy must not reject")
	}
	if slices.Contains(result.EvaluatedPolicies, "stable-prerelease") {
		t.Error("disabled policy was evaluated")
	}

	if err := eng.Enable("stable-prerelease"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	result, err = eng.Evaluate(t.Context(), input)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Allowed {
		t.Error("re-enabled policy must reject")
	}

	if err := eng.Enable("missing"); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("Enable(missing) error = %v", err)
	}
}

func TestReplacePolicies(t *testing.T) {
	eng := newTestEngine(t)

	custom := Policy{Name: "a", Enabled: true, Rego: "package a\n\ndeny[msg] { false; msg := \"x\" }"}
	if err := eng.AddPolicy(t.Context(), custom); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	replacement := []Policy{{Name: "b", Enabled: true, Rego: "package b\n\ndeny[msg] { false; msg := \"y\" }"}}
	if err := eng.ReplacePolicies(t.Context(), replacement); err != nil {
		t.Fatalf("ReplacePolicies() error = %v", err)
	}
	if _, err := eng.Get("a"); err == nil {
		t.Error("policy a should have been replaced")
	}
	if _, err := eng.Get("b"); err != nil {
		t.Errorf("policy b missing: %v", err)
	}
	if _, err := eng.Get("stable-prerelease"); err != nil {
		t.Errorf("built-in policy dropped: %v", err)
	}

	bad := []Policy{{Name: "c", Rego: "not rego"}}
	if err := eng.ReplacePolicies(t.Context(), bad); err == nil {
		t.Fatal("expected error for invalid replacement")
	}
	if _, err := eng.Get("b"); err != nil {
		t.Errorf("failed replacement must keep previous set: %v", err)
	}
}

func TestEvaluate_NilInput(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Evaluate(t.Context(), nil); err == nil {
		t.Error("expected error for nil input")
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"package thoth.policies.x\n\ndeny[msg] { false }", "thoth.policies.x"},
		{"# comment\npackage  a.b\n", "a.b"},
		{"deny[msg] { false }", ""},
	}
	for _, tt := range tests {
		if got := packageName(tt.source); got != tt.want {
			t.Errorf("packageName(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
