package project

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "valid",
			data: `
name: demo
requirements:
  - flask>=1.0
  - numpy
runtime_environment:
  operating_system:
    name: fedora
    version: "32"
  python_version: "3.8"
`,
		},
		{
			name: "json",
			data: `{"requirements": ["flask"], "indexes": ["https://pypi.org/simple"]}`,
		},
		{
			name:    "no requirements",
			data:    `name: demo`,
			wantErr: "Requirements",
		},
		{
			name: "bad python version",
			data: `
requirements: [flask]
runtime_environment:
  python_version: three
`,
			wantErr: "python_version",
		},
		{
			name: "locked package without index",
			data: `
requirements: [flask]
requirements_locked:
  - name: flask
    version: 1.1.2
`,
			wantErr: "Index",
		},
		{
			name:    "bad index url",
			data:    `{"requirements": ["flask"], "indexes": ["not a url"]}`,
			wantErr: "url",
		},
		{
			name:    "malformed yaml",
			data:    "requirements: [flask",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got none", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.Requirements) == 0 {
				t.Error("expected requirements")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	content := "requirements:\n  - Flask[async]==1.1.2\n  - numpy ; python_version > '3.6'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write project: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := p.RequirementNames()
	if !slices.Equal(names, []string{"flask", "numpy"}) {
		t.Errorf("unexpected requirement names: %v", names)
	}
	if p.HasLocked() {
		t.Error("expected no locked manifest")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRuntimeEnvironment_IsFullySpecified(t *testing.T) {
	env := RuntimeEnvironment{PythonVersion: "3.8"}
	if env.IsFullySpecified() {
		t.Error("expected partially specified environment")
	}

	env.OperatingSystem = OperatingSystem{Name: "rhel", Version: "8.2"}
	if !env.IsFullySpecified() {
		t.Error("expected fully specified environment")
	}
}

func TestLibraryUsage_Uses(t *testing.T) {
	usage := LibraryUsage{"tensorflow": {"tensorflow.keras.layers.Dense"}}

	if !usage.Uses("tensorflow", "tensorflow.keras.layers.Dense") {
		t.Error("expected symbol to be used")
	}
	if usage.Uses("tensorflow", "tensorflow.io") {
		t.Error("expected symbol not to be used")
	}
	if usage.Uses("numpy", "numpy.array") {
		t.Error("expected library not to be used")
	}
}
