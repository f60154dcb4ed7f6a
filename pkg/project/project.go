// Package project models the project descriptor an adviser run works on: the
// requirements, an optional locked manifest and the runtime environment the
// stack is meant for.
package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/thoth-station/adviser/pkg/stack"
)

// OperatingSystem describes the operating system of a runtime environment.
type OperatingSystem struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Hardware describes the hardware of a runtime environment.
type Hardware struct {
	CPUFamily int    `json:"cpu_family,omitempty" yaml:"cpu_family,omitempty" validate:"gte=0"`
	CPUModel  int    `json:"cpu_model,omitempty" yaml:"cpu_model,omitempty" validate:"gte=0"`
	GPUModel  string `json:"gpu_model,omitempty" yaml:"gpu_model,omitempty"`
}

// RuntimeEnvironment describes where the resolved stack will run.
type RuntimeEnvironment struct {
	Name            string          `json:"name,omitempty" yaml:"name,omitempty"`
	OperatingSystem OperatingSystem `json:"operating_system,omitempty" yaml:"operating_system,omitempty"`
	PythonVersion   string          `json:"python_version,omitempty" yaml:"python_version,omitempty" validate:"omitempty,python_version"`
	Hardware        Hardware        `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	CUDAVersion     string          `json:"cuda_version,omitempty" yaml:"cuda_version,omitempty"`
	CuDNNVersion    string          `json:"cudnn_version,omitempty" yaml:"cudnn_version,omitempty"`
	MKLVersion      string          `json:"mkl_version,omitempty" yaml:"mkl_version,omitempty"`
	BaseImage       string          `json:"base_image,omitempty" yaml:"base_image,omitempty"`
	Platform        string          `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// IsFullySpecified reports whether the operating system and Python version
// are all known.
func (r RuntimeEnvironment) IsFullySpecified() bool {
	return r.OperatingSystem.Name != "" && r.OperatingSystem.Version != "" && r.PythonVersion != ""
}

// Project is the descriptor of the application a stack is resolved for.
type Project struct {
	Name               string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Requirements       []string               `json:"requirements" yaml:"requirements" validate:"required,min=1,dive,required"`
	RequirementsLocked []stack.PackageVersion `json:"requirements_locked,omitempty" yaml:"requirements_locked,omitempty" validate:"dive"`
	Indexes            []string               `json:"indexes,omitempty" yaml:"indexes,omitempty" validate:"dive,url"`
	RuntimeEnvironment RuntimeEnvironment     `json:"runtime_environment,omitempty" yaml:"runtime_environment,omitempty"`
}

// HasLocked reports whether the project carries a locked manifest.
func (p *Project) HasLocked() bool {
	return len(p.RequirementsLocked) > 0
}

// RequirementNames returns the bare package names of the direct requirements.
func (p *Project) RequirementNames() []string {
	names := make([]string, 0, len(p.Requirements))
	for _, req := range p.Requirements {
		names = append(names, requirementName(req))
	}
	return names
}

// requirementName strips version specifiers, extras and markers.
func requirementName(req string) string {
	name := strings.TrimSpace(req)
	if i := strings.IndexAny(name, "<>=!~;[ "); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// LibraryUsage maps a library name to the symbols an application uses from it.
type LibraryUsage map[string][]string

// Uses reports whether the application uses the given symbol of library.
func (u LibraryUsage) Uses(library, symbol string) bool {
	for _, s := range u[library] {
		if s == symbol {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("python_version", func(fl validator.FieldLevel) bool {
		major, minor, ok := strings.Cut(fl.Field().String(), ".")
		return ok && isDigits(major) && isDigits(minor)
	})
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks the project descriptor.
func (p *Project) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid project: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid project: %w", err)
	}
	return nil
}

// Parse decodes and validates a YAML (or JSON) project descriptor.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a project descriptor from path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
