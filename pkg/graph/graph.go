package graph

import (
	"context"
	"time"

	"github.com/thoth-station/adviser/pkg/stack"
)

// ObservationKind classifies what an observation is about.
type ObservationKind string

const (
	ObservationPerformance ObservationKind = "performance"
	ObservationSecurity    ObservationKind = "security"
	ObservationBuild       ObservationKind = "build"
	ObservationRuntime     ObservationKind = "runtime"
)

// Observation is a scored fact recorded about one package version.
type Observation struct {
	ID        string               `json:"id" yaml:"id,omitempty"`
	Package   stack.PackageVersion `json:"package" yaml:"package"`
	Kind      ObservationKind      `json:"kind" yaml:"kind"`
	Score     float64              `json:"score" yaml:"score"`
	Message   string               `json:"message" yaml:"message"`
	Link      string               `json:"link,omitempty" yaml:"link,omitempty"`
	CreatedAt time.Time            `json:"created_at" yaml:"created_at,omitempty"`
}

// Environment selects solver results. Empty fields match any value.
type Environment struct {
	OSName        string `json:"os_name,omitempty" yaml:"os_name,omitempty"`
	OSVersion     string `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	PythonVersion string `json:"python_version,omitempty" yaml:"python_version,omitempty"`
}

// KnowledgeGraph is the read side of the knowledge base units query while a
// pipeline is built and run.
type KnowledgeGraph interface {
	// HasSolverResult reports whether pv was solved successfully in env.
	HasSolverResult(ctx context.Context, pv stack.PackageVersion, env Environment) (bool, error)

	// Observations returns the observations recorded for pv, oldest first.
	Observations(ctx context.Context, pv stack.PackageVersion) ([]Observation, error)

	// IsIndexEnabled reports whether the package index at url may be used.
	// Unknown indexes are disabled.
	IsIndexEnabled(ctx context.Context, url string) (bool, error)

	// PackageVersions lists the known versions of a package.
	PackageVersions(ctx context.Context, name string) ([]stack.PackageVersion, error)
}
