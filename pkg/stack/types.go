// Package stack defines the value types shared by pipeline units, the
// resolver and reports: package versions, aliases, justifications and the
// candidate state assembled during resolution.
package stack

import (
	"fmt"
	"strings"
)

// PackageVersion identifies a pinned Python package from a specific index.
type PackageVersion struct {
	// Name is the normalized package name (e.g., "tensorflow").
	Name string `json:"name" yaml:"name" validate:"required"`

	// Version is the exact version, without the "==" prefix.
	Version string `json:"version" yaml:"version" validate:"required"`

	// Index is the URL of the Python package index serving the package.
	Index string `json:"index" yaml:"index" validate:"required"`

	// Develop marks development-only dependencies.
	Develop bool `json:"develop,omitempty" yaml:"develop,omitempty"`
}

// String renders the package as a "name==version" pin with its index.
func (p PackageVersion) String() string {
	return fmt.Sprintf("%s==%s from %s", p.Name, p.Version, p.Index)
}

// Tuple returns the (name, version, index) triple identifying the package.
func (p PackageVersion) Tuple() [3]string {
	return [3]string{p.Name, p.Version, p.Index}
}

// IsPrerelease reports whether the version carries a PEP 440 pre-release or
// development segment.
func (p PackageVersion) IsPrerelease() bool {
	v := strings.ToLower(p.Version)
	for _, marker := range []string{"dev", "rc", "a", "b", "alpha", "beta", "pre", "preview", "c"} {
		idx := strings.Index(v, marker)
		if idx <= 0 {
			continue
		}
		// The marker must follow a digit or separator, e.g. 2.0.0rc1 or 1.0.dev3.
		prev := v[idx-1]
		if (prev >= '0' && prev <= '9') || prev == '.' || prev == '-' || prev == '_' {
			return true
		}
	}
	return false
}

// Alias is an alternative package proposed for a package version.
type Alias struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Index   string `json:"index"`
}

// PackageVersion converts the alias into a resolvable package version.
func (a Alias) PackageVersion() PackageVersion {
	return PackageVersion{Name: a.Name, Version: a.Version, Index: a.Index}
}

// JustificationType classifies a justification entry.
type JustificationType string

const (
	// JustificationInfo is an informational note.
	JustificationInfo JustificationType = "INFO"

	// JustificationWarning flags something the user should review.
	JustificationWarning JustificationType = "WARNING"

	// JustificationError reports a problem that affected the result.
	JustificationError JustificationType = "ERROR"
)

// Justification is a structured note attached to a candidate explaining a
// decision taken by a unit.
type Justification struct {
	Type    JustificationType `json:"type" yaml:"type"`
	Message string            `json:"message" yaml:"message"`
	Link    string            `json:"link,omitempty" yaml:"link,omitempty"`

	// Package optionally names the package the note refers to.
	Package string `json:"package_name,omitempty" yaml:"package_name,omitempty"`
}

// ManifestChange records an advised modification of a deployment manifest.
type ManifestChange struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	Path       string `json:"path"`
	Value      any    `json:"value"`
}
