package units

import (
	"fmt"
	"strings"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

// PythonVersionBoot back-fills the runtime Python version when the project
// does not state one.
type PythonVersionBoot struct {
	pipeline.Base
}

func pythonVersionBootDefinition() pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindBoot,
		Description: "Back-fills the Python version of the runtime environment",
		Defaults:    pipeline.Configuration{"default_version": "", "fail_on_missing": false},
		Schema: `default_version: string & =~"^([0-9]+\\.[0-9]+)?$"
fail_on_missing: bool`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if bc.Project() == nil {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &PythonVersionBoot{} },
	}
}

// Run implements pipeline.Boot.
func (b *PythonVersionBoot) Run(rc *pipeline.RunContext) pipeline.Result {
	p := rc.Project()
	if p == nil || p.RuntimeEnvironment.PythonVersion != "" {
		return pipeline.Accept()
	}

	cfg := b.Configuration()
	if v := stringValue(cfg, "default_version"); v != "" {
		p.RuntimeEnvironment.PythonVersion = v
		rc.AddStackInfo(stack.Justification{
			Type:    stack.JustificationWarning,
			Message: fmt.Sprintf("No Python version configured, assuming Python %s", v),
		})
		return pipeline.Accept()
	}

	if boolValue(cfg, "fail_on_missing") {
		return pipeline.Reject("the runtime environment does not state a Python version")
	}
	rc.AddStackInfo(stack.Justification{
		Type:    stack.JustificationWarning,
		Message: "No Python version configured, the resolved stack may not be installable",
	})
	return pipeline.Accept()
}

// osAliases maps operating system names to their canonical form.
var osAliases = map[string]string{
	"rhel":   "rhel",
	"redhat": "rhel",
	"ubi":    "rhel",
	"ubi8":   "rhel",
	"ubi9":   "rhel",
	"centos": "centos",
	"fedora": "fedora",
}

// OSNormalizationBoot rewrites the operating system of the runtime
// environment to its canonical name and a major.minor version.
type OSNormalizationBoot struct {
	pipeline.Base
}

func osNormalizationBootDefinition() pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindBoot,
		Description: "Normalizes the operating system name and version",
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if p := bc.Project(); p == nil || p.RuntimeEnvironment.OperatingSystem.Name == "" {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &OSNormalizationBoot{} },
	}
}

// Run implements pipeline.Boot.
func (b *OSNormalizationBoot) Run(rc *pipeline.RunContext) pipeline.Result {
	p := rc.Project()
	if p == nil {
		return pipeline.Accept()
	}
	osys := &p.RuntimeEnvironment.OperatingSystem

	name := NormalizeOSName(osys.Name)
	version := NormalizeOSVersion(osys.Version)
	if name != osys.Name || version != osys.Version {
		rc.AddStackInfo(stack.Justification{
			Type: stack.JustificationInfo,
			Message: fmt.Sprintf("Operating system %q %q was normalized to %q %q",
				osys.Name, osys.Version, name, version),
		})
		rc.Logger().Debug().Str("os_name", name).Str("os_version", version).Msg("Operating system normalized")
	}
	osys.Name = name
	osys.Version = version
	return pipeline.Accept()
}

// NormalizeOSName lowercases name and maps known aliases to their
// canonical name.
func NormalizeOSName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := osAliases[n]; ok {
		return canonical
	}
	return n
}

// NormalizeOSVersion trims a version to major.minor.
func NormalizeOSVersion(version string) string {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}
