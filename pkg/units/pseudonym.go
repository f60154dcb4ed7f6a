package units

import (
	"iter"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

// AliasPseudonym proposes alias_name as an alternative to package_name,
// pinned to the same version. With a knowledge graph the alias is only
// proposed when the graph knows that version of it.
//
// The builder registers one instance per configured alias pair.
type AliasPseudonym struct {
	pipeline.Base
}

func aliasPseudonymDefinition(aliases map[string]string) pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindPseudonym,
		Description: "Proposes a configured alias for a package",
		Defaults:    pipeline.Configuration{"package_name": "", "alias_name": "", "alias_index": ""},
		Schema: `package_name: string & != ""
alias_name: string & != ""
alias_index: string`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			if len(aliases) == 0 {
				return nil
			}
			configurations := make([]pipeline.Configuration, 0, len(aliases))
			for _, name := range sortedKeys(aliases) {
				configurations = append(configurations, pipeline.Configuration{
					"package_name": name,
					"alias_name":   aliases[name],
				})
			}
			return configurations
		},
		New: func() pipeline.Unit { return &AliasPseudonym{} },
	}
}

// PackageName implements pipeline.Pseudonym.
func (p *AliasPseudonym) PackageName() string {
	return stringValue(p.Configuration(), "package_name")
}

// Run implements pipeline.Pseudonym.
func (p *AliasPseudonym) Run(rc *pipeline.RunContext, pv stack.PackageVersion) iter.Seq[stack.Alias] {
	cfg := p.Configuration()
	alias := stack.Alias{
		Name:    stringValue(cfg, "alias_name"),
		Version: pv.Version,
		Index:   pv.Index,
	}
	if index := stringValue(cfg, "alias_index"); index != "" {
		alias.Index = index
	}

	return func(yield func(stack.Alias) bool) {
		if kg := rc.Graph(); kg != nil {
			versions, err := kg.PackageVersions(rc.Context(), alias.Name)
			if err != nil {
				rc.Logger().Warn().Err(err).Str("alias", alias.Name).Msg("Alias lookup failed")
				return
			}
			known := false
			for _, v := range versions {
				if v.Version == alias.Version {
					known = true
					break
				}
			}
			if !known {
				return
			}
		}
		yield(alias)
	}
}
