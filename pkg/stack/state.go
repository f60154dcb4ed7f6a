package stack

import (
	"maps"
	"slices"
)

// State is a (partially or fully) resolved candidate stack.
//
// States are owned by the resolver; units read them and may append
// justification or advised manifest changes, and steps may adjust Score.
type State struct {
	// Score is the accumulated score of the decisions taken so far.
	Score float64 `json:"score"`

	// Iteration is the resolver iteration that produced the state.
	Iteration int `json:"iteration"`

	// ResolvedDependencies maps package name to the pinned package.
	ResolvedDependencies map[string]PackageVersion `json:"resolved_dependencies"`

	// UnresolvedDependencies are packages still to be resolved.
	UnresolvedDependencies map[string][]PackageVersion `json:"unresolved_dependencies,omitempty"`

	// Justification accumulates notes explaining the state.
	Justification []Justification `json:"justification,omitempty"`

	// AdvisedManifestChanges accumulates manifest changes proposed by wraps.
	AdvisedManifestChanges []ManifestChange `json:"advised_manifest_changes,omitempty"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		ResolvedDependencies:   make(map[string]PackageVersion),
		UnresolvedDependencies: make(map[string][]PackageVersion),
	}
}

// AddResolved pins a package in the state.
func (s *State) AddResolved(pv PackageVersion) {
	if s.ResolvedDependencies == nil {
		s.ResolvedDependencies = make(map[string]PackageVersion)
	}
	s.ResolvedDependencies[pv.Name] = pv
	delete(s.UnresolvedDependencies, pv.Name)
}

// AddJustification appends justification entries.
func (s *State) AddJustification(j ...Justification) {
	s.Justification = append(s.Justification, j...)
}

// AddManifestChange appends advised manifest changes.
func (s *State) AddManifestChange(c ...ManifestChange) {
	s.AdvisedManifestChanges = append(s.AdvisedManifestChanges, c...)
}

// IsFinal reports whether every dependency has been resolved.
func (s *State) IsFinal() bool {
	return len(s.UnresolvedDependencies) == 0
}

// Packages returns the resolved packages sorted by name.
func (s *State) Packages() []PackageVersion {
	names := slices.Sorted(maps.Keys(s.ResolvedDependencies))
	out := make([]PackageVersion, 0, len(names))
	for _, name := range names {
		out = append(out, s.ResolvedDependencies[name])
	}
	return out
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Score:                  s.Score,
		Iteration:              s.Iteration,
		ResolvedDependencies:   maps.Clone(s.ResolvedDependencies),
		UnresolvedDependencies: make(map[string][]PackageVersion, len(s.UnresolvedDependencies)),
		Justification:          slices.Clone(s.Justification),
		AdvisedManifestChanges: slices.Clone(s.AdvisedManifestChanges),
	}
	for name, pvs := range s.UnresolvedDependencies {
		c.UnresolvedDependencies[name] = slices.Clone(pvs)
	}
	if c.ResolvedDependencies == nil {
		c.ResolvedDependencies = make(map[string]PackageVersion)
	}
	return c
}
