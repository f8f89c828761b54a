package migrate

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Transform rewrites one core-file document toward the target schema version.
// It receives the working document (already deep-copied from the input), the
// version it must produce, and the per-call Pass for cross-file reads and
// accumulated state. Transforms may mutate and return the working document or
// build a fresh one.
type Transform func(doc map[string]any, target string, pass *Pass) (map[string]any, error)

// Step is one matched transform together with its registered name, which
// reports and verbose output use to identify it.
type Step struct {
	Name string
	Fn   Transform
}

// Range bounds the schema versions a transform applies to. Bounds are
// inclusive and an empty side is open, so the zero Range matches everything.
type Range struct {
	Min string
	Max string
}

// Contains reports whether version falls inside the range. Versions are
// compared as semantic versions; unparsable or absent values count as 0.0.0.
func (r Range) Contains(version string) bool {
	v := normalizeVersion(version)
	if r.Min != "" && semver.Compare(v, normalizeVersion(r.Min)) < 0 {
		return false
	}
	if r.Max != "" && semver.Compare(v, normalizeVersion(r.Max)) > 0 {
		return false
	}
	return true
}

// String renders the range for registration errors and verbose output.
func (r Range) String() string {
	min := r.Min
	if min == "" {
		min = "*"
	}
	max := r.Max
	if max == "" {
		max = "*"
	}
	return fmt.Sprintf("[%s, %s]", min, max)
}

// normalizeVersion maps a declared schema version onto the canonical "vX.Y.Z"
// form the semver package compares. Legacy records hold versions without the
// "v" prefix, with missing segments, or with junk; anything unparsable is the
// lowest possible version.
func normalizeVersion(version string) string {
	if version == "" {
		return "v0.0.0"
	}
	v := version
	if v[0] != 'v' {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return semver.Canonical(v)
	}
	return "v0.0.0"
}

// SameVersion reports whether two declared schema versions are equal once
// normalized, so "2.0.0" and "v2.0" compare equal.
func SameVersion(a, b string) bool {
	return semver.Compare(normalizeVersion(a), normalizeVersion(b)) == 0
}

// entry is one registered transform with its applicability range.
type entry struct {
	name    string
	applies Range
	fn      Transform
}

// Registry maps core-file names to ordered transform chains. Names are the
// keys as they appear in legacy records, so the chain registered for "rig"
// is distinct from the chain registered for "instrument" even though both
// produce an instrument document.
//
// A Registry is populated once at startup and is read-only afterwards, which
// makes concurrent Match calls safe.
type Registry struct {
	chains map[string][]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[string][]entry)}
}

// Register appends a transform to the chain for coreFile. Transforms run in
// registration order. The name must be unique within the core file's chain.
func (r *Registry) Register(coreFile, name string, applies Range, fn Transform) error {
	if name == "" {
		return fmt.Errorf("registering transform for %q: name must not be empty", coreFile)
	}
	if fn == nil {
		return fmt.Errorf("registering transform %q for %q: nil transform", name, coreFile)
	}
	for _, e := range r.chains[coreFile] {
		if e.name == name {
			return fmt.Errorf("transform %q already registered for %q", name, coreFile)
		}
	}
	r.chains[coreFile] = append(r.chains[coreFile], entry{name: name, applies: applies, fn: fn})
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (r *Registry) MustRegister(coreFile, name string, applies Range, fn Transform) {
	if err := r.Register(coreFile, name, applies, fn); err != nil {
		panic(err)
	}
}

// Match returns the transforms registered for coreFile whose ranges contain
// version, in registration order. Unknown names return an empty list, never
// an error: legacy records carry file types the registry has no chain for,
// and those pass through with only a version restamp.
func (r *Registry) Match(coreFile, version string) []Step {
	chain, ok := r.chains[coreFile]
	if !ok {
		return nil
	}
	var steps []Step
	for _, e := range chain {
		if e.applies.Contains(version) {
			steps = append(steps, Step{Name: e.name, Fn: e.fn})
		}
	}
	return steps
}

// Names returns the core-file names that have at least one registered
// transform, in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	return names
}
