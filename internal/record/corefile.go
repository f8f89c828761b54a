// Package record defines the shape of a metadata record: the closed set of
// core-file keys, legacy aliases, envelope bookkeeping fields, and helpers
// for reading and copying JSON-compatible documents.
package record

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Core-file keys. A record is a single JSON document whose top level holds
// one entry per core file plus the envelope fields.
const (
	Subject         = "subject"
	DataDescription = "data_description"
	Procedures      = "procedures"
	Instrument      = "instrument"
	Processing      = "processing"
	Acquisition     = "acquisition"
	QualityControl  = "quality_control"
	Rig             = "rig"
	Session         = "session"
)

// Canonicals is the fixed order over the canonical core-file keys, the keys
// an assembled record carries.
var Canonicals = []string{
	Subject,
	DataDescription,
	Procedures,
	Instrument,
	Processing,
	Acquisition,
	QualityControl,
}

// Order is the fixed iteration order over all core-file keys. Migration
// walks records in this order, so canonical entries are always visited
// before the legacy aliases that fold into them.
var Order = append(append([]string{}, Canonicals...), Rig, Session)

// aliases maps legacy core-file keys to their canonical replacements.
var aliases = map[string]string{
	Rig:     Instrument,
	Session: Acquisition,
}

// names holds every known core-file key, aliases included.
var names = sets.New(Order...)

// ranks maps each core-file key to its position in Order.
var ranks = func() map[string]int {
	m := make(map[string]int, len(Order))
	for i, name := range Order {
		m[name] = i
	}
	return m
}()

// IsCoreFile reports whether name is a known core-file key (canonical or
// legacy alias). Envelope fields and unknown keys are not core files.
func IsCoreFile(name string) bool {
	return names.Has(name)
}

// IsAlias reports whether name is a legacy alias that folds into another
// core file.
func IsAlias(name string) bool {
	_, ok := aliases[name]
	return ok
}

// Canonical returns the canonical core-file key for name: the alias target
// for legacy keys, name itself otherwise.
func Canonical(name string) string {
	if target, ok := aliases[name]; ok {
		return target
	}
	return name
}

// Rank returns the position of name in the fixed iteration order. Unknown
// names sort after every known core file.
func Rank(name string) int {
	if r, ok := ranks[name]; ok {
		return r
	}
	return len(Order)
}

// CoreFileNames returns the core-file keys as a sorted list, useful for
// error messages enumerating the closed set.
func CoreFileNames() []string {
	return sets.List(names)
}
