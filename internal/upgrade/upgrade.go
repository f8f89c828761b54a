// Package upgrade holds the per-core-file transforms that rewrite legacy
// (v1.x) metadata documents into the unified 2.0 shapes. Each transform obeys
// the engine contract: it receives the working document, the target version,
// and the per-call pass state, and returns the rewritten document or an
// error. Legacy shapes no transform can map fail loudly; nothing is guessed.
package upgrade

import (
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// legacyRange covers every declared schema version below the 2.0.0 target,
// including the 0.0.0 default stamped on records with no version at all.
var legacyRange = migrate.Range{Max: "1.999.0"}

// DefaultRegistry wires the v1-to-v2 transform chain for every core file.
// Legacy aliases register under their own keys: "rig" produces an instrument
// and "session" produces an acquisition, so their chains differ from the
// canonical ones.
func DefaultRegistry() *migrate.Registry {
	r := migrate.NewRegistry()

	r.MustRegister(record.Subject, "subject-v1v2", legacyRange, Subject)
	r.MustRegister(record.DataDescription, "data-description-v1v2", legacyRange, DataDescription)
	r.MustRegister(record.Procedures, "procedures-v1v2", legacyRange, Procedures)
	r.MustRegister(record.Instrument, "instrument-v1v2", legacyRange, Instrument)
	r.MustRegister(record.Processing, "processing-v1v2", legacyRange, Processing)
	r.MustRegister(record.Acquisition, "acquisition-v1v2", legacyRange, Acquisition)
	r.MustRegister(record.QualityControl, "quality-control-v1v2", legacyRange, QualityControl)
	r.MustRegister(record.Rig, "rig-v1v2", legacyRange, Rig)
	r.MustRegister(record.Session, "session-v1v2", legacyRange, Session)

	return r
}
