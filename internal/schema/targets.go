package schema

import (
	"github.com/openacq/metamigrate/internal/record"
	"github.com/openacq/metamigrate/internal/version"
)

// targetVersions maps canonical core-file names to the schema version
// migration stamps into them. Every core file currently targets the unified
// model version; the table exists so a single file can diverge without
// touching the engine.
var targetVersions = map[string]string{
	record.Subject:         version.TargetSchemaVersion,
	record.DataDescription: version.TargetSchemaVersion,
	record.Procedures:      version.TargetSchemaVersion,
	record.Instrument:      version.TargetSchemaVersion,
	record.Processing:      version.TargetSchemaVersion,
	record.Acquisition:     version.TargetSchemaVersion,
	record.QualityControl:  version.TargetSchemaVersion,
}

// TargetVersion returns the schema version migration stamps into the named
// core file. Legacy aliases resolve through their canonical name.
func TargetVersion(name string) string {
	if v, ok := targetVersions[record.Canonical(name)]; ok {
		return v
	}
	return version.TargetSchemaVersion
}

// EnvelopeTargetVersion is the schema version stamped onto the assembled
// record envelope.
func EnvelopeTargetVersion() string {
	return version.TargetSchemaVersion
}
