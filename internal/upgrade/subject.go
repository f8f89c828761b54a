package upgrade

import (
	"github.com/openacq/metamigrate/internal/migrate"
)

// Subject upgrades a subject core file to the target version. The v1 subject
// shape survives into v2 nearly unchanged, so this is a restamp plus the
// object type tag.
func Subject(doc map[string]any, target string, _ *migrate.Pass) (map[string]any, error) {
	doc["object_type"] = "Subject"
	doc["schema_version"] = target
	return doc, nil
}
