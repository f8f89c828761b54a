package migrate

import (
	"errors"

	"github.com/openacq/metamigrate/internal/record"
)

// anchorGroups are the file groups at least one of which must be fully
// present in every record. A record with neither group cannot be identified
// or indexed downstream.
var anchorGroups = [][]string{
	{record.Subject, record.DataDescription},
	{record.DataDescription, record.Processing},
}

// triggerRule declares that the presence of one core file requires others.
type triggerRule struct {
	trigger  string
	requires []string
}

// triggerRules are evaluated in order whenever their trigger file is present.
// Unlike the anchor groups these always run: a record carrying an
// acquisition that references no instrument is broken no matter how lenient
// the caller asked validation to be.
var triggerRules = []triggerRule{
	{trigger: record.Acquisition, requires: []string{record.Subject, record.DataDescription, record.Instrument}},
	{trigger: record.Processing, requires: []string{record.DataDescription}},
	{trigger: record.QualityControl, requires: []string{record.DataDescription}},
}

// validateRequiredSets enforces the co-presence rules over the processed
// core files. It runs strictly after processing and alias resolution, so the
// map holds canonical names only. skipAnchors disables the anchor-group
// check but never the trigger rules.
func validateRequiredSets(processed map[string]map[string]any, skipAnchors bool) error {
	present := func(name string) bool {
		doc, ok := processed[name]
		return ok && doc != nil
	}

	if !skipAnchors {
		anchored := false
		for _, group := range anchorGroups {
			complete := true
			for _, name := range group {
				if !present(name) {
					complete = false
					break
				}
			}
			if complete {
				anchored = true
				break
			}
		}
		if !anchored {
			return &AnchorError{Groups: anchorGroups}
		}
	}

	var violations []error
	for _, rule := range triggerRules {
		if !present(rule.trigger) {
			continue
		}
		var missing []string
		for _, name := range rule.requires {
			if !present(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			violations = append(violations, &DependencyError{
				Trigger:  rule.trigger,
				Requires: rule.requires,
				Missing:  missing,
			})
		}
	}

	return errors.Join(violations...)
}
