package upgrade

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// DataDescription upgrades a data description core file from v1.x to the
// target version: funding and investigators become typed objects, the split
// creation date/time fields merge, and the data level collapses to the
// raw/derived pair.
func DataDescription(doc map[string]any, target string, _ *migrate.Pass) (map[string]any, error) {
	funding, err := upgradeFundingSources(doc)
	if err != nil {
		return nil, err
	}

	institution, err := upgradeInstitution(doc)
	if err != nil {
		return nil, err
	}

	dataLevel, err := upgradeDataLevel(doc)
	if err != nil {
		return nil, err
	}

	modalities, err := upgradeModalities(doc)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"object_type":    "Data description",
		"schema_version": target,
		"subject_id":     doc["subject_id"],
		"name":           doc["name"],
		"creation_time":  upgradeCreationTime(doc),
		"institution":    institution,
		"funding_source": funding,
		"investigators":  upgradeInvestigators(doc),
		"data_level":     dataLevel,
		"project_name":   upgradeProjectName(doc),
		"modalities":     modalities,
		"group":          doc["group"],
		"restrictions":   doc["restrictions"],
		"data_summary":   doc["data_summary"],
		"tags":           nil,
	}

	if license, ok := record.String(doc, "license"); ok && license != "" {
		out["license"] = license
	} else {
		out["license"] = "CC-BY-4.0"
	}

	return out, nil
}

// upgradeFundingSources rewrites the legacy funding list: the object type is
// stamped, string fundees split into Person lists, string funders become
// Organization objects, and an empty list gets one defaulted entry so the
// target schema's minimum holds.
func upgradeFundingSources(doc map[string]any) ([]any, error) {
	raw, _ := record.Slice(doc, "funding_source")

	out := make([]any, 0, len(raw))
	for _, funding := range record.Documents(raw) {
		funding["object_type"] = "Funding"

		switch fundee := funding["fundee"].(type) {
		case string:
			persons := personsFromNames(fundee)
			if len(persons) == 0 {
				funding["fundee"] = nil
			} else {
				funding["fundee"] = persons
			}
		}

		switch funder := funding["funder"].(type) {
		case string:
			// Records with several funders joined in one string keep only
			// the first; there is one funder slot per entry.
			name, _, _ := strings.Cut(funder, ",")
			funding["funder"] = organizationFromName(strings.TrimSpace(name))
		case nil:
			return nil, fmt.Errorf("%w: funding entry has no funder", merrors.ErrUnsupported)
		}

		out = append(out, funding)
	}

	if len(out) == 0 {
		org, _ := organizationFromAbbreviation("AI")
		out = append(out, map[string]any{
			"object_type": "Funding",
			"funder":      org,
			"fundee":      []any{person("unknown")},
		})
	}

	return out, nil
}

// upgradeInvestigators converts legacy PIDName investigator entries into
// Person objects, defaulting a single unknown investigator when the list is
// empty.
func upgradeInvestigators(doc map[string]any) []any {
	raw, _ := record.Slice(doc, "investigators")

	out := make([]any, 0, len(raw))
	for _, inv := range raw {
		switch v := inv.(type) {
		case string:
			out = append(out, person(v))
		case map[string]any:
			if name, ok := record.String(v, "name"); ok && name != "" {
				out = append(out, person(name))
			}
		}
	}

	if len(out) == 0 {
		out = append(out, person("unknown"))
	}
	return out
}

// upgradeCreationTime merges the retired creation_date/creation_time field
// pair into one timestamp.
func upgradeCreationTime(doc map[string]any) any {
	date, hasDate := record.String(doc, "creation_date")
	clock, hasClock := record.String(doc, "creation_time")
	if hasDate && hasClock {
		return date + "T" + clock
	}
	if hasClock {
		return clock
	}
	if hasDate {
		return date
	}
	return nil
}

// upgradeInstitution resolves a legacy string institution through the known
// abbreviation table; object institutions pass through.
func upgradeInstitution(doc map[string]any) (any, error) {
	switch v := doc["institution"].(type) {
	case string:
		return organizationFromAbbreviation(v)
	case map[string]any:
		return v, nil
	}
	return nil, nil
}

// upgradeDataLevel collapses the retired data level vocabulary ("raw data",
// "derived data", ...) onto the v2 raw/derived pair.
func upgradeDataLevel(doc map[string]any) (string, error) {
	level, _ := record.String(doc, "data_level")
	lower := strings.ToLower(level)
	switch {
	case strings.Contains(lower, "raw"):
		return "raw", nil
	case strings.Contains(lower, "derived"):
		return "derived", nil
	}
	return "", fmt.Errorf("%w: data level %q is neither raw nor derived", merrors.ErrUnsupported, level)
}

// upgradeProjectName defaults a missing or blank project name.
func upgradeProjectName(doc map[string]any) string {
	name, _ := record.String(doc, "project_name")
	if name == "" {
		return "unknown"
	}
	return name
}
