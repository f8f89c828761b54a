package upgrade

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// upgradeNotePrefix marks notes added by the migration itself.
const upgradeNotePrefix = "(v1v2 upgrade)"

// person builds a minimal Person object from a free-text name.
func person(name string) map[string]any {
	return map[string]any{
		"object_type": "Person",
		"name":        name,
	}
}

// personsFromNames converts legacy experimenter name values into Person
// objects. Legacy records hold a single string, a comma-joined string, or a
// list of strings; blank names are dropped.
func personsFromNames(v any) []any {
	var names []string
	switch val := v.(type) {
	case string:
		names = strings.Split(val, ",")
	case []any:
		for _, entry := range val {
			if s, ok := entry.(string); ok {
				names = append(names, s)
			}
		}
	}

	var out []any
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, person(name))
		}
	}
	return out
}

// organizationAbbreviations maps known institution abbreviations to full
// names. Legacy records store institutions and funders as bare strings.
var organizationAbbreviations = map[string]string{
	"AI":    "Allen Institute",
	"AIBS":  "Allen Institute for Brain Science",
	"AIND":  "Allen Institute for Neural Dynamics",
	"NINDS": "National Institute of Neurological Disorders and Stroke",
	"NIMH":  "National Institute of Mental Health",
	"SJ":    "Simons Foundation",
}

// organizationNames is the reverse lookup, full name to abbreviation.
var organizationNames = func() map[string]string {
	m := make(map[string]string, len(organizationAbbreviations))
	for abbr, name := range organizationAbbreviations {
		m[name] = abbr
	}
	return m
}()

// organizationFromAbbreviation resolves a known abbreviation into an
// Organization object. Unknown abbreviations are unsupported legacy shapes.
func organizationFromAbbreviation(abbr string) (map[string]any, error) {
	name, ok := organizationAbbreviations[abbr]
	if !ok {
		return nil, fmt.Errorf("%w: unknown institution abbreviation %q", merrors.ErrUnsupported, abbr)
	}
	return map[string]any{"name": name, "abbreviation": abbr}, nil
}

// organizationFromName builds an Organization object from a free-text name,
// filling the abbreviation when the name is known.
func organizationFromName(name string) map[string]any {
	org := map[string]any{"name": name}
	if abbr, ok := organizationNames[name]; ok {
		org["abbreviation"] = abbr
	}
	return org
}

// remove drops a field if present.
func remove(doc map[string]any, fields ...string) {
	for _, f := range fields {
		delete(doc, f)
	}
}

// appendNote appends an upgrade note to a document's notes field, keeping
// any note the legacy record already carried.
func appendNote(doc map[string]any, note string) {
	existing, _ := record.String(doc, "notes")
	if existing == "" {
		doc["notes"] = upgradeNotePrefix + " " + note
		return
	}
	doc["notes"] = existing + " " + upgradeNotePrefix + " " + note
}

// deviceChecks performs the shared device cleanup: drop retired v1 Device
// fields, default the name from the per-pass counter, and repair the
// manufacturer into an Organization object.
func deviceChecks(dev map[string]any, deviceType string, pass *migrate.Pass) map[string]any {
	remove(dev, "device_type", "path_to_cad", "port_index", "daq_channel")

	if name, _ := record.String(dev, "name"); name == "" {
		dev["name"] = pass.DefaultName(deviceType)
	}

	switch m := dev["manufacturer"].(type) {
	case string:
		dev["manufacturer"] = organizationFromName(m)
	case map[string]any:
		if name, _ := record.String(m, "name"); name == "Other" {
			if notes, _ := record.String(dev, "notes"); notes == "" {
				appendNote(dev, "'manufacturer' was set to 'Other' and notes were empty, manufacturer is unknown.")
			}
		}
	case nil:
		dev["manufacturer"] = map[string]any{"name": "Other"}
	}

	dev["object_type"] = deviceType
	return dev
}

// stampDevices applies deviceChecks to every document in a legacy device
// list and returns the stamped components.
func stampDevices(list []any, deviceType string, pass *migrate.Pass) []any {
	out := make([]any, 0, len(list))
	for _, dev := range record.Documents(list) {
		out = append(out, deviceChecks(dev, deviceType, pass))
	}
	return out
}

// LightSourceClass is the closed classification of legacy light sources.
// Classification happens once, here, before any type-specific construction;
// consumers never re-infer the class from description strings.
type LightSourceClass string

const (
	LightSourceLaser LightSourceClass = "Laser"
	LightSourceLED   LightSourceClass = "Light emitting diode"
	LightSourceLamp  LightSourceClass = "Lamp"
)

// classifyLightSource decides the light source class from the declared
// device type, falling back to the device name and notes. Shapes that match
// no class are unsupported rather than guessed.
func classifyLightSource(dev map[string]any) (LightSourceClass, error) {
	deviceType, _ := record.String(dev, "device_type")
	if deviceType == "" {
		deviceType, _ = record.String(dev, "type")
	}
	name, _ := record.String(dev, "name")
	notes, _ := record.String(dev, "notes")

	lower := strings.ToLower(deviceType)
	switch {
	case strings.Contains(lower, "laser"),
		strings.Contains(strings.ToLower(name), "laser"),
		strings.Contains(strings.ToLower(notes), "laser"),
		strings.Contains(name, "Axon 920-2 TPC"):
		return LightSourceLaser, nil
	case strings.Contains(lower, "led"),
		strings.Contains(lower, "light emitting diode"),
		strings.Contains(strings.ToLower(name), "led"):
		return LightSourceLED, nil
	case strings.Contains(lower, "lamp"):
		return LightSourceLamp, nil
	}
	return "", fmt.Errorf("%w: light source type %q cannot be classified", merrors.ErrUnsupported, deviceType)
}

// modalityAliases maps legacy spellings onto canonical abbreviations.
var modalityAliases = map[string]string{
	"SmartSPIM": "SPIM",
}

// modalityNames maps canonical abbreviations to display names.
var modalityNames = map[string]string{
	"SPIM":            "Selective plane illumination microscopy",
	"ecephys":         "Extracellular electrophysiology",
	"pophys":          "Planar optical physiology",
	"confocal":        "Confocal microscopy",
	"behavior":        "Behavior",
	"behavior-videos": "Behavior videos",
	"fib":             "Fiber photometry",
	"icephys":         "Intracellular electrophysiology",
	"MRI":             "Magnetic resonance imaging",
	"merfish":         "Multiplexed error-robust fluorescence in situ hybridization",
}

// modalityFromAbbreviation builds a modality object from an abbreviation.
func modalityFromAbbreviation(abbr string) (map[string]any, error) {
	if canonical, ok := modalityAliases[abbr]; ok {
		abbr = canonical
	}
	name, ok := modalityNames[abbr]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modality abbreviation %q", merrors.ErrUnsupported, abbr)
	}
	return map[string]any{"name": name, "abbreviation": abbr}, nil
}

// upgradeModalities reads the legacy "modality" field, which over the v1
// line was a bare string, a single object, or a list, and returns the v2
// modality list.
func upgradeModalities(doc map[string]any) ([]any, error) {
	raw, ok := doc["modality"]
	if !ok {
		raw = doc["modalities"]
	}

	switch v := raw.(type) {
	case nil:
		return []any{}, nil
	case string:
		m, err := modalityFromAbbreviation(v)
		if err != nil {
			return nil, err
		}
		return []any{m}, nil
	case map[string]any:
		return []any{v}, nil
	case []any:
		return v, nil
	}
	return nil, fmt.Errorf("%w: modality field has unexpected shape %T", merrors.ErrUnsupported, raw)
}

// upgradeSoftware normalizes a legacy software value, which is either a bare
// name string or an object carrying retired url/parameters fields.
func upgradeSoftware(v any) (map[string]any, error) {
	switch s := v.(type) {
	case string:
		return map[string]any{"object_type": "Software", "name": s}, nil
	case map[string]any:
		remove(s, "url", "parameters")
		s["object_type"] = "Software"
		return s, nil
	}
	return nil, fmt.Errorf("%w: software value must be a name or an object, got %T", merrors.ErrUnsupported, v)
}

// upgradeReagent stamps the v2 object type onto a legacy reagent.
func upgradeReagent(reagent map[string]any) map[string]any {
	reagent["object_type"] = "Reagent"
	if src, ok := reagent["source"].(string); ok {
		reagent["source"] = organizationFromName(src)
	}
	return reagent
}

// upgradeCalibration rewrites a legacy calibration into the v2 measurement
// shape. Legacy calibrations pointed at files, so the values stay empty and
// the file reference lands in the notes.
func upgradeCalibration(cal map[string]any) map[string]any {
	if cal == nil {
		return nil
	}
	out := map[string]any{
		"object_type":      "Calibration",
		"calibration_date": cal["calibration_date"],
		"device_name":      cal["device_name"],
		"input":            []any{},
		"output":           []any{},
		"description":      cal["description"],
		"notes":            cal["notes"],
	}
	if out["description"] == nil {
		out["description"] = "Calibration from a v1 record; see notes for details."
	}
	return out
}

// connection builds a tagged v2 connection. Every connection in migrated
// output carries the object_type discriminant; consumers dispatch on it
// instead of sniffing the shape.
func connection(source, target string) map[string]any {
	return map[string]any{
		"object_type":   "Connection",
		"source_device": source,
		"target_device": target,
	}
}

// Coordinate system library entries used as defaults for migrated files.
func coordinateSystemBregmaARI() map[string]any {
	return map[string]any{
		"object_type": "Coordinate system",
		"name":        "BREGMA_ARI",
		"origin":      "Bregma",
		"axis_unit":   "micrometer",
		"axes": []any{
			map[string]any{"name": "AP", "direction": "Posterior_to_anterior"},
			map[string]any{"name": "ML", "direction": "Left_to_right"},
			map[string]any{"name": "SI", "direction": "Inferior_to_superior"},
		},
	}
}

func coordinateSystemBregmaALS() map[string]any {
	return map[string]any{
		"object_type": "Coordinate system",
		"name":        "BREGMA_ALS",
		"origin":      "Bregma",
		"axis_unit":   "micrometer",
		"axes": []any{
			map[string]any{"name": "X", "direction": "Posterior_to_anterior"},
			map[string]any{"name": "Y", "direction": "Right_to_left"},
			map[string]any{"name": "Z", "direction": "Down_to_up"},
		},
	}
}
