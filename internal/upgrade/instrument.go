package upgrade

import (
	"fmt"
	"regexp"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// instrumentIDPattern matches the room_rig_date convention used by legacy
// instrument and rig identifiers, e.g. "440_SmartSPIM1_2023-01-01".
var instrumentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9.]+_[a-zA-Z0-9.]+_\d{4}-\d{2}-\d{2}$`)

// parseInstrumentID splits a legacy room_rig_date identifier into the
// instrument id and its room location. Identifiers that do not follow the
// convention are kept whole with no location.
func parseInstrumentID(id, location string) (string, string) {
	if location != "" || !instrumentIDPattern.MatchString(id) {
		return id, location
	}
	parts := strings.Split(id, "_")
	return parts[1], parts[0]
}

// instrumentTypeModalities maps v1 instrument_type values onto v2 modality
// abbreviations.
var instrumentTypeModalities = map[string]string{
	"confocal":   "confocal",
	"diSPIM":     "SPIM",
	"exaSPIM":    "SPIM",
	"mesoSPIM":   "SPIM",
	"smartSPIM":  "SPIM",
	"Two photon": "pophys",
	"ecephys":    "ecephys",
}

// Instrument upgrades an instrument core file from v1.x to the target
// version: the room_rig_date identifier splits into id and location, the
// instrument type maps to a modality, and file-based calibrations wrap into
// calibration objects pointing at the file.
func Instrument(doc map[string]any, target string, pass *migrate.Pass) (map[string]any, error) {
	rawID, _ := record.String(doc, "instrument_id")
	location, _ := record.String(doc, "location")
	id, location := parseInstrumentID(rawID, location)

	modalities, err := instrumentModalities(doc)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"object_type":         "Instrument",
		"schema_version":      target,
		"instrument_id":       id,
		"location":            location,
		"modification_date":   doc["modification_date"],
		"modalities":          modalities,
		"temperature_control": doc["temperature_control"],
		"calibrations":        wrapFileCalibration(doc, rawID),
		"coordinate_system":   coordinateSystemBregmaARI(),
		"components":          instrumentComponents(doc, pass),
		"connections":         []any{},
		"notes":               doc["notes"],
	}
	if location == "" {
		out["location"] = nil
	}
	return out, nil
}

// instrumentModalities derives the modality list from the v1 instrument
// type. "Other" carried no usable information and cannot be migrated.
func instrumentModalities(doc map[string]any) ([]any, error) {
	instrumentType, _ := record.String(doc, "instrument_type")
	if instrumentType == "" {
		instrumentType, _ = record.String(doc, "type")
	}
	if instrumentType == "" {
		return nil, fmt.Errorf("%w: instrument has no instrument_type", merrors.ErrUnsupported)
	}
	if instrumentType == "Other" {
		return nil, fmt.Errorf("%w: instrument type \"Other\"", merrors.ErrUnsupported)
	}

	abbr, ok := instrumentTypeModalities[instrumentType]
	if !ok {
		return nil, fmt.Errorf("%w: instrument type %q", merrors.ErrUnsupported, instrumentType)
	}
	m, err := modalityFromAbbreviation(abbr)
	if err != nil {
		return nil, err
	}
	return []any{m}, nil
}

// wrapFileCalibration wraps the legacy calibration file reference into one
// calibration entry. v1 instrument calibrations were file paths, so the best
// preserved form is an empty calibration whose notes point at the file.
func wrapFileCalibration(doc map[string]any, deviceName string) any {
	data, ok := record.String(doc, "calibration_data")
	if !ok || data == "" {
		return nil
	}
	return []any{map[string]any{
		"object_type":      "Calibration",
		"calibration_date": doc["calibration_date"],
		"device_name":      deviceName,
		"input":            []any{},
		"output":           []any{},
		"description":      "Calibration data from v1.x instrument, see notes for file path.",
		"notes":            data,
	}}
}

// instrumentDeviceLists pairs the legacy per-family device list fields with
// the v2 component object type they become.
var instrumentDeviceLists = []struct {
	field      string
	objectType string
}{
	{"objectives", "Objective"},
	{"detectors", "Detector"},
	{"light_sources", "Light source"},
	{"lenses", "Lens"},
	{"fluorescence_filters", "Fluorescence filter"},
	{"motorized_stages", "Motorized stage"},
	{"scanning_stages", "Scanning stage"},
	{"additional_devices", "Device"},
}

// instrumentComponents flattens the legacy per-family device lists into one
// components list. Optical tables were retired in v2 and are dropped.
func instrumentComponents(doc map[string]any, pass *migrate.Pass) []any {
	components := make([]any, 0)
	for _, family := range instrumentDeviceLists {
		list, _ := record.Slice(doc, family.field)
		components = append(components, stampDevices(list, family.objectType, pass)...)
	}
	if enclosure, ok := record.MapRef(doc, "enclosure"); ok && len(enclosure) > 0 {
		components = append(components, deviceChecks(enclosure, "Enclosure", pass))
	}
	return components
}
