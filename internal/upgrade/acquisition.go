package upgrade

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// Acquisition upgrades a legacy imaging acquisition core file to the
// target version. The v1 shape was tile-oriented; the upgrade folds the
// tile list into a single SPIM data stream, normalizes the session time
// pair, and fills the required identifiers that v1 left optional.
func Acquisition(doc map[string]any, target string, _ *migrate.Pass) (map[string]any, error) {
	start, end, note := upgradeSessionTimes(doc)
	if start == nil || end == nil {
		return nil, fmt.Errorf("%w: acquisition record has no session start/end times", merrors.ErrUnsupported)
	}

	subjectID := doc["subject_id"]
	specimenID, _ := record.String(doc, "specimen_id")
	if specimenID == "" {
		specimenID = fmt.Sprintf("%v_001", subjectID)
	}

	stream := tilesToDataStream(doc, start, end)
	if objectives, ok := record.StringSlice(doc, "active_objectives"); ok {
		active := stream["active_devices"].([]any)
		for _, obj := range objectives {
			active = append(active, obj)
		}
		stream["active_devices"] = active
	}

	out := map[string]any{
		"object_type":            "Acquisition",
		"schema_version":         target,
		"subject_id":             subjectID,
		"specimen_id":            specimenID,
		"instrument_id":          doc["instrument_id"],
		"acquisition_start_time": start,
		"acquisition_end_time":   end,
		"acquisition_type":       acquisitionType(doc),
		"experimenters":          trimmedExperimenters(doc),
		"ethics_review_id":       nil,
		"protocol_id":            doc["protocol_id"],
		"data_streams":           []any{stream},
		"stimulus_epochs":        []any{},
		"subject_details": map[string]any{
			"object_type":         "Acquisition subject details",
			"mouse_platform_name": "N/A",
		},
		"calibrations": sessionCalibrations(doc),
		"maintenance":  sessionMaintenance(doc),
		"notes":        doc["notes"],
	}
	if note != "" {
		appendNote(out, note)
	}
	return out, nil
}

// acquisitionType infers the v2 acquisition type: the declared session
// type when present, otherwise an imaging session when tiles exist.
func acquisitionType(doc map[string]any) string {
	if sessionType, ok := record.String(doc, "session_type"); ok && sessionType != "" {
		return sessionType
	}
	if tiles, ok := record.Slice(doc, "tiles"); ok && len(tiles) > 0 {
		return "Imaging session"
	}
	return "Acquisition session"
}

// trimmedExperimenters converts experimenter_full_name entries into Person
// objects, dropping blank names.
func trimmedExperimenters(doc map[string]any) []any {
	names, _ := record.StringSlice(doc, "experimenter_full_name")
	experimenters := make([]any, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			experimenters = append(experimenters, person(trimmed))
		}
	}
	return experimenters
}

// tilesToDataStream folds the v1 tile list into one SPIM data stream.
// Stream times come from the tile acquisition times when present, falling
// back to the session pair; the device list collects every light source,
// detector, and filter the tile channels reference.
func tilesToDataStream(doc map[string]any, start, end any) map[string]any {
	tiles, _ := record.Slice(doc, "tiles")

	streamStart, streamEnd := tileStreamTimes(tiles, start, end)

	spim, _ := modalityFromAbbreviation("SPIM")
	stream := map[string]any{
		"object_type":       "Data stream",
		"stream_start_time": streamStart,
		"stream_end_time":   streamEnd,
		"stream_modalities": []any{spim},
		"active_devices":    tileActiveDevices(tiles),
		"configurations":    []any{imagingConfigStub(doc)},
		"notes":             tileNotes(tiles),
	}
	return stream
}

// tileStreamTimes returns the earliest tile start and latest tile end,
// falling back to the session pair when the tiles carry no times.
func tileStreamTimes(tiles []any, start, end any) (any, any) {
	streamStart, streamEnd := start, end
	var haveStart, haveEnd bool
	var minStart, maxEnd string

	for _, tile := range record.Documents(tiles) {
		if s, ok := record.String(tile, "acquisition_start_time"); ok && s != "" {
			if !haveStart || s < minStart {
				minStart = s
				haveStart = true
			}
		}
		if e, ok := record.String(tile, "acquisition_end_time"); ok && e != "" {
			if !haveEnd || e > maxEnd {
				maxEnd = e
				haveEnd = true
			}
		}
	}
	if haveStart {
		streamStart = minStart
	}
	if haveEnd {
		streamEnd = maxEnd
	}
	return streamStart, streamEnd
}

// tileActiveDevices collects channel device names across tiles in
// first-seen order.
func tileActiveDevices(tiles []any) []any {
	devices := make([]any, 0)
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			devices = append(devices, name)
		}
	}

	for _, tile := range record.Documents(tiles) {
		channel, ok := record.MapRef(tile, "channel")
		if !ok {
			continue
		}
		if name, ok := record.String(channel, "light_source_name"); ok {
			add(name)
		}
		if name, ok := record.String(channel, "detector_name"); ok {
			add(name)
		}
		if filters, ok := record.StringSlice(channel, "filter_names"); ok {
			for _, name := range filters {
				add(name)
			}
		}
		if extra, ok := record.StringSlice(channel, "additional_device_names"); ok {
			for _, name := range extra {
				add(name)
			}
		}
	}
	return devices
}

// imagingConfigStub builds the minimal imaging configuration the v2 schema
// requires; the tile structure does not carry enough to reconstruct a full
// one.
func imagingConfigStub(doc map[string]any) map[string]any {
	device, _ := record.String(doc, "instrument_id")
	if device == "" {
		device = "Imaging Device"
	}
	return map[string]any{
		"object_type": "Imaging configuration",
		"device_name": device,
		"channels":    []any{},
		"images":      []any{},
	}
}

// tileNotes joins the per-tile notes.
func tileNotes(tiles []any) any {
	parts := make([]string, 0)
	for _, tile := range record.Documents(tiles) {
		if note, ok := record.String(tile, "notes"); ok && note != "" {
			parts = append(parts, note)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, "; ")
}
