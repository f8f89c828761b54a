package upgrade

import (
	"fmt"
	"time"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// sessionTimeLayouts are the timestamp shapes legacy session records carry.
var sessionTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseSessionTime parses a legacy session timestamp string.
func parseSessionTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range sessionTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Session upgrades a legacy session core file into a target-version
// acquisition: session_* time fields become acquisition_* fields (swapped
// when inverted), the rig reference becomes an instrument reference, the
// IACUC protocol moves to the ethics review list, and streams and stimulus
// epochs are rewritten with their device configurations.
func Session(doc map[string]any, target string, _ *migrate.Pass) (map[string]any, error) {
	start, end, note := upgradeSessionTimes(doc)

	streams, err := upgradeSessionStreams(doc)
	if err != nil {
		return nil, err
	}

	epochs, err := upgradeStimulusEpochs(doc)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"object_type":            "Acquisition",
		"schema_version":         target,
		"subject_id":             doc["subject_id"],
		"specimen_id":            doc["specimen_id"],
		"instrument_id":          doc["rig_id"],
		"acquisition_start_time": start,
		"acquisition_end_time":   end,
		"acquisition_type":       sessionAcquisitionType(doc),
		"experimenters":          sessionExperimenters(doc),
		"ethics_review_id":       sessionEthicsReview(doc),
		"protocol_id":            doc["protocol_id"],
		"data_streams":           streams,
		"stimulus_epochs":        epochs,
		"subject_details":        sessionSubjectDetails(doc),
		"calibrations":           sessionCalibrations(doc),
		"maintenance":            sessionMaintenance(doc),
		"notes":                  doc["notes"],
	}
	if note != "" {
		appendNote(out, note)
	}
	return out, nil
}

// upgradeSessionTimes maps session_start_time/session_end_time onto the
// acquisition fields, swapping the pair when they are inverted. The swap is
// reported through the returned note.
func upgradeSessionTimes(doc map[string]any) (any, any, string) {
	start := doc["session_start_time"]
	end := doc["session_end_time"]

	st, okStart := parseSessionTime(start)
	et, okEnd := parseSessionTime(end)
	if okStart && okEnd && st.After(et) {
		return end, start, "session start and end times were inverted and have been swapped."
	}
	return start, end, ""
}

// sessionExperimenters converts experimenter_full_name values into Person
// objects.
func sessionExperimenters(doc map[string]any) []any {
	persons := personsFromNames(doc["experimenter_full_name"])
	if persons == nil {
		return []any{}
	}
	return persons
}

// sessionEthicsReview moves the scalar iacuc_protocol into the ethics
// review id list.
func sessionEthicsReview(doc map[string]any) any {
	protocol, ok := record.String(doc, "iacuc_protocol")
	if !ok || protocol == "" {
		return nil
	}
	return []any{protocol}
}

// sessionAcquisitionType keeps the declared session type, defaulting when
// absent.
func sessionAcquisitionType(doc map[string]any) string {
	if sessionType, ok := record.String(doc, "session_type"); ok && sessionType != "" {
		return sessionType
	}
	return "Session"
}

// sessionSubjectDetails gathers the per-session subject fields (weights,
// anaesthesia, platform, rewards) into the v2 subject details object.
func sessionSubjectDetails(doc map[string]any) map[string]any {
	platform, _ := record.String(doc, "mouse_platform_name")
	if platform == "" {
		platform = "N/A"
	}

	details := map[string]any{
		"object_type":           "Acquisition subject details",
		"mouse_platform_name":   platform,
		"animal_weight_prior":   doc["animal_weight_prior"],
		"animal_weight_post":    doc["animal_weight_post"],
		"reward_consumed_total": doc["reward_consumed_total"],
	}
	if anaesthesia, ok := record.MapRef(doc, "anaesthesia"); ok && len(anaesthesia) > 0 {
		anaesthesia["object_type"] = "Anaesthetic"
		details["anaesthesia"] = anaesthesia
	}
	return details
}

func sessionCalibrations(doc map[string]any) []any {
	raw, _ := record.Slice(doc, "calibrations")
	out := make([]any, 0, len(raw))
	for _, cal := range record.Documents(raw) {
		if upgraded := upgradeCalibration(cal); upgraded != nil {
			out = append(out, upgraded)
		}
	}
	return out
}

func sessionMaintenance(doc map[string]any) []any {
	raw, _ := record.Slice(doc, "maintenance")
	out := make([]any, 0, len(raw))
	for _, maint := range record.Documents(raw) {
		if reagents, ok := record.Slice(maint, "reagents"); ok {
			for _, r := range record.Documents(reagents) {
				upgradeReagent(r)
			}
		}
		out = append(out, maint)
	}
	return out
}

// upgradeSessionStreams rewrites each v1 data stream: stream times carry
// over, device names referenced by the stream's module configs collect into
// active_devices, and light source and detector configs are rewritten into
// their v2 config shapes.
func upgradeSessionStreams(doc map[string]any) ([]any, error) {
	raw, _ := record.Slice(doc, "data_streams")
	streams := make([]any, 0, len(raw))

	for _, stream := range record.Documents(raw) {
		configurations, err := upgradeStreamConfigs(stream)
		if err != nil {
			return nil, err
		}

		modalities, err := upgradeStreamModalities(stream)
		if err != nil {
			return nil, err
		}

		out := map[string]any{
			"object_type":       "Data stream",
			"stream_start_time": stream["stream_start_time"],
			"stream_end_time":   stream["stream_end_time"],
			"active_devices":    streamActiveDevices(stream),
			"stream_modalities": modalities,
			"configurations":    configurations,
			"notes":             stream["notes"],
		}
		streams = append(streams, out)
	}
	return streams, nil
}

// upgradeStreamModalities normalizes the per-stream modality list.
func upgradeStreamModalities(stream map[string]any) ([]any, error) {
	if raw, ok := record.Slice(stream, "stream_modalities"); ok {
		return raw, nil
	}
	return upgradeModalities(stream)
}

// streamConfigSources lists the v1 per-family config fields whose device
// names feed active_devices.
var streamConfigSources = []string{
	"light_sources",
	"detectors",
	"ephys_modules",
	"fiber_connections",
	"stick_microscopes",
	"manipulator_modules",
	"software",
}

// streamActiveDevices collects the device names a v1 stream referenced
// through its daq_names, camera_names, and per-family config lists.
func streamActiveDevices(stream map[string]any) []any {
	devices := make([]any, 0)
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			devices = append(devices, name)
		}
	}

	for _, field := range []string{"daq_names", "camera_names"} {
		names, _ := record.StringSlice(stream, field)
		for _, name := range names {
			add(name)
		}
	}
	for _, field := range streamConfigSources {
		configs, _ := record.Slice(stream, field)
		for _, cfg := range record.Documents(configs) {
			if name, ok := record.String(cfg, "name"); ok {
				add(name)
			}
			if name, ok := record.String(cfg, "device_name"); ok {
				add(name)
			}
		}
	}
	return devices
}

// upgradeStreamConfigs rewrites the v1 per-family config lists into the
// flat v2 configurations list.
func upgradeStreamConfigs(stream map[string]any) ([]any, error) {
	configurations := make([]any, 0)

	lightSources, _ := record.Slice(stream, "light_sources")
	for _, cfg := range record.Documents(lightSources) {
		upgraded, err := upgradeLightSourceConfig(cfg)
		if err != nil {
			return nil, err
		}
		configurations = append(configurations, upgraded)
	}

	detectors, _ := record.Slice(stream, "detectors")
	for _, cfg := range record.Documents(detectors) {
		configurations = append(configurations, upgradeDetectorConfig(cfg))
	}

	return configurations, nil
}

// upgradeLightSourceConfig converts a v1 light source config through the
// closed light-source classification. Laser power fields fold into the
// generic excitation power fields.
func upgradeLightSourceConfig(cfg map[string]any) (map[string]any, error) {
	class, err := classifyLightSource(cfg)
	if err != nil {
		return nil, err
	}

	name, _ := record.String(cfg, "name")
	if name == "" {
		name = "Unknown Device"
	}

	power := cfg["excitation_power"]
	if power == nil {
		power = cfg["laser_power"]
	}
	powerUnit, _ := record.String(cfg, "excitation_power_unit")
	if powerUnit == "" {
		powerUnit, _ = record.String(cfg, "laser_power_unit")
	}
	unit := "percent"
	if powerUnit == "milliwatt" {
		unit = "milliwatt"
	}

	out := map[string]any{
		"device_name": name,
		"power":       power,
		"power_unit":  unit,
	}

	switch class {
	case LightSourceLaser:
		out["object_type"] = "Laser config"
		out["wavelength"] = cfg["wavelength"]
		out["wavelength_unit"] = "nanometer"
	case LightSourceLED:
		out["object_type"] = "LED config"
	default:
		return nil, fmt.Errorf("%w: light source class %q has no v2 config", merrors.ErrUnsupported, class)
	}
	return out, nil
}

// upgradeDetectorConfig converts a v1 detector config.
func upgradeDetectorConfig(cfg map[string]any) map[string]any {
	name, _ := record.String(cfg, "name")
	if name == "" {
		name = "Unknown Detector"
	}
	trigger, _ := record.String(cfg, "trigger_type")
	if trigger != "Internal" {
		trigger = "External"
	}
	return map[string]any{
		"object_type":        "Detector config",
		"device_name":        name,
		"exposure_time":      cfg["exposure_time"],
		"exposure_time_unit": "millisecond",
		"trigger_type":       trigger,
	}
}

// upgradeStimulusEpochs rewrites the v1 stimulus epoch list.
func upgradeStimulusEpochs(doc map[string]any) ([]any, error) {
	raw, _ := record.Slice(doc, "stimulus_epochs")
	epochs := make([]any, 0, len(raw))

	for _, epoch := range record.Documents(raw) {
		active, _ := record.StringSlice(epoch, "stimulus_device_names")
		activeDevices := make([]any, 0, len(active))
		for _, name := range active {
			activeDevices = append(activeDevices, name)
		}

		out := map[string]any{
			"object_type":         "Stimulus epoch",
			"stimulus_start_time": epoch["stimulus_start_time"],
			"stimulus_end_time":   epoch["stimulus_end_time"],
			"stimulus_name":       epoch["stimulus_name"],
			"active_devices":      activeDevices,
			"notes":               epoch["notes"],
		}
		if software, ok := record.Slice(epoch, "software"); ok {
			upgraded := make([]any, 0, len(software))
			for _, sw := range software {
				v2, err := upgradeSoftware(sw)
				if err != nil {
					return nil, err
				}
				upgraded = append(upgraded, v2)
			}
			out["software"] = upgraded
		}
		epochs = append(epochs, out)
	}
	return epochs, nil
}
