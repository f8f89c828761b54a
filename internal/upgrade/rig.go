package upgrade

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Rig upgrades a legacy rig core file into a target-version instrument.
// Every v1 device family compiles into the components list, DAQ channels
// become tagged connections, connection endpoints that name no declared
// component get stub devices, and the free-text origin/axis description is
// classified into a library coordinate system.
func Rig(doc map[string]any, target string, pass *migrate.Pass) (map[string]any, error) {
	rawID, _ := record.String(doc, "rig_id")
	location, _ := record.String(doc, "location")
	id, location := parseInstrumentID(rawID, location)

	modalities, err := upgradeModalities(doc)
	if err != nil {
		return nil, err
	}

	coordinateSystem, err := rigCoordinateSystem(doc)
	if err != nil {
		return nil, err
	}

	calibrations := make([]any, 0)
	if list, ok := record.Slice(doc, "calibrations"); ok {
		for _, cal := range record.Documents(list) {
			if upgraded := upgradeCalibration(cal); upgraded != nil {
				calibrations = append(calibrations, upgraded)
			}
		}
	}

	components, err := rigComponents(doc, pass)
	if err != nil {
		return nil, err
	}
	components, connections := resolveRigConnections(components, pass)

	out := map[string]any{
		"object_type":         "Instrument",
		"schema_version":      target,
		"instrument_id":       id,
		"location":            location,
		"modification_date":   doc["modification_date"],
		"modalities":          modalities,
		"temperature_control": doc["temperature_control"],
		"calibrations":        calibrations,
		"coordinate_system":   coordinateSystem,
		"components":          components,
		"connections":         connections,
		"notes":               doc["notes"],
	}
	if location == "" {
		out["location"] = nil
	}
	return out, nil
}

// rigCoordinateSystem classifies the rig's free-text origin and axis
// descriptions into a library coordinate system. Only the two conventions
// observed in legacy data are recognized; anything else fails rather than
// being guessed.
func rigCoordinateSystem(doc map[string]any) (map[string]any, error) {
	origin, _ := record.String(doc, "origin")
	axes, hasAxes := record.Slice(doc, "rig_axes")

	if origin == "" && !hasAxes {
		return coordinateSystemBregmaARI(), nil
	}

	directions := make([]string, 0, len(axes))
	for _, axis := range record.Documents(axes) {
		d, _ := record.String(axis, "direction")
		directions = append(directions, d)
	}

	if len(directions) == 3 {
		switch {
		case strings.Contains(directions[0], "lays on the Mouse Sagittal Plane, Positive direction is towards the nose of the mouse") &&
			strings.Contains(directions[1], "positive pointing UP opposite the direction from the force of gravity") &&
			strings.Contains(directions[2], "defined by the right hand rule and the other two axis"):
			return coordinateSystemBregmaALS(), nil
		case origin == "Bregma" &&
			strings.Contains(directions[0], "towards the nose of the mouse") &&
			strings.Contains(directions[1], "away from the nose of the mouse") &&
			strings.Contains(directions[2], "Positive pointing up"):
			return coordinateSystemBregmaALS(), nil
		}
	}

	return nil, fmt.Errorf("%w: rig coordinate system with origin %q cannot be classified", merrors.ErrUnsupported, origin)
}

// rigDeviceLists pairs the legacy rig device family fields with the v2
// component object type, in compilation order.
var rigDeviceLists = []struct {
	field      string
	objectType string
}{
	{"stimulus_devices", "Device"},
	{"cameras", "Camera assembly"},
	{"ephys_assemblies", "Ephys assembly"},
	{"fiber_assemblies", "Fiber assembly"},
	{"stick_microscopes", "Camera assembly"},
	{"laser_assemblies", "Laser assembly"},
	{"patch_cords", "Patch cord"},
	{"detectors", "Detector"},
	{"objectives", "Objective"},
	{"filters", "Filter"},
	{"lenses", "Lens"},
	{"dmds", "Digital micromirror device"},
	{"polygonal_scanners", "Polygonal scanner"},
	{"pockels_cells", "Pockels cell"},
	{"additional_devices", "Device"},
}

// rigComponents compiles every legacy device family into one components
// list. Light sources classify through the closed light-source enumeration;
// DAQ devices contribute connections from their channels through the pass.
func rigComponents(doc map[string]any, pass *migrate.Pass) ([]any, error) {
	components := make([]any, 0)

	if platform, ok := record.MapRef(doc, "mouse_platform"); ok && len(platform) > 0 {
		components = append(components, deviceChecks(platform, "Mouse platform", pass))
	}

	for _, family := range rigDeviceLists {
		raw := doc[family.field]
		// A handful of legacy records hold a single object where a list
		// belongs.
		list, ok := raw.([]any)
		if !ok {
			if single, isDoc := raw.(map[string]any); isDoc {
				list = []any{single}
			}
		}
		components = append(components, stampDevices(list, family.objectType, pass)...)
	}

	lightSources, _ := record.Slice(doc, "light_sources")
	for _, dev := range record.Documents(lightSources) {
		class, err := classifyLightSource(dev)
		if err != nil {
			return nil, err
		}
		components = append(components, deviceChecks(dev, string(class), pass))
	}

	daqs, _ := record.Slice(doc, "daqs")
	for _, daq := range record.Documents(daqs) {
		components = append(components, upgradeDAQ(daq, pass))
	}

	if enclosure, ok := record.MapRef(doc, "enclosure"); ok && len(enclosure) > 0 {
		components = append(components, deviceChecks(enclosure, "Enclosure", pass))
	}

	return components, nil
}

// upgradeDAQ converts a legacy DAQ device, turning each channel's wiring
// into a connection collected on the pass. Output channels send from the
// DAQ; input channels send to it.
func upgradeDAQ(daq map[string]any, pass *migrate.Pass) map[string]any {
	daq = deviceChecks(daq, "DAQ device", pass)
	daqName, _ := record.String(daq, "name")

	channels, _ := record.Slice(daq, "channels")
	for _, channel := range record.Documents(channels) {
		deviceName, _ := record.String(channel, "device_name")
		if deviceName == "" {
			continue
		}
		channelType, _ := record.String(channel, "channel_type")
		port, _ := record.String(channel, "channel_name")

		var conn map[string]any
		if strings.Contains(channelType, "Input") {
			conn = connection(deviceName, daqName)
		} else {
			conn = connection(daqName, deviceName)
		}
		if port != "" {
			conn["source_port"] = port
			conn["target_port"] = port
		}
		pass.AddConnection(conn)
	}
	remove(daq, "channels")

	return daq
}

// resolveRigConnections drains the connections collected while upgrading
// devices and appends a stub component for every endpoint that names no
// compiled component, mirroring the repair pass so a rig-only record is
// already self-consistent.
func resolveRigConnections(components []any, pass *migrate.Pass) ([]any, []any) {
	conns := pass.TakeConnections()
	connections := make([]any, 0, len(conns))

	declared := sets.New[string]()
	for _, c := range record.Documents(components) {
		if name, ok := record.String(c, "name"); ok {
			declared.Insert(name)
		}
	}

	for _, conn := range conns {
		connections = append(connections, conn)
		for _, field := range []string{"source_device", "target_device"} {
			name, _ := record.String(conn, field)
			if name == "" || declared.Has(name) {
				continue
			}
			components = append(components, map[string]any{
				"object_type": "Device",
				"name":        name,
				"notes": upgradeNotePrefix + " This device was not found in the components list, " +
					"but is referenced in connections.",
			})
			declared.Insert(name)
		}
	}

	return components, connections
}
