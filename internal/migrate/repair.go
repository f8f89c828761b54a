package migrate

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/record"
)

// Static override tables for instrument-ID reconciliation, keyed by known
// legacy identifiers.
var (
	// shortAcquisitionIDs are abbreviated rig names recorded on acquisitions;
	// the instrument's full identifier wins.
	shortAcquisitionIDs = sets.New("5B", "4D", "MESO.1", "MESO.2", "5A", "4A", "4B", "4C")

	// longAcquisitionIDs are acquisition identifiers more specific than the
	// instrument's; the acquisition's identifier wins.
	longAcquisitionIDs = sets.New("442_Bergamo_2p_photostim")

	// pairedInstrumentAcquisitionIDs maps an instrument identifier to the
	// acquisition identifier it is known to pair with; the instrument's
	// identifier wins.
	pairedInstrumentAcquisitionIDs = map[string]string{
		"342_NP3_240417": "342_NP3_240401",
	}
)

// Notes stamped onto synthesized device stubs. Downstream consumers search
// for these markers, so the wording is load-bearing.
const (
	activeDeviceStubNote = "(v1v2 upgrade metadata) This device was not found in the components list, " +
		"but is referenced in Acquisition.active_devices."
	connectionStubNote = "(v1v2 upgrade metadata) This device was not found in the components list, " +
		"but is referenced in connections."
)

// repairDirective is one cross-file fix. Directives run in a fixed order and
// each is idempotent: re-running it on already-repaired output changes
// nothing and never undoes an earlier directive's fix.
type repairDirective struct {
	name string
	fn   func(draft map[string]any, pass *Pass) error
}

var repairDirectives = []repairDirective{
	{name: "instrument-id reconciliation", fn: reconcileInstrumentIDs},
	{name: "active-device synthesis", fn: synthesizeActiveDevices},
	{name: "connection-endpoint synthesis", fn: synthesizeConnectionEndpoints},
	{name: "creation-time ordering", fn: repairCreationTime},
}

// repairRecord runs every repair directive over the assembled draft.
func repairRecord(draft map[string]any, pass *Pass) error {
	for _, d := range repairDirectives {
		if err := d.fn(draft, pass); err != nil {
			return err
		}
	}
	return nil
}

// coreDoc returns the named core file from the draft when it is present and
// non-empty.
func coreDoc(draft map[string]any, name string) (map[string]any, bool) {
	doc, ok := record.MapRef(draft, name)
	if !ok || len(doc) == 0 {
		return nil, false
	}
	return doc, true
}

// hasSPIMModality reports whether the record declares the SPIM imaging
// modality on the data description or the instrument.
func hasSPIMModality(draft map[string]any) bool {
	for _, name := range []string{record.DataDescription, record.Instrument} {
		doc, ok := coreDoc(draft, name)
		if !ok {
			continue
		}
		modalities, _ := record.Slice(doc, "modalities")
		for _, m := range record.Documents(modalities) {
			if abbr, _ := record.String(m, "abbreviation"); abbr == "SPIM" {
				return true
			}
		}
	}
	return false
}

// reconcileInstrumentIDs resolves a mismatch between the instrument
// identifier declared on the acquisition and the one on the instrument.
//
// For SPIM records the acquisition's identifier is authoritative and is
// copied onto the instrument. For everything else: substring containment in
// either direction prefers the longer identifier on both files, then the
// static override tables decide, and an identifier pair no rule covers is a
// conflict naming both values.
func reconcileInstrumentIDs(draft map[string]any, pass *Pass) error {
	instrument, ok := coreDoc(draft, record.Instrument)
	if !ok {
		return nil
	}
	acquisition, ok := coreDoc(draft, record.Acquisition)
	if !ok {
		return nil
	}
	acqID, ok := record.String(acquisition, "instrument_id")
	if !ok {
		return nil
	}

	if hasSPIMModality(draft) {
		instID, ok := record.String(instrument, "instrument_id")
		if !ok {
			return fmt.Errorf("instrument.instrument_id is missing while acquisition.instrument_id is present: %w",
				merrors.ErrRepairConflict)
		}
		if instID != acqID {
			instrument["instrument_id"] = acqID
			pass.Repaired("instrument_id: copied %q from acquisition onto instrument (SPIM)", acqID)
		}
		return nil
	}

	instID, _ := record.String(instrument, "instrument_id")
	if instID == acqID {
		return nil
	}

	switch {
	case strings.Contains(acqID, instID):
		instrument["instrument_id"] = acqID
		pass.Repaired("instrument_id: %q contains %q, instrument takes the longer value", acqID, instID)
	case strings.Contains(instID, acqID):
		acquisition["instrument_id"] = instID
		pass.Repaired("instrument_id: %q contains %q, acquisition takes the longer value", instID, acqID)
	case longAcquisitionIDs.Has(acqID):
		instrument["instrument_id"] = acqID
		pass.Repaired("instrument_id: %q is a known long acquisition id, instrument takes it", acqID)
	case shortAcquisitionIDs.Has(acqID):
		acquisition["instrument_id"] = instID
		pass.Repaired("instrument_id: %q is a known short acquisition id, acquisition takes %q", acqID, instID)
	case pairedInstrumentAcquisitionIDs[instID] == acqID:
		acquisition["instrument_id"] = instID
		pass.Repaired("instrument_id: known pair, acquisition takes %q", instID)
	default:
		return &RepairConflictError{
			Directive: "instrument-id reconciliation",
			Field:     "instrument_id",
			A:         instID,
			B:         acqID,
		}
	}
	return nil
}

// activeDeviceNames collects device names referenced by the acquisition's
// data streams and stimulus epochs, in reference order, duplicates included.
func activeDeviceNames(acquisition map[string]any) []string {
	var names []string
	streams, _ := record.Slice(acquisition, "data_streams")
	for _, stream := range record.Documents(streams) {
		active, _ := record.StringSlice(stream, "active_devices")
		names = append(names, active...)
	}
	epochs, _ := record.Slice(acquisition, "stimulus_epochs")
	for _, epoch := range record.Documents(epochs) {
		active, _ := record.StringSlice(epoch, "active_devices")
		names = append(names, active...)
	}
	return names
}

// connectionEndpointNames collects device names referenced as connection
// endpoints on the instrument and inside acquisition data streams.
func connectionEndpointNames(draft map[string]any) []string {
	var names []string
	appendEndpoints := func(connections []any) {
		for _, conn := range record.Documents(connections) {
			if src, ok := record.String(conn, "source_device"); ok && src != "" {
				names = append(names, src)
			}
			if dst, ok := record.String(conn, "target_device"); ok && dst != "" {
				names = append(names, dst)
			}
		}
	}

	if instrument, ok := coreDoc(draft, record.Instrument); ok {
		connections, _ := record.Slice(instrument, "connections")
		appendEndpoints(connections)
	}
	if acquisition, ok := coreDoc(draft, record.Acquisition); ok {
		streams, _ := record.Slice(acquisition, "data_streams")
		for _, stream := range record.Documents(streams) {
			connections, _ := record.Slice(stream, "connections")
			appendEndpoints(connections)
		}
	}
	return names
}

// declaredDeviceNames collects every device name the record already declares:
// instrument components and devices implanted by procedures.
func declaredDeviceNames(draft map[string]any) sets.Set[string] {
	names := sets.New[string]()
	if instrument, ok := coreDoc(draft, record.Instrument); ok {
		components, _ := record.Slice(instrument, "components")
		for _, c := range record.Documents(components) {
			if name, ok := record.String(c, "name"); ok && name != "" {
				names.Insert(name)
			}
		}
	}
	if procedures, ok := coreDoc(draft, record.Procedures); ok {
		implanted, _ := record.Slice(procedures, "implanted_devices")
		for _, d := range record.Documents(implanted) {
			if name, ok := record.String(d, "name"); ok && name != "" {
				names.Insert(name)
			}
		}
	}
	return names
}

// appendDeviceStubs adds a minimal placeholder component for every referenced
// name the record does not declare. Stubs carry a marker note; each missing
// name is synthesized once no matter how often it is referenced.
func appendDeviceStubs(instrument map[string]any, referenced []string, declared sets.Set[string], note string, pass *Pass) {
	components, _ := record.Slice(instrument, "components")
	for _, name := range referenced {
		if name == "" || declared.Has(name) {
			continue
		}
		components = append(components, map[string]any{
			"object_type": "Device",
			"name":        name,
			"notes":       note,
		})
		declared.Insert(name)
		pass.Repaired("components: synthesized stub for undeclared device %q", name)
	}
	instrument["components"] = components
}

// synthesizeActiveDevices appends a stub component for every device the
// acquisition activates that no component or implanted device declares.
func synthesizeActiveDevices(draft map[string]any, pass *Pass) error {
	instrument, ok := coreDoc(draft, record.Instrument)
	if !ok {
		return nil
	}
	acquisition, ok := coreDoc(draft, record.Acquisition)
	if !ok {
		return nil
	}

	referenced := activeDeviceNames(acquisition)
	if len(referenced) == 0 {
		return nil
	}
	appendDeviceStubs(instrument, referenced, declaredDeviceNames(draft), activeDeviceStubNote, pass)
	return nil
}

// synthesizeConnectionEndpoints appends a stub component for every device
// referenced as a connection endpoint that nothing declares.
func synthesizeConnectionEndpoints(draft map[string]any, pass *Pass) error {
	instrument, ok := coreDoc(draft, record.Instrument)
	if !ok {
		return nil
	}

	referenced := connectionEndpointNames(draft)
	if len(referenced) == 0 {
		return nil
	}
	appendDeviceStubs(instrument, referenced, declaredDeviceNames(draft), connectionStubNote, pass)
	return nil
}

// timeLayouts are the timestamp shapes legacy records carry: RFC 3339 with
// an offset, and naive ISO timestamps read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp parses a timestamp value from a legacy record. Unparsable
// values report false; the repair pass leaves them alone rather than guess.
func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// repairCreationTime moves the data description's creation time forward to
// the acquisition end time when it precedes it. A record cannot have been
// created before the acquisition that produced it finished.
func repairCreationTime(draft map[string]any, pass *Pass) error {
	dataDescription, ok := coreDoc(draft, record.DataDescription)
	if !ok {
		return nil
	}
	acquisition, ok := coreDoc(draft, record.Acquisition)
	if !ok {
		return nil
	}

	creation, ok := parseTimestamp(dataDescription["creation_time"])
	if !ok {
		return nil
	}
	end, ok := parseTimestamp(acquisition["acquisition_end_time"])
	if !ok {
		return nil
	}

	if creation.Before(end) {
		dataDescription["creation_time"] = acquisition["acquisition_end_time"]
		pass.Repaired("creation_time: moved forward to acquisition_end_time %v", acquisition["acquisition_end_time"])
	}
	return nil
}
