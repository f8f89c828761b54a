package upgrade

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/record"
)

// Procedures upgrades a procedures core file from v1.x to the target
// version. Surgeries are the only v1 subject procedure type; their nested
// procedure list is upgraded per type, experimenter names become Person
// objects, and the IACUC protocol field moves to the ethics review id.
func Procedures(doc map[string]any, target string, pass *migrate.Pass) (map[string]any, error) {
	// Some v1 records nest the payload one level down under "procedures".
	if nested, ok := record.MapRef(doc, "procedures"); ok {
		doc = nested
	}

	out := map[string]any{
		"object_type":         "Procedures",
		"schema_version":      target,
		"subject_id":          doc["subject_id"],
		"subject_procedures":  []any{},
		"specimen_procedures": []any{},
		"implanted_devices":   []any{},
		"configurations":      []any{},
		"coordinate_system":   coordinateSystemBregmaARI(),
		"notes":               doc["notes"],
	}

	subjectProcedures, _ := record.Slice(doc, "subject_procedures")
	upgradedSubject := make([]any, 0, len(subjectProcedures))
	for _, proc := range record.Documents(subjectProcedures) {
		surgery, err := upgradeSurgery(proc, pass)
		if err != nil {
			return nil, err
		}
		upgradedSubject = append(upgradedSubject, surgery)
	}
	out["subject_procedures"] = upgradedSubject

	specimenProcedures, _ := record.Slice(doc, "specimen_procedures")
	upgradedSpecimen := make([]any, 0, len(specimenProcedures))
	for _, proc := range record.Documents(specimenProcedures) {
		upgradedSpecimen = append(upgradedSpecimen, upgradeSpecimenProcedure(proc))
	}
	out["specimen_procedures"] = upgradedSpecimen

	return out, nil
}

// upgradeSurgery rewrites one v1 subject procedure. Anything other than a
// surgery is an unsupported legacy shape.
func upgradeSurgery(proc map[string]any, pass *migrate.Pass) (map[string]any, error) {
	if kind, _ := record.String(proc, "procedure_type"); kind != "Surgery" {
		return nil, fmt.Errorf("%w: subject procedure type %q", merrors.ErrUnsupported, kind)
	}
	remove(proc, "procedure_type")

	replaceExperimenterName(proc)

	proc["ethics_review_id"] = proc["iacuc_protocol"]
	remove(proc, "iacuc_protocol")

	nested, _ := record.Slice(proc, "procedures")
	if len(nested) == 0 {
		return nil, fmt.Errorf("%w: surgery has no procedures", merrors.ErrUnsupported)
	}
	upgraded := make([]any, 0, len(nested))
	for _, p := range record.Documents(nested) {
		up, err := upgradeSurgicalProcedure(p, pass)
		if err != nil {
			return nil, err
		}
		upgraded = append(upgraded, up)
	}
	proc["procedures"] = upgraded

	if anaesthesia, ok := record.MapRef(proc, "anaesthesia"); ok {
		anaesthesia["object_type"] = "Anaesthetic"
	}

	proc["object_type"] = "Surgery"
	return proc, nil
}

// replaceExperimenterName moves the retired experimenter_full_name field
// into the experimenters Person list.
func replaceExperimenterName(proc map[string]any) {
	if name, ok := record.String(proc, "experimenter_full_name"); ok && name != "" {
		proc["experimenters"] = []any{person(name)}
	} else if _, ok := proc["experimenters"]; !ok {
		proc["experimenters"] = []any{}
	}
	remove(proc, "experimenter_full_name")
}

// surgicalProcedureTypes maps v1 procedure_type values onto the v2 object
// type tag each one migrates to. Injections additionally need their
// coordinate fields rewritten.
var surgicalProcedureTypes = map[string]string{
	"Craniotomy":                "Craniotomy",
	"Headframe":                 "Headframe",
	"Ground wire":               "Protective material replacement",
	"Nanoject injection":        "Brain injection",
	"Iontophoresis injection":   "Brain injection",
	"ICV injection":             "Brain injection",
	"ICM injection":             "Brain injection",
	"Retro-orbital injection":   "Injection",
	"Intraperitoneal injection": "Injection",
	"Sample collection":         "Sample collection",
	"Perfusion":                 "Perfusion",
	"Fiber implant":             "Fiber implant",
	"Myomatrix_Insertion":       "Myomatrix insertion",
	"Catheter implant":          "Catheter implant",
	"Other Subject Procedure":   "Generic subject procedure",
}

// injectionCoordinateReference is the only coordinate reference the upgrade
// supports. Injections measured against anything else cannot be converted.
const injectionCoordinateReference = "Bregma"

// upgradeSurgicalProcedure rewrites one nested surgical procedure by type.
func upgradeSurgicalProcedure(proc map[string]any, pass *migrate.Pass) (map[string]any, error) {
	kind, _ := record.String(proc, "procedure_type")
	objectType, ok := surgicalProcedureTypes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: procedure type %q", merrors.ErrUnsupported, kind)
	}
	remove(proc, "procedure_type")
	replaceExperimenterName(proc)

	if objectType == "Brain injection" {
		if err := upgradeInjectionCoordinates(proc); err != nil {
			return nil, err
		}
	}

	if materials, ok := record.Slice(proc, "injection_materials"); ok {
		for _, m := range record.Documents(materials) {
			if _, tagged := m["object_type"]; !tagged {
				m["object_type"] = "Injection material"
			}
		}
	}

	proc["object_type"] = objectType
	return proc, nil
}

// upgradeInjectionCoordinates converts the retired per-axis coordinate
// fields of a brain injection into a coordinate list relative to Bregma.
func upgradeInjectionCoordinates(proc map[string]any) error {
	if ref, ok := record.String(proc, "injection_coordinate_reference"); ok && ref != injectionCoordinateReference {
		return fmt.Errorf("%w: injection coordinate reference %q", merrors.ErrUnsupported, ref)
	}
	remove(proc, "injection_coordinate_reference")

	ml, hasML := proc["injection_coordinate_ml"]
	ap, hasAP := proc["injection_coordinate_ap"]
	depths, hasDepth := record.Slice(proc, "injection_coordinate_depth")
	if !hasML && !hasAP && !hasDepth {
		return nil
	}

	coordinates := make([]any, 0, len(depths))
	if len(depths) == 0 {
		depths = []any{nil}
	}
	for _, depth := range depths {
		coordinates = append(coordinates, map[string]any{
			"object_type": "Translation",
			"translation": []any{ap, ml, depth},
		})
	}
	proc["coordinates"] = coordinates
	remove(proc, "injection_coordinate_ml", "injection_coordinate_ap", "injection_coordinate_depth")
	return nil
}

// upgradeSpecimenProcedure rewrites one v1 specimen procedure: experimenter
// name to Person list, the string "None" protocol to null, and reagents,
// antibodies, HCR series and sectioning compiled into procedure details.
func upgradeSpecimenProcedure(proc map[string]any) map[string]any {
	var experimenters []any
	if name, ok := record.String(proc, "experimenter_full_name"); ok && name != "" {
		experimenters = append(experimenters, person(name))
	}

	var protocolID any = proc["protocol_id"]
	if s, ok := protocolID.(string); ok && strings.EqualFold(s, "none") {
		protocolID = nil
	}

	details := make([]any, 0)
	if reagents, ok := record.Slice(proc, "reagents"); ok {
		for _, r := range record.Documents(reagents) {
			details = append(details, upgradeReagent(r))
		}
	}
	for _, field := range []string{"antibodies", "hcr_series", "sectioning"} {
		if v, ok := proc[field]; ok && v != nil {
			details = append(details, v)
		}
	}

	return map[string]any{
		"object_type":       "Specimen procedure",
		"procedure_type":    proc["procedure_type"],
		"specimen_id":       proc["specimen_id"],
		"start_date":        proc["start_date"],
		"end_date":          proc["end_date"],
		"experimenters":     experimenters,
		"protocol_id":       protocolID,
		"procedure_name":    proc["procedure_name"],
		"procedure_details": details,
		"notes":             proc["notes"],
	}
}
