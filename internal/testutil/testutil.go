// Package testutil provides shared fixtures for migration tests: minimal
// documents that validate against the embedded schemas, and file helpers for
// tests that run against records on disk.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/openacq/metamigrate/internal/version"
)

// Fixture identity values, shared so cross-file references line up.
const (
	SubjectID    = "123456"
	InstrumentID = "323_EPHYS1_20231003"
	RecordName   = "ecephys_123456_2023-10-18_10-00-00"
	RecordLoc    = "s3://acq-fixtures/ecephys_123456_2023-10-18_10-00-00"
)

// Subject returns a minimal valid subject at the target version.
func Subject() map[string]any {
	return map[string]any{
		"object_type":    "Subject",
		"schema_version": version.TargetSchemaVersion,
		"subject_id":     SubjectID,
	}
}

// DataDescription returns a minimal valid data description at the target
// version.
func DataDescription() map[string]any {
	return map[string]any{
		"object_type":    "Data description",
		"schema_version": version.TargetSchemaVersion,
		"subject_id":     SubjectID,
		"name":           RecordName,
		"creation_time":  "2023-10-18T11:30:00Z",
		"funding_source": []any{
			map[string]any{
				"object_type": "Funding",
				"funder":      map[string]any{"name": "Allen Institute", "abbreviation": "AI"},
			},
		},
		"investigators": []any{
			map[string]any{"object_type": "Person", "name": "unknown"},
		},
		"modalities": []any{
			map[string]any{"name": "Extracellular electrophysiology", "abbreviation": "ecephys"},
		},
		"data_level":   "raw",
		"license":      "CC-BY-4.0",
		"project_name": "Ephys Platform",
	}
}

// Procedures returns a minimal valid procedures document at the target
// version.
func Procedures() map[string]any {
	return map[string]any{
		"object_type":         "Procedures",
		"schema_version":      version.TargetSchemaVersion,
		"subject_id":          SubjectID,
		"subject_procedures":  []any{},
		"specimen_procedures": []any{},
		"implanted_devices":   []any{},
		"configurations":      []any{},
	}
}

// Instrument returns a minimal valid instrument at the target version.
func Instrument() map[string]any {
	return map[string]any{
		"object_type":    "Instrument",
		"schema_version": version.TargetSchemaVersion,
		"instrument_id":  InstrumentID,
		"modalities": []any{
			map[string]any{"name": "Extracellular electrophysiology", "abbreviation": "ecephys"},
		},
		"components": []any{
			map[string]any{"object_type": "Device", "name": "Probe A"},
		},
		"connections": []any{},
	}
}

// Processing returns a minimal valid processing document at the target
// version.
func Processing() map[string]any {
	return map[string]any{
		"object_type":    "Processing",
		"schema_version": version.TargetSchemaVersion,
		"data_processes": []any{},
	}
}

// Acquisition returns a minimal valid acquisition at the target version.
func Acquisition() map[string]any {
	return map[string]any{
		"object_type":            "Acquisition",
		"schema_version":         version.TargetSchemaVersion,
		"subject_id":             SubjectID,
		"instrument_id":          InstrumentID,
		"acquisition_start_time": "2023-10-18T10:00:00Z",
		"acquisition_end_time":   "2023-10-18T11:30:00Z",
		"experimenters":          []any{},
		"data_streams":           []any{},
		"stimulus_epochs":        []any{},
		"calibrations":           []any{},
		"maintenance":            []any{},
	}
}

// QualityControl returns a minimal valid quality control document at the
// target version.
func QualityControl() map[string]any {
	return map[string]any{
		"object_type":    "Quality control",
		"schema_version": version.TargetSchemaVersion,
		"evaluations":    []any{},
	}
}

// Record assembles a record envelope around the given core files. Tests
// mutate the result to build their scenario.
func Record(coreFiles map[string]any) map[string]any {
	rec := map[string]any{
		"name":     RecordName,
		"location": RecordLoc,
	}
	for name, doc := range coreFiles {
		rec[name] = doc
	}
	return rec
}

// WriteRecord marshals a record to an indented JSON file under dir and
// returns its path.
func WriteRecord(t *testing.T, dir, name string, rec map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}
	return WriteFile(t, dir, name, string(data)+"\n")
}

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}
