package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReportHuman_CoreFileLines(t *testing.T) {
	report := buildMigrationReport(&MigrationReportInfo{
		RecordName:    "ecephys_123456_2023-10-18_10-00-00",
		Location:      "s3://bucket/ecephys_123456_2023-10-18_10-00-00",
		TargetVersion: "2.0.0",
		CoreFiles: []CoreFileInfo{
			{Name: "subject", FromVersion: "0.5.9", Transforms: 1, Status: StatusMigrated},
			{Name: "instrument", Source: "rig", FromVersion: "0.3.1", Transforms: 1, Status: StatusMigrated},
			{Name: "procedures", FromVersion: "2.0.0", Transforms: 0, Status: StatusUnchanged},
		},
		Repairs: []string{"copied acquisition instrument_id onto instrument"},
	})

	var buf bytes.Buffer
	err := writeReportHuman(report, &buf)
	assert.NoError(t, err)

	out := buf.String()

	assert.Contains(t, out, "Record:")
	assert.Contains(t, out, "ecephys_123456_2023-10-18_10-00-00")
	assert.Contains(t, out, "Target Version: 2.0.0")

	// Core files render with the record-line format and folded source.
	assert.Contains(t, out, "Core Files:")
	assert.Contains(t, out, "r:subject")
	assert.Contains(t, out, "instrument (from rig)")
	assert.Contains(t, out, "0.5.9 → 2.0.0 via 1 transform(s)")

	// Unchanged entries show no transform chain line.
	assert.False(t, strings.Contains(out, "2.0.0 → 2.0.0"))

	assert.Contains(t, out, "Repairs:")
	assert.Contains(t, out, "~ copied acquisition instrument_id onto instrument")
}

func TestWriteReportHuman_Errors(t *testing.T) {
	report := buildMigrationReport(&MigrationReportInfo{
		RecordName:    "behavior_654321_2024-01-05_09-30-00",
		TargetVersion: "2.0.0",
		Errors:        []error{errors.New("acquisition requires instrument")},
	})

	var buf bytes.Buffer
	require.NoError(t, writeReportHuman(report, &buf))

	out := buf.String()
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "✗ acquisition requires instrument")
}

func TestWriteMigrationReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMigrationReport(&MigrationReportInfo{
		RecordName:    "ecephys_123456_2023-10-18_10-00-00",
		TargetVersion: "2.0.0",
		CoreFiles: []CoreFileInfo{
			{Name: "subject", FromVersion: "0.5.9", Transforms: 1, Status: StatusMigrated},
		},
		Warnings: []string{"creation_time moved to acquisition_end_time"},
	}, ReportOptions{JSON: true, Writer: &buf})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	rec, ok := decoded["record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", rec["targetVersion"])

	coreFiles, ok := decoded["coreFiles"].([]any)
	require.True(t, ok)
	require.Len(t, coreFiles, 1)
	assert.Equal(t, "subject", coreFiles[0].(map[string]any)["name"])

	// Empty sections are omitted from JSON output.
	_, hasErrors := decoded["errors"]
	assert.False(t, hasErrors)
}
