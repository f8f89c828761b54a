package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacq/metamigrate/internal/record"
	"github.com/openacq/metamigrate/internal/testutil"
)

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("METAMIGRATE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestNewRunCmd_Flags(t *testing.T) {
	runCmd := NewRunCmd()

	assert.Equal(t, "run", runCmd.Name())
	for _, flag := range []string{"name", "output", "format", "split", "docs", "store", "permissive", "skip-validation", "report-json"} {
		assert.NotNil(t, runCmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRun_MigratesRecordFile(t *testing.T) {
	dir := t.TempDir()
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
	})
	rec["_id"] = "legacy-id"
	in := testutil.WriteRecord(t, dir, "record.json", rec)
	out := filepath.Join(dir, "migrated.json")

	require.NoError(t, runRoot(t, "run", in, "-o", out))

	migrated, err := record.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", migrated["schema_version"])
	assert.Equal(t, testutil.RecordName, migrated["name"])
	assert.NotContains(t, migrated, "_id")

	subject, ok := record.MapRef(migrated, record.Subject)
	require.True(t, ok)
	assert.Equal(t, testutil.SubjectID, subject["subject_id"])
}

func TestRun_SplitWritesCoreFiles(t *testing.T) {
	dir := t.TempDir()
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
	})
	in := testutil.WriteRecord(t, dir, "record.json", rec)
	splitDir := filepath.Join(dir, "split")

	require.NoError(t, runRoot(t, "run", in, "--split", splitDir))

	require.FileExists(t, filepath.Join(splitDir, "subject.json"))
	require.FileExists(t, filepath.Join(splitDir, "data_description.json"))

	subject, err := record.Load(filepath.Join(splitDir, "subject.json"))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", subject["schema_version"])
}

func TestRun_YAMLOutput(t *testing.T) {
	dir := t.TempDir()
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
	})
	in := testutil.WriteRecord(t, dir, "record.json", rec)
	out := filepath.Join(dir, "migrated.yaml")

	require.NoError(t, runRoot(t, "run", in, "-o", out, "--format", "yaml"))

	migrated, err := record.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", migrated["schema_version"])
}

func TestRun_MissingAnchorGroupFails(t *testing.T) {
	dir := t.TempDir()
	rec := testutil.Record(map[string]any{
		record.Subject: testutil.Subject(),
	})
	in := testutil.WriteRecord(t, dir, "record.json", rec)

	err := runRoot(t, "run", in)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitGeneralError, exitErr.Code)
}

func TestRun_InvalidCoreFileMapsToValidationExit(t *testing.T) {
	dir := t.TempDir()
	badSubject := testutil.Subject()
	badSubject["subject_id"] = ""
	rec := testutil.Record(map[string]any{
		record.Subject:         badSubject,
		record.DataDescription: testutil.DataDescription(),
	})
	in := testutil.WriteRecord(t, dir, "record.json", rec)

	err := runRoot(t, "run", in)
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestRun_PermissiveKeepsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	badSubject := testutil.Subject()
	badSubject["subject_id"] = ""
	rec := testutil.Record(map[string]any{
		record.Subject:         badSubject,
		record.DataDescription: testutil.DataDescription(),
	})
	in := testutil.WriteRecord(t, dir, "record.json", rec)
	out := filepath.Join(dir, "migrated.json")

	require.NoError(t, runRoot(t, "run", in, "-o", out, "--permissive"))
	require.FileExists(t, out)
}

func TestRun_NoRecordArgument(t *testing.T) {
	err := runRoot(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name")
}

func TestRun_MissingFileMapsToGeneralError(t *testing.T) {
	err := runRoot(t, "run", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, ExitCodeFromError(err))
}
