package upgrader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openacq/metamigrate/internal/record"
	"github.com/openacq/metamigrate/internal/testutil"
)

func TestUpgrade_CurrentRecord(t *testing.T) {
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
	})

	out, res, err := Upgrade(rec)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "2.0.0", out["schema_version"])
	require.NotEmpty(t, res.CoreFiles)
	for _, cf := range res.CoreFiles {
		assert.Equal(t, "unchanged", cf.Status)
	}
}

func TestUpgrade_LegacySessionRecord(t *testing.T) {
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
		record.Instrument:      testutil.Instrument(),
	})
	rec[record.Session] = map[string]any{
		"schema_version":     "0.3.4",
		"subject_id":         testutil.SubjectID,
		"rig_id":             testutil.InstrumentID,
		"session_start_time": "2023-10-18T10:00:00Z",
		"session_end_time":   "2023-10-18T11:30:00Z",
		"session_type":       "ecephys",
		"experimenters":      []any{},
		"data_streams":       []any{},
	}

	out, res, err := Upgrade(rec)
	require.NoError(t, err)

	assert.NotContains(t, out, record.Session)
	acq, ok := record.MapRef(out, record.Acquisition)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", acq["schema_version"])
	assert.Equal(t, "2023-10-18T10:00:00Z", acq["acquisition_start_time"])

	var sessionResult *CoreFile
	for i := range res.CoreFiles {
		if res.CoreFiles[i].Source == record.Session {
			sessionResult = &res.CoreFiles[i]
		}
	}
	require.NotNil(t, sessionResult)
	assert.Equal(t, record.Acquisition, sessionResult.Name)
	assert.Equal(t, "migrated", sessionResult.Status)
	assert.Positive(t, sessionResult.Transforms)
}

func TestUpgrade_FailureStillReturnsResult(t *testing.T) {
	rec := testutil.Record(map[string]any{
		record.Subject: testutil.Subject(),
	})

	_, res, err := Upgrade(rec)
	require.Error(t, err)
	require.NotNil(t, res)
}

func TestUpgrade_SkipValidationOption(t *testing.T) {
	rec := testutil.Record(map[string]any{
		record.Subject: testutil.Subject(),
	})

	_, _, err := Upgrade(rec, SkipValidation())
	require.NoError(t, err)
}

func TestUpgrade_InputNotMutated(t *testing.T) {
	rec := testutil.Record(map[string]any{
		record.Subject:         testutil.Subject(),
		record.DataDescription: testutil.DataDescription(),
	})
	rec["_id"] = "abc"

	_, _, err := Upgrade(rec)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec["_id"])
}
