package upgrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
)

func legacyAcquisition() map[string]any {
	return map[string]any{
		"schema_version":         "0.6.2",
		"subject_id":             "123456",
		"instrument_id":          "440_SmartSPIM1_2023-01-01",
		"session_start_time":     "2023-01-05T10:00:00-08:00",
		"session_end_time":       "2023-01-05T14:00:00-08:00",
		"experimenter_full_name": []any{" Jane Doe ", ""},
		"tiles": []any{
			map[string]any{
				"acquisition_start_time": "2023-01-05T10:05:00-08:00",
				"acquisition_end_time":   "2023-01-05T11:00:00-08:00",
				"channel": map[string]any{
					"light_source_name": "488nm laser",
					"detector_name":     "cam-1",
					"filter_names":      []any{"em-525"},
				},
			},
			map[string]any{
				"acquisition_end_time": "2023-01-05T13:00:00-08:00",
				"channel": map[string]any{
					"light_source_name": "561nm laser",
					"detector_name":     "cam-1",
				},
				"notes": "second channel",
			},
		},
	}
}

func TestAcquisition_FullUpgrade(t *testing.T) {
	out, err := Acquisition(legacyAcquisition(), "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	assert.Equal(t, "Acquisition", out["object_type"])
	assert.Equal(t, "2.0.0", out["schema_version"])
	assert.Equal(t, "123456_001", out["specimen_id"])
	assert.Equal(t, "Imaging session", out["acquisition_type"])
	assert.Equal(t, []any{}, out["stimulus_epochs"])

	details := out["subject_details"].(map[string]any)
	assert.Equal(t, "N/A", details["mouse_platform_name"])
}

func TestAcquisition_ExperimenterNamesTrimmed(t *testing.T) {
	out, err := Acquisition(legacyAcquisition(), "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	experimenters := out["experimenters"].([]any)
	require.Len(t, experimenters, 1)
	assert.Equal(t, "Jane Doe", experimenters[0].(map[string]any)["name"])
}

func TestAcquisition_TilesFoldIntoOneStream(t *testing.T) {
	out, err := Acquisition(legacyAcquisition(), "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	streams := out["data_streams"].([]any)
	require.Len(t, streams, 1)
	stream := streams[0].(map[string]any)

	assert.Equal(t, "2023-01-05T10:05:00-08:00", stream["stream_start_time"])
	assert.Equal(t, "2023-01-05T13:00:00-08:00", stream["stream_end_time"])
	assert.Equal(t, []any{"488nm laser", "cam-1", "em-525", "561nm laser"}, stream["active_devices"])
	assert.Equal(t, "second channel", stream["notes"])

	modalities := stream["stream_modalities"].([]any)
	require.Len(t, modalities, 1)
	assert.Equal(t, "SPIM", modalities[0].(map[string]any)["abbreviation"])

	configs := stream["configurations"].([]any)
	require.Len(t, configs, 1)
	cfg := configs[0].(map[string]any)
	assert.Equal(t, "Imaging configuration", cfg["object_type"])
	assert.Equal(t, "440_SmartSPIM1_2023-01-01", cfg["device_name"])
}

func TestAcquisition_TilesWithoutTimesUseSessionTimes(t *testing.T) {
	doc := legacyAcquisition()
	doc["tiles"] = []any{map[string]any{
		"channel": map[string]any{"light_source_name": "488nm laser"},
	}}

	out, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	stream := out["data_streams"].([]any)[0].(map[string]any)
	assert.Equal(t, "2023-01-05T10:00:00-08:00", stream["stream_start_time"])
	assert.Equal(t, "2023-01-05T14:00:00-08:00", stream["stream_end_time"])
}

func TestAcquisition_ActiveObjectivesAppended(t *testing.T) {
	doc := legacyAcquisition()
	doc["active_objectives"] = []any{"obj-3.6x"}

	out, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	stream := out["data_streams"].([]any)[0].(map[string]any)
	assert.Contains(t, stream["active_devices"], "obj-3.6x")
}

func TestAcquisition_SpecimenIDKeptWhenPresent(t *testing.T) {
	doc := legacyAcquisition()
	doc["specimen_id"] = "123456_002"

	out, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)
	assert.Equal(t, "123456_002", out["specimen_id"])
}

func TestAcquisition_SessionTypeWins(t *testing.T) {
	doc := legacyAcquisition()
	doc["session_type"] = "SmartSPIM imaging"

	out, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)
	assert.Equal(t, "SmartSPIM imaging", out["acquisition_type"])
}

func TestAcquisition_InvertedTimesSwapped(t *testing.T) {
	doc := legacyAcquisition()
	doc["session_start_time"] = "2023-01-05T14:00:00-08:00"
	doc["session_end_time"] = "2023-01-05T10:00:00-08:00"
	doc["tiles"] = []any{}

	out, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	require.NoError(t, err)

	assert.Equal(t, "2023-01-05T10:00:00-08:00", out["acquisition_start_time"])
	assert.Equal(t, "2023-01-05T14:00:00-08:00", out["acquisition_end_time"])
	assert.Contains(t, out["notes"], "swapped")
}

func TestAcquisition_MissingTimesFails(t *testing.T) {
	doc := legacyAcquisition()
	delete(doc, "session_start_time")
	delete(doc, "session_end_time")

	_, err := Acquisition(doc, "2.0.0", migrate.NewPass(nil))
	assert.ErrorIs(t, err, merrors.ErrUnsupported)
}
