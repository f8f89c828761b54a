package upgrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/migrate"
)

func TestPersonsFromNames_CommaJoinedString(t *testing.T) {
	persons := personsFromNames("Jane Doe, John Smith")

	require.Len(t, persons, 2)
	assert.Equal(t, map[string]any{"object_type": "Person", "name": "Jane Doe"}, persons[0])
	assert.Equal(t, map[string]any{"object_type": "Person", "name": "John Smith"}, persons[1])
}

func TestPersonsFromNames_ListDropsBlanks(t *testing.T) {
	persons := personsFromNames([]any{"Jane Doe", "  ", ""})

	require.Len(t, persons, 1)
	assert.Equal(t, "Jane Doe", persons[0].(map[string]any)["name"])
}

func TestPersonsFromNames_NilValue(t *testing.T) {
	assert.Nil(t, personsFromNames(nil))
}

func TestOrganizationFromAbbreviation_Known(t *testing.T) {
	org, err := organizationFromAbbreviation("AIND")

	require.NoError(t, err)
	assert.Equal(t, "Allen Institute for Neural Dynamics", org["name"])
	assert.Equal(t, "AIND", org["abbreviation"])
}

func TestOrganizationFromAbbreviation_Unknown(t *testing.T) {
	_, err := organizationFromAbbreviation("NOPE")

	require.Error(t, err)
	assert.ErrorIs(t, err, merrors.ErrUnsupported)
}

func TestOrganizationFromName_FillsKnownAbbreviation(t *testing.T) {
	org := organizationFromName("Allen Institute")

	assert.Equal(t, "AI", org["abbreviation"])
}

func TestOrganizationFromName_UnknownNamePassesThrough(t *testing.T) {
	org := organizationFromName("Some Lab")

	assert.Equal(t, "Some Lab", org["name"])
	assert.NotContains(t, org, "abbreviation")
}

func TestAppendNote_EmptyNotes(t *testing.T) {
	doc := map[string]any{}
	appendNote(doc, "field was repaired.")

	assert.Equal(t, "(v1v2 upgrade) field was repaired.", doc["notes"])
}

func TestAppendNote_KeepsExistingNotes(t *testing.T) {
	doc := map[string]any{"notes": "original note"}
	appendNote(doc, "field was repaired.")

	assert.Equal(t, "original note (v1v2 upgrade) field was repaired.", doc["notes"])
}

func TestDeviceChecks_DefaultsNameAndManufacturer(t *testing.T) {
	pass := migrate.NewPass(nil)
	dev := deviceChecks(map[string]any{"device_type": "Filter"}, "Filter", pass)

	assert.Equal(t, "Filter 1", dev["name"])
	assert.Equal(t, map[string]any{"name": "Other"}, dev["manufacturer"])
	assert.Equal(t, "Filter", dev["object_type"])
	assert.NotContains(t, dev, "device_type")
}

func TestDeviceChecks_StringManufacturerBecomesOrganization(t *testing.T) {
	pass := migrate.NewPass(nil)
	dev := deviceChecks(map[string]any{"name": "filter-a", "manufacturer": "Chroma"}, "Filter", pass)

	assert.Equal(t, map[string]any{"name": "Chroma"}, dev["manufacturer"])
}

func TestDeviceChecks_OtherManufacturerWithoutNotesGetsNote(t *testing.T) {
	pass := migrate.NewPass(nil)
	dev := deviceChecks(map[string]any{
		"name":         "cam-1",
		"manufacturer": map[string]any{"name": "Other"},
	}, "Camera", pass)

	assert.Contains(t, dev["notes"], "manufacturer is unknown")
}

func TestDeviceChecks_NameCountersArePerType(t *testing.T) {
	pass := migrate.NewPass(nil)
	a := deviceChecks(map[string]any{}, "Filter", pass)
	b := deviceChecks(map[string]any{}, "Filter", pass)
	c := deviceChecks(map[string]any{}, "Lens", pass)

	assert.Equal(t, "Filter 1", a["name"])
	assert.Equal(t, "Filter 2", b["name"])
	assert.Equal(t, "Lens 1", c["name"])
}

func TestClassifyLightSource(t *testing.T) {
	tests := []struct {
		name string
		dev  map[string]any
		want LightSourceClass
	}{
		{"laser device type", map[string]any{"device_type": "Laser"}, LightSourceLaser},
		{"laser in name", map[string]any{"name": "488nm laser"}, LightSourceLaser},
		{"laser in notes", map[string]any{"device_type": "light", "notes": "tunable laser"}, LightSourceLaser},
		{"axon tpc by name", map[string]any{"name": "Axon 920-2 TPC"}, LightSourceLaser},
		{"led device type", map[string]any{"device_type": "Light emitting diode"}, LightSourceLED},
		{"led in name", map[string]any{"name": "Blue LED"}, LightSourceLED},
		{"lamp", map[string]any{"device_type": "Lamp"}, LightSourceLamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := classifyLightSource(tt.dev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, class)
		})
	}
}

func TestClassifyLightSource_UnknownFails(t *testing.T) {
	_, err := classifyLightSource(map[string]any{"device_type": "Flashlight"})

	require.Error(t, err)
	assert.ErrorIs(t, err, merrors.ErrUnsupported)
}

func TestModalityFromAbbreviation_ResolvesAlias(t *testing.T) {
	m, err := modalityFromAbbreviation("SmartSPIM")

	require.NoError(t, err)
	assert.Equal(t, "SPIM", m["abbreviation"])
	assert.Equal(t, "Selective plane illumination microscopy", m["name"])
}

func TestUpgradeModalities(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want int
	}{
		{"missing", map[string]any{}, 0},
		{"string", map[string]any{"modality": "ecephys"}, 1},
		{"object", map[string]any{"modality": map[string]any{"abbreviation": "ecephys"}}, 1},
		{"list", map[string]any{"modality": []any{map[string]any{"abbreviation": "ecephys"}}}, 1},
		{"plural field", map[string]any{"modalities": []any{map[string]any{"abbreviation": "fib"}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := upgradeModalities(tt.doc)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestUpgradeModalities_UnknownAbbreviation(t *testing.T) {
	_, err := upgradeModalities(map[string]any{"modality": "sonar"})

	assert.ErrorIs(t, err, merrors.ErrUnsupported)
}

func TestUpgradeSoftware_StringName(t *testing.T) {
	sw, err := upgradeSoftware("Bonsai")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"object_type": "Software", "name": "Bonsai"}, sw)
}

func TestUpgradeSoftware_ObjectDropsRetiredFields(t *testing.T) {
	sw, err := upgradeSoftware(map[string]any{
		"name":       "Bonsai",
		"url":        "https://example.com",
		"parameters": map[string]any{},
	})

	require.NoError(t, err)
	assert.Equal(t, "Software", sw["object_type"])
	assert.NotContains(t, sw, "url")
	assert.NotContains(t, sw, "parameters")
}

func TestUpgradeReagent_SourceStringBecomesOrganization(t *testing.T) {
	reagent := upgradeReagent(map[string]any{"name": "PBS", "source": "Some Lab"})

	assert.Equal(t, "Reagent", reagent["object_type"])
	assert.Equal(t, map[string]any{"name": "Some Lab"}, reagent["source"])
}

func TestUpgradeCalibration_DefaultsDescription(t *testing.T) {
	cal := upgradeCalibration(map[string]any{
		"calibration_date": "2023-01-01",
		"device_name":      "laser-1",
		"notes":            "see attached file",
	})

	assert.Equal(t, "Calibration", cal["object_type"])
	assert.Equal(t, "laser-1", cal["device_name"])
	assert.Equal(t, "Calibration from a v1 record; see notes for details.", cal["description"])
	assert.Equal(t, []any{}, cal["input"])
}
