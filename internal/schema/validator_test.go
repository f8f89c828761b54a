package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/record"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestNewValidator(t *testing.T) {
	v := newValidator(t)

	for _, name := range []string{
		record.Subject, record.DataDescription, record.Procedures,
		record.Instrument, record.Processing, record.Acquisition,
		record.QualityControl,
	} {
		assert.True(t, v.HasSchema(name), "expected schema for %s", name)
	}

	// Legacy aliases have no schema of their own; they fold first.
	assert.False(t, v.HasSchema(record.Rig))
	assert.False(t, v.HasSchema(record.Session))
}

func TestValidateCoreFileSubject(t *testing.T) {
	v := newValidator(t)

	out, err := v.ValidateCoreFile(record.Subject, map[string]any{
		"schema_version": "2.0.0",
		"subject_id":     "123456",
	})
	require.NoError(t, err)

	// Defaults land in the canonical shape.
	assert.Equal(t, "Subject", out["object_type"])
	assert.Equal(t, "123456", out["subject_id"])
}

func TestValidateCoreFilePreservesExtraFields(t *testing.T) {
	v := newValidator(t)

	out, err := v.ValidateCoreFile(record.Subject, map[string]any{
		"schema_version": "2.0.0",
		"subject_id":     "123456",
		"genotype":       "wt/wt",
	})
	require.NoError(t, err)
	assert.Equal(t, "wt/wt", out["genotype"])
}

func TestValidateCoreFileFailure(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		file string
		doc  map[string]any
	}{
		{
			name: "subject missing subject_id",
			file: record.Subject,
			doc:  map[string]any{"schema_version": "2.0.0"},
		},
		{
			name: "subject with malformed version",
			file: record.Subject,
			doc:  map[string]any{"schema_version": "two", "subject_id": "123456"},
		},
		{
			name: "instrument with empty id",
			file: record.Instrument,
			doc:  map[string]any{"schema_version": "2.0.0", "instrument_id": ""},
		},
		{
			name: "acquisition missing times",
			file: record.Acquisition,
			doc: map[string]any{
				"schema_version": "2.0.0",
				"subject_id":     "123456",
				"instrument_id":  "323_EPHYS1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateCoreFile(tt.file, tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, merrors.ErrValidation), "expected ErrValidation, got %v", err)

			var detail *merrors.DetailError
			require.ErrorAs(t, err, &detail)
			assert.Equal(t, tt.file, detail.Field)
		})
	}
}

func TestValidateCoreFileDataDescription(t *testing.T) {
	v := newValidator(t)

	doc := map[string]any{
		"schema_version": "2.0.0",
		"data_level":     "raw",
		"project_name":   "Thalamus in the middle",
		"funding_source": []any{
			map[string]any{
				"funder": map[string]any{"name": "Allen Institute"},
			},
		},
		"investigators": []any{
			map[string]any{"name": "unknown"},
		},
	}

	out, err := v.ValidateCoreFile(record.DataDescription, doc)
	require.NoError(t, err)

	assert.Equal(t, "Data description", out["object_type"])
	assert.Equal(t, "CC-BY-4.0", out["license"], "license default applies")

	funding, ok := record.Slice(out, "funding_source")
	require.True(t, ok)
	require.Len(t, funding, 1)
	entry, ok := record.AsDocument(funding[0])
	require.True(t, ok)
	assert.Equal(t, "Funding", entry["object_type"], "nested defaults apply")
}

func TestValidateCoreFileDataDescriptionRejectsEmptyFunding(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateCoreFile(record.DataDescription, map[string]any{
		"schema_version": "2.0.0",
		"data_level":     "raw",
		"project_name":   "Thalamus in the middle",
		"funding_source": []any{},
		"investigators":  []any{map[string]any{"name": "unknown"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, merrors.ErrValidation))
}

func TestValidateCoreFileInstrumentConnections(t *testing.T) {
	v := newValidator(t)

	doc := map[string]any{
		"schema_version": "2.0.0",
		"instrument_id":  "323_EPHYS1_20231003",
		"components": []any{
			map[string]any{"object_type": "Device", "name": "Laser A"},
		},
		"connections": []any{
			map[string]any{
				"object_type":   "Connection",
				"source_device": "Laser A",
				"target_device": "Fiber 0",
			},
		},
	}

	out, err := v.ValidateCoreFile(record.Instrument, doc)
	require.NoError(t, err)
	assert.Equal(t, "Instrument", out["object_type"])

	// A connection without the discriminant fails.
	doc["connections"] = []any{
		map[string]any{"source_device": "Laser A", "target_device": "Fiber 0"},
	}
	_, err = v.ValidateCoreFile(record.Instrument, doc)
	require.Error(t, err)
}

func TestValidateCoreFileUnknownName(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateCoreFile("mystery", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")
}

func TestValidateRecord(t *testing.T) {
	v := newValidator(t)

	rec := map[string]any{
		"schema_version": "2.0.0",
		"name":           "ecephys_123456_2023-10-18_10-00-00",
		"location":       "s3://bucket/ecephys_123456_2023-10-18_10-00-00",
		"subject": map[string]any{
			"schema_version": "2.0.0",
			"subject_id":     "123456",
		},
		"procedures": nil,
	}

	out, err := v.ValidateRecord(rec)
	require.NoError(t, err)

	subject, ok := record.AsDocument(out["subject"])
	require.True(t, ok)
	assert.Equal(t, "Subject", subject["object_type"])

	// Null core files survive envelope validation.
	assert.Contains(t, out, "procedures")
	assert.Nil(t, out["procedures"])
}

func TestValidateRecordRejectsInvalidCoreFile(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateRecord(map[string]any{
		"schema_version": "2.0.0",
		"name":           "ecephys_123456_2023-10-18_10-00-00",
		"location":       "s3://bucket/ecephys_123456_2023-10-18_10-00-00",
		"subject":        map[string]any{"schema_version": "2.0.0"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, merrors.ErrValidation))
}

func TestValidateRecordRequiresEnvelopeFields(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateRecord(map[string]any{
		"schema_version": "2.0.0",
		"name":           "ecephys_123456_2023-10-18_10-00-00",
	})
	require.Error(t, err, "location is required")
}
