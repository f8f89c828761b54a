package migrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/record"
)

func processedSet(names ...string) map[string]map[string]any {
	m := make(map[string]map[string]any, len(names))
	for _, n := range names {
		m[n] = map[string]any{"schema_version": "2.0.0"}
	}
	return m
}

func TestValidateRequiredSetsAnchors(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr bool
	}{
		{name: "subject with data description", files: []string{record.Subject, record.DataDescription}, wantErr: false},
		{name: "data description with processing", files: []string{record.DataDescription, record.Processing}, wantErr: false},
		{name: "subject alone", files: []string{record.Subject}, wantErr: true},
		{name: "processing alone", files: []string{record.Processing}, wantErr: true},
		{name: "empty record", files: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequiredSets(processedSet(tt.files...), false)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var anchorErr *AnchorError
			require.ErrorAs(t, err, &anchorErr)
			assert.ErrorIs(t, err, merrors.ErrDependency)
			assert.Contains(t, err.Error(), "subject, data_description")
		})
	}
}

func TestValidateRequiredSetsSkipAnchors(t *testing.T) {
	assert.NoError(t, validateRequiredSets(processedSet(record.Subject), true))
	assert.NoError(t, validateRequiredSets(processedSet(), true))
}

func TestValidateRequiredSetsTriggers(t *testing.T) {
	tests := []struct {
		name        string
		files       []string
		trigger     string
		wantMissing []string
	}{
		{
			name:        "acquisition without instrument",
			files:       []string{record.Subject, record.DataDescription, record.Acquisition},
			trigger:     record.Acquisition,
			wantMissing: []string{record.Instrument},
		},
		{
			name:        "acquisition missing everything it needs",
			files:       []string{record.Acquisition},
			trigger:     record.Acquisition,
			wantMissing: []string{record.Subject, record.DataDescription, record.Instrument},
		},
		{
			name:        "processing without data description",
			files:       []string{record.Processing},
			trigger:     record.Processing,
			wantMissing: []string{record.DataDescription},
		},
		{
			name:        "quality control without data description",
			files:       []string{record.QualityControl},
			trigger:     record.QualityControl,
			wantMissing: []string{record.DataDescription},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// skipAnchors isolates the trigger rules, and proves they run
			// even when anchor validation is disabled.
			err := validateRequiredSets(processedSet(tt.files...), true)
			require.Error(t, err)

			var depErr *DependencyError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.trigger, depErr.Trigger)
			assert.Equal(t, tt.wantMissing, depErr.Missing)
			assert.ErrorIs(t, err, merrors.ErrDependency)
		})
	}
}

func TestValidateRequiredSetsSatisfiedTriggers(t *testing.T) {
	processed := processedSet(
		record.Subject,
		record.DataDescription,
		record.Instrument,
		record.Acquisition,
		record.Processing,
		record.QualityControl,
	)
	assert.NoError(t, validateRequiredSets(processed, false))
}

func TestValidateRequiredSetsReportsEveryViolation(t *testing.T) {
	err := validateRequiredSets(processedSet(record.Acquisition, record.Processing), true)
	require.Error(t, err)

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Contains(t, err.Error(), `core file "acquisition"`)
	assert.Contains(t, err.Error(), `core file "processing"`)
}

func TestValidateRequiredSetsNilEntryCountsMissing(t *testing.T) {
	processed := processedSet(record.Subject, record.DataDescription)
	processed[record.Instrument] = nil
	processed[record.Acquisition] = map[string]any{"schema_version": "2.0.0"}

	err := validateRequiredSets(processed, false)
	require.Error(t, err)

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{record.Instrument}, depErr.Missing)
}
