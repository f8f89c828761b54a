package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	require.NotEmpty(t, info.GoVersion, "GoVersion should be populated")
	require.Equal(t, TargetSchemaVersion, info.TargetSchemaVersion)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:             "v1.0.0",
		GitCommit:           "abc123",
		BuildDate:           "2026-01-29",
		GoVersion:           "go1.25",
		TargetSchemaVersion: "2.0.0",
	}

	str := info.String()

	assert.Contains(t, str, "v1.0.0")
	assert.Contains(t, str, "abc123")
	assert.Contains(t, str, "2026-01-29")
	assert.Contains(t, str, "2.0.0")
}
