// Package version provides build and schema version information for metamigrate.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the metamigrate version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// TargetSchemaVersion is the current-schema version the engine migrates
// records to. Stamped into status rows so a re-sync can tell which upgrader
// produced an existing v2 record.
const TargetSchemaVersion = "2.0.0"

// Info contains version information.
type Info struct {
	// Version is the metamigrate version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// TargetSchemaVersion is the schema version records are migrated to.
	TargetSchemaVersion string `json:"targetSchemaVersion"`
}

// GetInfo returns the current version information.
func GetInfo() Info {
	return Info{
		Version:             Version,
		GitCommit:           GitCommit,
		BuildDate:           BuildDate,
		GoVersion:           runtime.Version(),
		TargetSchemaVersion: TargetSchemaVersion,
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("metamigrate:\n  Version:  %s\n  Build ID: %s/%s\n\nSchema:\n  Target Version: %s",
		i.Version, i.BuildDate, i.GitCommit, i.TargetSchemaVersion)
}
