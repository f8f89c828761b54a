// Package schema validates core files and assembled records against the
// embedded CUE schemas for the current metadata model.
package schema

import (
	"embed"
)

//go:embed cue/*.cue
var schemaFS embed.FS
