// Package config provides configuration loading and resolution for metamigrate.
package config

import (
	_ "embed"
)

// configSchemaCUE validates config files before their values are trusted.
//
//go:embed schema/config.cue
var configSchemaCUE []byte
