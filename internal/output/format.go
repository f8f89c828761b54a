package output

import "strings"

// OutputFormat specifies the output format.
type OutputFormat string

const (
	// FormatJSON outputs in JSON format.
	FormatJSON OutputFormat = "json"

	// FormatYAML outputs in YAML format.
	FormatYAML OutputFormat = "yaml"

	// FormatTable outputs in table format.
	FormatTable OutputFormat = "table"
)

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return true
	default:
		return false
	}
}

// ParseOutputFormat parses a string into an OutputFormat.
// Returns FormatJSON if the string is empty or invalid: migrated records are
// JSON documents first, YAML is a convenience rendering.
func ParseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "table":
		return FormatTable
	default:
		return FormatJSON
	}
}

// ValidFormats returns a slice of valid output format strings.
func ValidFormats() []string {
	return []string{"json", "yaml", "table"}
}

// ValidRunFormats returns valid formats for the run command.
func ValidRunFormats() []string {
	return []string{"json", "yaml"}
}

// ValidSyncFormats returns valid formats for sync status output.
func ValidSyncFormats() []string {
	return []string{"table", "json"}
}
