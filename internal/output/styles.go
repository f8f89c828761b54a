package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette — named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: record names, core-file names, store locations.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "migrated" record status (bright, high-visibility).
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "repaired" record status (medium visibility).
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for the "skipped" record status.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for the "failed" record status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles — map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (record names, core-file names, locations).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (migrating, validating, repairing, syncing).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators, timestamps).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Change-marker styles for diff summaries.
var (
	styleAdded    = lipgloss.NewStyle().Foreground(ColorGreen)
	styleRemoved  = lipgloss.NewStyle().Foreground(ColorRed)
	styleModified = lipgloss.NewStyle().Foreground(ColorYellow)
)

// Record status constants.
const (
	StatusMigrated    = "migrated"
	StatusRepaired    = "repaired"
	StatusUnchanged   = "unchanged"
	StatusUnvalidated = "unvalidated"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"
)

// StatusStyle returns the lipgloss style for a given record status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusMigrated:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusRepaired, StatusUnvalidated:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusUnchanged:
		return lipgloss.NewStyle().Faint(true)
	case StatusSkipped:
		return lipgloss.NewStyle().Foreground(ColorRed)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minRecordColumnWidth is the minimum width for the record path column
// before the status suffix. This ensures status words align consistently.
const minRecordColumnWidth = 48

// FormatRecordLine renders a record identifier with a right-aligned,
// color-coded status suffix.
//
// Format: r:<name/coreFile>  <status>
// For whole-record lines (empty core file): r:<name>
//
// The "r:" prefix is dim, the path is cyan, and the status uses StatusStyle.
func FormatRecordLine(name, coreFile, status string) string {
	var path string
	if coreFile != "" {
		path = fmt.Sprintf("%s/%s", name, coreFile)
	} else {
		path = name
	}

	// Calculate padding for right-alignment
	padding := minRecordColumnWidth - len(path)
	if padding < 2 {
		padding = 2
	}

	prefix := StyleDim.Render("r:")
	styledPath := StyleNoun.Render(path)
	styledStatus := StatusStyle(status).Render(status)

	return prefix + styledPath + strings.Repeat(" ", padding) + styledStatus
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatTransformMatch renders a core-file → transform match line.
//
// Format: ▸ <coreFile> ← <transform>
func FormatTransformMatch(coreFile, transform string) string {
	bullet := StyleDim.Render("▸")
	styledFile := StyleNoun.Render(coreFile)
	arrow := StyleDim.Render("←")
	return fmt.Sprintf("%s %s %s %s", bullet, styledFile, arrow, transform)
}

// FormatTransformMatchVerbose renders a match line with an indented reason.
// An empty reason returns the basic format.
func FormatTransformMatchVerbose(coreFile, transform, reason string) string {
	line := FormatTransformMatch(coreFile, transform)
	if reason == "" {
		return line
	}
	return line + "\n     " + StyleDim.Render(reason)
}

// FormatTransformUnmatched renders a core file that no transform covers.
func FormatTransformUnmatched(coreFile string) string {
	bullet := StyleDim.Render("▸")
	styledFile := StyleNoun.Render(coreFile)
	return fmt.Sprintf("%s %s %s", bullet, styledFile, StyleDim.Render("(no matching transform, restamp only)"))
}
