package output

import (
	"reflect"
	"strings"

	"github.com/openacq/metamigrate/internal/record"
)

// RecordChanges summarizes per-core-file differences between a legacy record
// and its migrated form.
type RecordChanges struct {
	// Added core files, present only after migration.
	Added []string
	// Removed core files, present only before: legacy aliases fold away.
	Removed []string
	// Modified core files, present on both sides with different content.
	Modified []string
}

// Empty reports whether the migration changed no core files.
func (c RecordChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// ChangedCoreFiles compares the core-file entries of two records, walking
// the fixed core-file order so output is deterministic.
func ChangedCoreFiles(before, after map[string]any) RecordChanges {
	var changes RecordChanges

	for _, name := range record.Order {
		b, bok := before[name]
		a, aok := after[name]
		bPresent := bok && !record.Empty(b)
		aPresent := aok && !record.Empty(a)

		switch {
		case !bPresent && aPresent:
			changes.Added = append(changes.Added, name)
		case bPresent && !aPresent:
			changes.Removed = append(changes.Removed, name)
		case bPresent && aPresent && !reflect.DeepEqual(b, a):
			changes.Modified = append(changes.Modified, name)
		}
	}

	return changes
}

// RenderRecordChanges renders a change summary with +/-/~ markers.
func RenderRecordChanges(c RecordChanges) string {
	if c.Empty() {
		return ""
	}

	var sb strings.Builder

	if len(c.Added) > 0 {
		sb.WriteString(styleAdded.Render("Added:"))
		sb.WriteString("\n")
		for _, name := range c.Added {
			sb.WriteString("  + " + styleAdded.Render(name) + "\n")
		}
	}

	if len(c.Removed) > 0 {
		sb.WriteString(styleRemoved.Render("Removed:"))
		sb.WriteString("\n")
		for _, name := range c.Removed {
			sb.WriteString("  - " + styleRemoved.Render(name) + "\n")
		}
	}

	if len(c.Modified) > 0 {
		sb.WriteString(styleModified.Render("Modified:"))
		sb.WriteString("\n")
		for _, name := range c.Modified {
			sb.WriteString("  ~ " + styleModified.Render(name) + "\n")
		}
	}

	return sb.String()
}

// IndentDiff indents a diff string for display under a core-file name.
func IndentDiff(diff string, indent string) string {
	if diff == "" {
		return ""
	}

	var sb strings.Builder
	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
