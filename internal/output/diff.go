package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"sigs.k8s.io/yaml"

	"github.com/openacq/metamigrate/internal/record"
)

// DiffOptions configures record comparison.
type DiffOptions struct {
	// UseColor enables colorized diff output.
	UseColor bool

	// KeepBookkeeping retains store bookkeeping fields (_id, created,
	// last_modified) in the comparison. They differ on every migration, so
	// they are stripped by default to keep the report about content.
	KeepBookkeeping bool
}

// CompareRecords computes a human-readable, structure-aware diff between a
// legacy record and its migrated form.
// Returns an empty string when the documents are equal.
func CompareRecords(before, after map[string]any, opts DiffOptions) (string, error) {
	beforeYAML, err := serializeForDiff(before, opts)
	if err != nil {
		return "", fmt.Errorf("serializing legacy record: %w", err)
	}

	afterYAML, err := serializeForDiff(after, opts)
	if err != nil {
		return "", fmt.Errorf("serializing migrated record: %w", err)
	}

	return diffYAML(beforeYAML, afterYAML, opts.UseColor)
}

// serializeForDiff converts a record to YAML bytes, removing bookkeeping
// fields that differ on every run and would drown the content changes.
func serializeForDiff(doc map[string]any, opts DiffOptions) ([]byte, error) {
	cp := record.DeepCopy(doc)
	if !opts.KeepBookkeeping {
		for _, field := range record.BookkeepingFields {
			delete(cp, field)
		}
	}
	return yaml.Marshal(cp)
}

// diffYAML computes a YAML-aware diff using dyff.
func diffYAML(before, after []byte, useColor bool) (string, error) {
	if len(before) == 0 && len(after) == 0 {
		return "", nil
	}

	beforeInput, err := parseYAMLInput("legacy", before)
	if err != nil {
		return "", fmt.Errorf("parsing legacy YAML: %w", err)
	}

	afterInput, err := parseYAMLInput("migrated", after)
	if err != nil {
		return "", fmt.Errorf("parsing migrated YAML: %w", err)
	}

	report, err := dyff.CompareInputFiles(beforeInput, afterInput)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}

	if len(report.Diffs) == 0 {
		return "", nil
	}

	return renderDyffReport(report, useColor)
}

// parseYAMLInput parses YAML bytes into a dyff input file.
func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{
			Location:  name,
			Documents: nil,
		}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}

	return ytbx.InputFile{
		Location:  name,
		Documents: docs,
	}, nil
}

// renderDyffReport renders a dyff report to a string.
func renderDyffReport(report dyff.Report, useColor bool) (string, error) {
	var buf bytes.Buffer

	reportWriter := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}

	if err := reportWriter.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	result := buf.String()

	// Clean up output - remove trailing whitespace from lines
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
