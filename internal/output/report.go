package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ReportOptions controls migration report output.
type ReportOptions struct {
	// JSON outputs structured JSON instead of human-readable text
	JSON bool
	// Writer is the output destination
	Writer io.Writer
}

// MigrationReportInfo provides access to migration result data without
// importing the engine package.
type MigrationReportInfo struct {
	RecordName    string
	Location      string
	TargetVersion string
	CoreFiles     []CoreFileInfo
	Repairs       []string
	Warnings      []string
	Errors        []error
}

// CoreFileInfo describes how one core file was processed.
type CoreFileInfo struct {
	// Name is the canonical core-file name.
	Name string

	// Source is the record key the entry came from, when it differs from
	// Name (e.g. a legacy "rig" folded into "instrument").
	Source string

	// FromVersion is the schema version declared by the legacy entry.
	FromVersion string

	// Transforms is the number of transforms applied.
	Transforms int

	// Status is one of the record status constants.
	Status string
}

// migrationReport is the structured report output.
type migrationReport struct {
	Record    reportRecord     `json:"record"`
	CoreFiles []reportCoreFile `json:"coreFiles"`
	Repairs   []string         `json:"repairs,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
}

type reportRecord struct {
	Name          string `json:"name"`
	Location      string `json:"location,omitempty"`
	TargetVersion string `json:"targetVersion"`
}

type reportCoreFile struct {
	Name        string `json:"name"`
	Source      string `json:"source,omitempty"`
	FromVersion string `json:"fromVersion"`
	Transforms  int    `json:"transforms"`
	Status      string `json:"status"`
}

// WriteMigrationReport writes a migration report from a MigrationReportInfo.
func WriteMigrationReport(info *MigrationReportInfo, opts ReportOptions) error {
	report := buildMigrationReport(info)

	if opts.JSON {
		return writeReportJSON(report, opts.Writer)
	}
	return writeReportHuman(report, opts.Writer)
}

// buildMigrationReport constructs the serializable report.
func buildMigrationReport(info *MigrationReportInfo) *migrationReport {
	r := &migrationReport{
		Record: reportRecord{
			Name:          info.RecordName,
			Location:      info.Location,
			TargetVersion: info.TargetVersion,
		},
		CoreFiles: make([]reportCoreFile, 0, len(info.CoreFiles)),
		Repairs:   info.Repairs,
		Warnings:  info.Warnings,
	}

	for _, cf := range info.CoreFiles {
		r.CoreFiles = append(r.CoreFiles, reportCoreFile{
			Name:        cf.Name,
			Source:      cf.Source,
			FromVersion: cf.FromVersion,
			Transforms:  cf.Transforms,
			Status:      cf.Status,
		})
	}

	for _, err := range info.Errors {
		r.Errors = append(r.Errors, err.Error())
	}

	return r
}

// writeReportJSON writes the report as JSON.
func writeReportJSON(report *migrationReport, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// writeReportHuman writes the report in human-readable format.
func writeReportHuman(report *migrationReport, w io.Writer) error {
	var sb strings.Builder

	// Record info
	sb.WriteString("Record:\n")
	sb.WriteString(fmt.Sprintf("  Name:           %s\n", report.Record.Name))
	if report.Record.Location != "" {
		sb.WriteString(fmt.Sprintf("  Location:       %s\n", report.Record.Location))
	}
	sb.WriteString(fmt.Sprintf("  Target Version: %s\n", report.Record.TargetVersion))
	sb.WriteString("\n")

	// Core files
	if len(report.CoreFiles) > 0 {
		sb.WriteString("Core Files:\n")
		for _, cf := range report.CoreFiles {
			name := cf.Name
			if cf.Source != "" && cf.Source != cf.Name {
				name = fmt.Sprintf("%s (from %s)", cf.Name, cf.Source)
			}
			line := FormatRecordLine(name, "", cf.Status)
			sb.WriteString("  " + line + "\n")
			if cf.Transforms > 0 {
				sb.WriteString(StyleDim.Render(fmt.Sprintf("    %s → %s via %d transform(s)",
					cf.FromVersion, report.Record.TargetVersion, cf.Transforms)))
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	// Repairs
	if len(report.Repairs) > 0 {
		sb.WriteString("Repairs:\n")
		for _, repair := range report.Repairs {
			sb.WriteString(fmt.Sprintf("  ~ %s\n", repair))
		}
		sb.WriteString("\n")
	}

	// Warnings
	if len(report.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, warning := range report.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", warning))
		}
		sb.WriteString("\n")
	}

	// Errors
	if len(report.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range report.Errors {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", e))
		}
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}
