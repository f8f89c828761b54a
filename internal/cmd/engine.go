package cmd

import (
	"fmt"
	"sort"

	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/schema"
	"github.com/openacq/metamigrate/internal/upgrade"
	"github.com/openacq/metamigrate/internal/version"
)

// newEngine builds the migration engine with the default transform registry
// and the embedded schemas.
func newEngine(opts migrate.Options) (*migrate.Engine, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("loading embedded schemas: %w", err)
	}
	registry := upgrade.DefaultRegistry()
	names := registry.Names()
	sort.Strings(names)
	output.Debug("transform registry loaded", "coreFiles", names)
	return migrate.New(registry, validator, opts), nil
}

// reportInfo flattens a migration result into the output report shape.
func reportInfo(rec map[string]any, res *migrate.Result, errs ...error) *output.MigrationReportInfo {
	info := &output.MigrationReportInfo{
		TargetVersion: version.TargetSchemaVersion,
		Errors:        errs,
	}
	if rec != nil {
		if name, ok := rec["name"].(string); ok {
			info.RecordName = name
		}
		if location, ok := rec["location"].(string); ok {
			info.Location = location
		}
	}
	if res != nil {
		info.Repairs = res.Repairs
		info.Warnings = res.Warnings
		for _, cf := range res.CoreFiles {
			info.CoreFiles = append(info.CoreFiles, output.CoreFileInfo{
				Name:        cf.Name,
				Source:      cf.Source,
				FromVersion: cf.FromVersion,
				Transforms:  cf.Transforms,
				Status:      cf.Status,
			})
		}
	}
	return info
}
