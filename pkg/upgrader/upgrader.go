// Package upgrader is the public one-call API for migrating a legacy
// metadata record to the current schema version. It wraps the migration
// engine with the default transform registry and the embedded schemas, so
// library consumers do not assemble the pipeline themselves.
package upgrader

import (
	"fmt"
	"sync"

	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/schema"
	"github.com/openacq/metamigrate/internal/upgrade"
)

// Option configures an Upgrade call.
type Option func(*migrate.Options)

// Permissive keeps core files that fail schema validation as their
// unvalidated transformed form instead of failing the record.
func Permissive() Option {
	return func(o *migrate.Options) { o.Permissive = true }
}

// SkipValidation disables the anchor-group check and whole-record
// validation, for smoke-testing malformed legacy records.
func SkipValidation() Option {
	return func(o *migrate.Options) { o.SkipValidation = true }
}

// CoreFile describes how one core file was processed.
type CoreFile struct {
	// Name is the canonical core-file name.
	Name string

	// Source is the record key the entry came from, when it differs from
	// Name (a legacy "rig" processed into "instrument").
	Source string

	// FromVersion is the schema version the legacy entry declared.
	FromVersion string

	// Transforms is the number of transforms applied.
	Transforms int

	// Status is one of "migrated", "unchanged", "unvalidated", "skipped",
	// or "failed".
	Status string
}

// Result reports what one Upgrade call did. It accompanies the error on
// failure, so callers can see how far the record got.
type Result struct {
	CoreFiles []CoreFile
	Repairs   []string
	Warnings  []string
}

// validator is shared across calls; the embedded schemas compile once.
var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

func sharedValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		validator, validatorErr = schema.NewValidator()
	})
	if validatorErr != nil {
		return nil, fmt.Errorf("loading embedded schemas: %w", validatorErr)
	}
	return validator, nil
}

// Upgrade migrates one record to the current schema version. The input is
// never mutated. Safe for concurrent calls on independent records.
func Upgrade(rec map[string]any, opts ...Option) (map[string]any, *Result, error) {
	var options migrate.Options
	for _, opt := range opts {
		opt(&options)
	}

	v, err := sharedValidator()
	if err != nil {
		return nil, nil, err
	}

	engine := migrate.New(upgrade.DefaultRegistry(), v, options)
	migrated, res, err := engine.Migrate(rec)
	return migrated, publicResult(res), err
}

func publicResult(res *migrate.Result) *Result {
	if res == nil {
		return nil
	}
	out := &Result{
		Repairs:  res.Repairs,
		Warnings: res.Warnings,
	}
	for _, cf := range res.CoreFiles {
		out.CoreFiles = append(out.CoreFiles, CoreFile{
			Name:        cf.Name,
			Source:      cf.Source,
			FromVersion: cf.FromVersion,
			Transforms:  cf.Transforms,
			Status:      cf.Status,
		})
	}
	return out
}
