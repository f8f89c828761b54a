// Package migrate implements the record migration pipeline: per-core-file
// transform chains, legacy-alias folding, required-file-set rules, the
// cross-file repair pass, and whole-document schema validation.
//
// One Migrate call processes one record start to finish with no I/O and no
// shared mutable state, so independent callers can migrate records in
// parallel against the same Engine.
package migrate

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	merrors "github.com/openacq/metamigrate/internal/errors"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/record"
	"github.com/openacq/metamigrate/internal/schema"
)

// State is the engine's position in the migration lifecycle. Failed is
// terminal and reachable from every transition.
type State string

const (
	StateInitialized           State = "Initialized"
	StateCoreFilesProcessed    State = "CoreFilesProcessed"
	StateRequiredSetsValidated State = "RequiredSetsValidated"
	StateRepaired              State = "Repaired"
	StateFinalized             State = "Finalized"
	StateFailed                State = "Failed"
)

// Options configure an Engine. Both switches are explicit inputs; there are
// no global toggles.
type Options struct {
	// Permissive keeps a core file that fails schema validation as its
	// unvalidated transformed form instead of aborting the record. The
	// caller must treat such output as untrusted.
	Permissive bool

	// SkipValidation disables the anchor-group check and whole-document
	// validation, for smoke-testing malformed legacy records. Trigger rules
	// and the repair pass always run.
	SkipValidation bool
}

// Engine migrates legacy records to the target schema version.
type Engine struct {
	registry  *Registry
	validator *schema.Validator
	opts      Options
}

// New builds an engine over a populated transform registry.
func New(registry *Registry, validator *schema.Validator, opts Options) *Engine {
	return &Engine{registry: registry, validator: validator, opts: opts}
}

// CoreFileResult describes how one core file was processed.
type CoreFileResult struct {
	// Name is the canonical core-file name.
	Name string

	// Source is the record key the entry came from, when it differs from
	// Name (a legacy "rig" processed into "instrument").
	Source string

	// FromVersion is the schema version the legacy entry declared.
	FromVersion string

	// Transforms is the number of transforms applied.
	Transforms int

	// Status is one of the output status constants.
	Status string
}

// Result reports what one migration call did. It is returned alongside the
// migrated document, and alongside the error when the call failed.
type Result struct {
	State     State
	CoreFiles []CoreFileResult
	Repairs   []string
	Warnings  []string
}

// Migrate processes one record: every recognized core file is transformed,
// validated, and stored under its canonical key; required-file-set rules are
// enforced; the assembled draft is repaired, restamped, and validated whole.
//
// The input is never mutated. On failure the returned Result reports how far
// the record got.
func (e *Engine) Migrate(rec map[string]any) (map[string]any, *Result, error) {
	res := &Result{State: StateInitialized}
	if rec == nil {
		res.State = StateFailed
		return nil, res, fmt.Errorf("record must be a document: %w", merrors.ErrMalformed)
	}

	raw := record.DeepCopy(rec)
	pass := NewPass(raw)
	defer func() {
		res.Repairs = pass.Repairs()
		res.Warnings = pass.Warnings()
	}()

	processed, expected, err := e.processCoreFiles(raw, pass, res)
	if err != nil {
		res.State = StateFailed
		return nil, res, err
	}
	res.State = StateCoreFilesProcessed

	if err := validateRequiredSets(processed, e.opts.SkipValidation); err != nil {
		res.State = StateFailed
		return nil, res, err
	}
	res.State = StateRequiredSetsValidated

	draft := assembleDraft(raw, processed)
	if err := repairRecord(draft, pass); err != nil {
		res.State = StateFailed
		return nil, res, err
	}
	res.State = StateRepaired
	output.Debug("record repaired",
		"record", record.Name(raw),
		"repairs", len(pass.Repairs()))

	restampEnvelope(draft)

	if !e.opts.SkipValidation {
		validated, err := e.validator.ValidateRecord(draft)
		switch {
		case err == nil:
			draft = validated
		case e.opts.Permissive:
			output.Warn("keeping unvalidated record", "record", record.Name(raw), "err", err)
			pass.Warn("assembled record failed schema validation and was kept unvalidated")
		default:
			res.State = StateFailed
			return nil, res, fmt.Errorf("validating assembled record after repair: %w", err)
		}
	}

	for _, name := range record.Canonicals {
		if expected.Has(name) && record.Empty(draft[name]) {
			res.State = StateFailed
			return nil, res, fmt.Errorf("core file %q was non-empty in the input but is missing from the finalized record", name)
		}
	}

	res.State = StateFinalized
	return draft, res, nil
}

// processCoreFiles walks the record in the fixed core-file order, folding
// aliases: the first entry processed into a canonical key wins, later names
// mapping to an occupied key are skipped entirely. It returns the processed
// entries and the set of canonical names that must survive to the finalized
// record.
func (e *Engine) processCoreFiles(raw map[string]any, pass *Pass, res *Result) (map[string]map[string]any, sets.Set[string], error) {
	processed := make(map[string]map[string]any)
	expected := sets.New[string]()

	for _, name := range record.Order {
		rawEntry, present := raw[name]
		if !present {
			continue
		}
		canonical := record.Canonical(name)
		if !record.Empty(rawEntry) {
			// The post-condition check works off what the input carried,
			// not off what processing produced.
			expected.Insert(canonical)
		}
		if _, occupied := processed[canonical]; occupied {
			if !record.Empty(rawEntry) {
				res.CoreFiles = append(res.CoreFiles, CoreFileResult{
					Name:   canonical,
					Source: name,
					Status: output.StatusSkipped,
				})
				output.Debug("core file superseded", "coreFile", name, "canonical", canonical)
			}
			continue
		}

		doc, cf, err := e.processEntry(canonical, name, rawEntry, pass)
		res.CoreFiles = append(res.CoreFiles, cf)
		if err != nil {
			return nil, nil, err
		}
		if doc == nil {
			continue
		}
		processed[canonical] = doc
	}

	return processed, expected, nil
}

// processEntry produces a validated target-version core file from one raw
// entry. Empty entries produce nil, which downstream treats as absent.
func (e *Engine) processEntry(canonical, source string, rawEntry any, pass *Pass) (map[string]any, CoreFileResult, error) {
	cf := CoreFileResult{Name: canonical, Source: source}

	if record.Empty(rawEntry) {
		cf.Status = output.StatusSkipped
		return nil, cf, nil
	}
	entry, ok := record.AsDocument(rawEntry)
	if !ok {
		cf.Status = output.StatusFailed
		return nil, cf, &CoreFileError{
			Name:   canonical,
			Source: source,
			Stage:  "parse",
			Err:    fmt.Errorf("%w: entry must be a document, got %T", merrors.ErrMalformed, rawEntry),
		}
	}

	doc := record.DeepCopy(entry)
	target := schema.TargetVersion(canonical)
	cf.FromVersion = record.SchemaVersion(doc)
	if cf.FromVersion == "" {
		cf.FromVersion = "0.0.0"
	}

	if SameVersion(cf.FromVersion, target) {
		// Normalize spellings like "2.0" to the canonical target string.
		doc[record.FieldSchemaVersion] = target
		cf.Status = output.StatusUnchanged
	} else {
		for _, step := range e.registry.Match(source, cf.FromVersion) {
			out, err := step.Fn(doc, target, pass)
			if err != nil {
				cf.Status = output.StatusFailed
				return nil, cf, &CoreFileError{
					Name:   canonical,
					Source: source,
					Stage:  "transform " + step.Name,
					Err:    err,
				}
			}
			doc = out
			cf.Transforms++
		}
		if doc == nil {
			// A transform dropped the file. The final post-condition check
			// turns this into a hard failure when the input was non-empty.
			cf.Status = output.StatusSkipped
			return nil, cf, nil
		}
		doc[record.FieldSchemaVersion] = target
		cf.Status = output.StatusMigrated
	}
	output.Debug("core file processed",
		"coreFile", canonical,
		"source", source,
		"from", cf.FromVersion,
		"transforms", cf.Transforms)

	validated, err := e.validator.ValidateCoreFile(canonical, doc)
	if err != nil {
		if e.opts.Permissive {
			output.Warn("keeping unvalidated core file", "coreFile", canonical, "err", err)
			pass.Warn("core file %s failed schema validation and was kept unvalidated", canonical)
			cf.Status = output.StatusUnvalidated
			return doc, cf, nil
		}
		cf.Status = output.StatusFailed
		return nil, cf, &CoreFileError{Name: canonical, Source: source, Stage: "validate", Err: err}
	}
	return validated, cf, nil
}

// assembleDraft builds the output document: non-core-file top-level fields
// copied through, every canonical core-file key set to its processed form or
// explicit null. Legacy alias keys are consumed by processing and do not
// survive.
func assembleDraft(raw map[string]any, processed map[string]map[string]any) map[string]any {
	draft := make(map[string]any, len(raw))
	for k, v := range raw {
		if record.IsCoreFile(k) {
			continue
		}
		draft[k] = v
	}
	for _, name := range record.Canonicals {
		if doc, ok := processed[name]; ok {
			draft[name] = doc
		} else {
			draft[name] = nil
		}
	}
	return draft
}

// restampEnvelope rewrites the record-level bookkeeping for the target
// schema. Store-stamped fields are dropped (the store stamps fresh ones on
// write), external_links becomes other_identifiers, and the envelope version
// is stamped.
func restampEnvelope(draft map[string]any) {
	delete(draft, record.FieldID)
	delete(draft, "id")
	delete(draft, record.FieldCreated)
	delete(draft, record.FieldLastModified)

	if links, ok := draft["external_links"]; ok {
		draft["other_identifiers"] = links
		delete(draft, "external_links")
	} else if _, ok := draft["other_identifiers"]; !ok {
		draft["other_identifiers"] = map[string]any{}
	}

	draft[record.FieldSchemaVersion] = schema.EnvelopeTargetVersion()
}
