package migrate

import (
	"fmt"
	"strings"

	merrors "github.com/openacq/metamigrate/internal/errors"
)

// CoreFileError reports a failure while processing one core file. It names
// the canonical core file and the stage that failed so a batch caller can
// resume investigation without re-running the record.
type CoreFileError struct {
	// Name is the canonical core-file name.
	Name string

	// Source is the record key the entry came from when it differs from
	// Name, e.g. a legacy "rig" processed into "instrument".
	Source string

	// Stage is the processing stage that failed: "parse", a transform name,
	// or "validate".
	Stage string

	// Err is the underlying failure.
	Err error
}

func (e *CoreFileError) Error() string {
	name := e.Name
	if e.Source != "" && e.Source != e.Name {
		name = fmt.Sprintf("%s (from %s)", e.Name, e.Source)
	}
	return fmt.Sprintf("core file %s: %s: %v", name, e.Stage, e.Err)
}

func (e *CoreFileError) Unwrap() error {
	return e.Err
}

// DependencyError reports an unsatisfied required-file-set rule: the trigger
// core file is present but some of the files it requires are missing.
type DependencyError struct {
	Trigger  string
	Requires []string
	Missing  []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("core file %q requires %s: missing %s",
		e.Trigger, strings.Join(e.Requires, ", "), strings.Join(e.Missing, ", "))
}

func (e *DependencyError) Unwrap() error {
	return merrors.ErrDependency
}

// AnchorError reports that no anchor file group is fully present. Every
// meaningful record carries at least one of the anchor groups; a record with
// none is unidentifiable downstream.
type AnchorError struct {
	// Groups are the anchor groups that were checked, each listed in full.
	Groups [][]string
}

func (e *AnchorError) Error() string {
	groups := make([]string, 0, len(e.Groups))
	for _, g := range e.Groups {
		groups = append(groups, "["+strings.Join(g, ", ")+"]")
	}
	return fmt.Sprintf("record contains no complete anchor group; need all files of one of %s",
		strings.Join(groups, " or "))
}

func (e *AnchorError) Unwrap() error {
	return merrors.ErrDependency
}

// RepairConflictError reports an irreconcilable cross-file mismatch found by
// the repair pass, naming both conflicting values. Silent mis-repair is
// worse than failure here, so no directive guesses.
type RepairConflictError struct {
	// Directive is the repair directive that found the conflict.
	Directive string

	// Field is the conflicting field.
	Field string

	// A and B are the two conflicting values.
	A string
	B string
}

func (e *RepairConflictError) Error() string {
	return fmt.Sprintf("repair %s: cannot reconcile %s values %q and %q",
		e.Directive, e.Field, e.A, e.B)
}

func (e *RepairConflictError) Unwrap() error {
	return merrors.ErrRepairConflict
}
