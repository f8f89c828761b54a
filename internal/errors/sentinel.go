package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates a schema validation failure.
	ErrValidation = errors.New("validation error")

	// ErrMalformed indicates a core-file entry that is not a document.
	ErrMalformed = errors.New("malformed input")

	// ErrUnsupported indicates a legacy shape no transform can map.
	ErrUnsupported = errors.New("unsupported legacy shape")

	// ErrDependency indicates an unsatisfied required-file-set rule.
	ErrDependency = errors.New("dependency violation")

	// ErrRepairConflict indicates an irreconcilable cross-file mismatch.
	ErrRepairConflict = errors.New("repair conflict")

	// ErrConnectivity indicates a document-store connectivity issue.
	ErrConnectivity = errors.New("connectivity error")

	// ErrPermission indicates insufficient permissions.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound indicates a record, document, or file was not found.
	ErrNotFound = errors.New("not found")

	// ErrVersion indicates a version conflict between stored and produced records.
	ErrVersion = errors.New("version conflict")
)
