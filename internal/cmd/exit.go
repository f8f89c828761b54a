// Package cmd provides CLI command implementations.
package cmd

import (
	"errors"

	merrors "github.com/openacq/metamigrate/internal/errors"
)

// Exit codes reported by the metamigrate binary.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates schema validation failed.
	ExitValidationError = 2

	// ExitConnectivityError indicates the document store or status
	// database could not be reached.
	ExitConnectivityError = 3

	// ExitPermissionDenied indicates the store rejected the credentials.
	ExitPermissionDenied = 4

	// ExitNotFound indicates a record or file was not found.
	ExitNotFound = 5

	// ExitVersionMismatch indicates an unsupported schema version.
	ExitVersionMismatch = 6
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitConnectivityError:
		return "Connectivity Error"
	case ExitPermissionDenied:
		return "Permission Denied"
	case ExitNotFound:
		return "Not Found"
	case ExitVersionMismatch:
		return "Version Mismatch"
	default:
		return "Unknown"
	}
}

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed marks errors the command layer already reported, so main
	// does not print them twice.
	Printed bool
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, merrors.ErrValidation):
		return ExitValidationError
	case errors.Is(err, merrors.ErrConnectivity):
		return ExitConnectivityError
	case errors.Is(err, merrors.ErrPermission):
		return ExitPermissionDenied
	case errors.Is(err, merrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, merrors.ErrVersion), errors.Is(err, merrors.ErrUnsupported):
		return ExitVersionMismatch
	default:
		return ExitGeneralError
	}
}

// exitWithCode maps an error onto an ExitError using the sentinel mapping.
// A nil error passes through.
func exitWithCode(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return NewExitError(err, ExitCodeFromError(err))
}
