package csvload

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	res := loader.Load(ctx, path, table)
//	if errors.Is(res.Err, csvload.ErrTypeConflict) {
//	    // a later chunk did not match the column kinds of the first one
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrSchemaProvisioning indicates a schema could not be created.
	ErrSchemaProvisioning = errors.New("schema provisioning failed")

	// ErrReadFailed indicates a source file could not be opened or parsed as CSV.
	ErrReadFailed = errors.New("read failed")

	// ErrDecodeFailed indicates a source file is not valid in the configured encoding.
	ErrDecodeFailed = errors.New("decode failed")

	// ErrColumnMismatch indicates a row has more fields than the header.
	ErrColumnMismatch = errors.New("column mismatch")

	// ErrTypeConflict indicates a value cannot be stored in the column kind
	// fixed by the first chunk.
	ErrTypeConflict = errors.New("type conflict")

	// ErrPersistFailed indicates the database rejected a chunk.
	ErrPersistFailed = errors.New("persist failed")

	// ErrTableNameCollision indicates a file was skipped because an earlier
	// file in the same folder maps to the same table.
	ErrTableNameCollision = errors.New("table name collision")

	// ErrRunIncomplete indicates the run finished but at least one file or
	// folder failed.
	ErrRunIncomplete = errors.New("run finished with errors")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrRunIncomplete):
		return ExitRunIncomplete
	}

	errStr := err.Error()

	// cobra reports usage problems as plain errors
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}
