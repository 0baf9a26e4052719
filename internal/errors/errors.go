// Package errors provides centralized error handling for sieve.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrNotFound indicates that a contract artifact does not exist on disk.
	ErrNotFound = errors.New("contract not found")

	// ErrUnsupportedLanguage indicates that a contract file extension does not
	// map to a supported language.
	ErrUnsupportedLanguage = errors.New("unsupported contract language")

	// ErrMalformedProject indicates that an embedded multi-file project could
	// not be located or parsed.
	ErrMalformedProject = errors.New("malformed project document")

	// ErrToolUnavailable indicates that an analysis tool is not installed.
	ErrToolUnavailable = errors.New("analysis tool unavailable")

	// ErrExecutionTimeout indicates that a tool invocation exceeded its deadline.
	ErrExecutionTimeout = errors.New("execution timeout exceeded")

	// ErrBackendUnavailable indicates that the preferred execution backend
	// (typically the container runtime) cannot be prepared.
	ErrBackendUnavailable = errors.New("execution backend unavailable")

	// ErrParseFailure indicates that raw tool output could not be interpreted.
	ErrParseFailure = errors.New("tool output parse failure")

	// ErrNoContracts indicates that no contract artifacts were resolved from the input.
	ErrNoContracts = errors.New("no contracts found")

	// ErrNoValidTools indicates that none of the requested tools are known.
	ErrNoValidTools = errors.New("no valid tools specified")

	// ErrUnknownTool indicates that an unknown tool name was specified.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrPathTraversal indicates that a project entry path escapes its destination.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrCommandFailed indicates that a command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotConfigured indicates that a mock command was not configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidAnalysis indicates an invalid analysis configuration value.
	ErrConfigInvalidAnalysis = errors.New("invalid analysis configuration")

	// ErrConfigInvalidSolc indicates an invalid compiler configuration value.
	ErrConfigInvalidSolc = errors.New("invalid solc configuration")

	// ErrConfigInvalidContainer indicates an invalid container configuration value.
	ErrConfigInvalidContainer = errors.New("invalid container configuration")

	// ErrConfigInvalidStore indicates an invalid result store configuration value.
	ErrConfigInvalidStore = errors.New("invalid store configuration")

	// ErrConfigInvalidPaths indicates an invalid output path configuration value.
	ErrConfigInvalidPaths = errors.New("invalid paths configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidRemap indicates a user-supplied remap is not of the form alias=dir.
	ErrInvalidRemap = errors.New("invalid remap")

	// ErrInvalidBackendMode indicates an unknown backend mode was specified.
	ErrInvalidBackendMode = errors.New("invalid backend mode")

	// ErrConflictingFlags indicates that mutually exclusive flags were specified.
	ErrConflictingFlags = errors.New("conflicting flags specified")

	// ErrUserInputRequired indicates user input is required but not provided.
	// Commands should exit with code 2 when this error is returned.
	ErrUserInputRequired = errors.New("user input required")

	// ErrMirrorFailed indicates that uploading an artifact to the object mirror failed.
	ErrMirrorFailed = errors.New("object mirror upload failed")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
