package errors

import "errors"

const (
	// ExitCodeSuccess indicates successful execution
	ExitCodeSuccess = 0

	// ExitCodeRuntime indicates a general runtime error
	ExitCodeRuntime = 1

	// ExitCodeValidation indicates a usage/validation error (follows bash convention)
	ExitCodeValidation = 2

	// ExitCodePrecondition indicates incomplete environment configuration
	ExitCodePrecondition = 3

	// ExitCodeNotFound indicates a missing environment or resource
	ExitCodeNotFound = 4

	// ExitCodeConflict indicates ambiguous runtime state
	ExitCodeConflict = 5

	// ExitCodeConfig indicates a configuration error
	ExitCodeConfig = 6
)

// ExitCode returns the appropriate exit code for an error type
func ExitCode(t ErrorType) int {
	switch t {
	case ErrorTypeInfo:
		return ExitCodeSuccess
	case ErrorTypeValidation:
		return ExitCodeValidation
	case ErrorTypePrecondition:
		return ExitCodePrecondition
	case ErrorTypeNotFound:
		return ExitCodeNotFound
	case ErrorTypeConflict:
		return ExitCodeConflict
	case ErrorTypeConfig:
		return ExitCodeConfig
	default:
		return ExitCodeRuntime
	}
}

// ExitCodeFromError extracts the exit code from an error
// Returns ExitCodeRuntime for non-CLIError types
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return ExitCode(cliErr.Type)
	}

	return ExitCodeRuntime
}
