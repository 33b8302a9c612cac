package errors

import (
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeValidation represents argument/flag validation errors
	ErrorTypeValidation
	// ErrorTypePrecondition represents configuration that is incomplete for the command
	ErrorTypePrecondition
	// ErrorTypeNotFound represents a missing environment, service or resource
	ErrorTypeNotFound
	// ErrorTypeConflict represents runtime state stackify refuses to repair
	ErrorTypeConflict
	// ErrorTypeRuntime represents container runtime and general failures
	ErrorTypeRuntime
	// ErrorTypeConfig represents configuration file errors
	ErrorTypeConfig
	// ErrorTypeInfo represents an outcome worth reporting that is not a failure
	ErrorTypeInfo
)

// CLIError wraps errors with type information and context for better UX
type CLIError struct {
	Type    ErrorType
	Err     error
	Context string // Follow-up hint shown below the error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%v\n%s", e.Err, e.Context)
	}
	return e.Err.Error()
}

// Unwrap implements error unwrapping for Go 1.13+ error chains
func (e *CLIError) Unwrap() error {
	return e.Err
}

// ValidationError creates a validation error (shows usage hints)
func ValidationError(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeValidation, Err: err, Context: context}
}

// PreconditionError creates an error for configuration the command cannot run with
func PreconditionError(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypePrecondition, Err: err, Context: context}
}

// NotFoundError creates a not-found error
func NotFoundError(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeNotFound, Err: err, Context: context}
}

// ConflictError creates an error for runtime state that needs manual cleanup
func ConflictError(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeConflict, Err: err, Context: context}
}

// RuntimeError creates a runtime error
func RuntimeError(err error) *CLIError {
	return &CLIError{Type: ErrorTypeRuntime, Err: err}
}

// RuntimeErrorWithContext creates a runtime error with context
func RuntimeErrorWithContext(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeRuntime, Err: err, Context: context}
}

// ConfigError creates a configuration error
func ConfigError(err error) *CLIError {
	return &CLIError{Type: ErrorTypeConfig, Err: err}
}

// ConfigErrorWithContext creates a configuration error with context
func ConfigErrorWithContext(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeConfig, Err: err, Context: context}
}

// InfoError wraps an outcome that is reported but exits successfully
func InfoError(err error, context string) *CLIError {
	return &CLIError{Type: ErrorTypeInfo, Err: err, Context: context}
}
