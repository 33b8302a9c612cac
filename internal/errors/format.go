package errors

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError formats a CLIError for display to the user
// Returns a user-friendly error message with context
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	switch err.Type {
	case ErrorTypeInfo:
		sb.WriteString("ℹ ")
	case ErrorTypeValidation:
		sb.WriteString("✗ Validation Error: ")
	case ErrorTypePrecondition:
		sb.WriteString("✗ Incomplete Configuration: ")
	case ErrorTypeNotFound:
		sb.WriteString("✗ Not Found: ")
	case ErrorTypeConflict:
		sb.WriteString("✗ Conflict: ")
	case ErrorTypeConfig:
		sb.WriteString("✗ Configuration Error: ")
	default:
		sb.WriteString("✗ Error: ")
	}

	sb.WriteString(err.Err.Error())

	if err.Context != "" {
		sb.WriteString("\n\n")
		sb.WriteString(err.Context)
	}

	return sb.String()
}

// FormatSimple formats an error without type prefix
// Useful for wrapping non-CLIError types
func FormatSimple(err error) string {
	if err == nil {
		return ""
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return FormatError(cliErr)
	}

	return fmt.Sprintf("✗ Error: %v", err)
}
