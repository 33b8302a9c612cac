package pterm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// Logger provides structured logging with PTerm
type Logger struct {
	debugEnabled bool
	disabled     bool
	out          io.Writer
}

// NewLogger creates a new logger instance writing to stderr
func NewLogger(disabled bool) *Logger {
	return &Logger{
		debugEnabled: os.Getenv("STACKIFY_DEBUG") == "true",
		disabled:     disabled,
		out:          os.Stderr,
	}
}

// WithWriter returns a copy of the logger writing to w
func (l *Logger) WithWriter(w io.Writer) *Logger {
	c := *l
	c.out = w
	return &c
}

// SetDebug overrides the STACKIFY_DEBUG setting
func (l *Logger) SetDebug(enabled bool) {
	l.debugEnabled = enabled
}

// Debug logs a debug message (only if STACKIFY_DEBUG=true)
func (l *Logger) Debug(message string, args ...interface{}) {
	if !l.debugEnabled {
		return
	}
	l.print(&pterm.Debug, "[DEBUG]", l.formatMessage(message, args...))
}

// Info logs an informational message
func (l *Logger) Info(message string, args ...interface{}) {
	l.print(&pterm.Info, "[INFO]", l.formatMessage(message, args...))
}

// Success logs a success message
func (l *Logger) Success(message string, args ...interface{}) {
	l.print(&pterm.Success, "[SUCCESS] ✓", l.formatMessage(message, args...))
}

// Warning logs a warning message
func (l *Logger) Warning(message string, args ...interface{}) {
	l.print(&pterm.Warning, "[WARNING] ⚠", l.formatMessage(message, args...))
}

// Error logs an error message
func (l *Logger) Error(message string, args ...interface{}) {
	l.print(&pterm.Error, "[ERROR] ✗", l.formatMessage(message, args...))
}

func (l *Logger) print(printer *pterm.PrefixPrinter, plainPrefix, message string) {
	if l.disabled {
		fmt.Fprintf(l.out, "%s %s\n", plainPrefix, message)
		return
	}
	printer.WithWriter(l.out).Println(message)
}

// formatMessage formats a message with optional key-value pairs
func (l *Logger) formatMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}

	var pairs []string
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}

	if len(pairs) > 0 {
		return fmt.Sprintf("%s (%s)", message, strings.Join(pairs, ", "))
	}

	return message
}

// Logger method for PTermManager
func (pm *PTermManager) Logger() *Logger {
	return NewLogger(pm.disabled)
}
