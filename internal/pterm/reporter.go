package pterm

import (
	"fmt"
	"sync"
	"time"
)

// Reporter prints lifecycle progress through a Logger and keeps every event
// so the history can be shown when a command fails unexpectedly.
type Reporter struct {
	logger *Logger

	mu      sync.Mutex
	history []string
}

// NewReporter creates a reporter printing through logger
func NewReporter(logger *Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Step reports progress on the current step
func (r *Reporter) Step(message string, kv ...any) {
	r.record("STEP", message, kv)
	r.logger.Info(message, kv...)
}

// Success reports a completed step
func (r *Reporter) Success(message string, kv ...any) {
	r.record("OK", message, kv)
	r.logger.Success(message, kv...)
}

// Warn reports a non-fatal problem
func (r *Reporter) Warn(message string, kv ...any) {
	r.record("WARN", message, kv)
	r.logger.Warning(message, kv...)
}

// Fail reports a failed step
func (r *Reporter) Fail(message string, kv ...any) {
	r.record("FAIL", message, kv)
	r.logger.Error(message, kv...)
}

// History returns every event reported so far, oldest first
func (r *Reporter) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

func (r *Reporter) record(level, message string, kv []any) {
	line := fmt.Sprintf("%s %-4s %s", time.Now().Format("15:04:05"), level, r.logger.formatMessage(message, kv...))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, line)
}
