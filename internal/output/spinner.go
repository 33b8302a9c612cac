package output

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/stackify/cli/internal/types"
)

// Spinner provides a simple interface for showing progress
type Spinner struct {
	spinner *spinner.Spinner
	mode    types.OutputMode
	message string
	writer  io.Writer
}

// NewSpinnerTo creates a new spinner writing to w
func NewSpinnerTo(w io.Writer, message string, mode types.OutputMode) *Spinner {
	s := &Spinner{
		mode:    mode,
		message: message,
		writer:  w,
	}

	if mode == types.OutputModeInteractive {
		s.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.spinner.Suffix = " " + message
		s.spinner.Writer = w
		s.spinner.Color("cyan", "bold")
	}

	return s
}

// Start starts the spinner
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
		return
	}
	fmt.Fprintf(s.writer, "⏳ %s...\n", s.message)
}

// Stop stops the spinner
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(message string) {
	s.Stop()
	fmt.Fprintf(s.writer, "✓ %s\n", message)
}

// Fail stops the spinner and shows a failure message
func (s *Spinner) Fail(message string) {
	s.Stop()
	fmt.Fprintf(s.writer, "✗ %s\n", message)
}
