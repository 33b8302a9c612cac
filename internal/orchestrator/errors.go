package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrNoServicesDefined is returned by Start for an environment without services.
	ErrNoServicesDefined = errors.New("no services defined")
	// ErrAlreadyRunning is returned by Start when the anchor container is running.
	ErrAlreadyRunning = errors.New("environment is already running")
	// ErrResourceNotFound is returned when an operation needed at least one resource.
	ErrResourceNotFound = errors.New("resource not found")
)

// Resource kinds used in errors and results.
const (
	KindNetwork   = "network"
	KindAnchor    = "anchor container"
	KindContainer = "container"
)

// AmbiguousResourceError is returned when a filter that should match at most
// one resource matched several. It is never repaired automatically.
type AmbiguousResourceError struct {
	Kind        string
	Environment string
	Count       int
}

func (e *AmbiguousResourceError) Error() string {
	return fmt.Sprintf("found %d %ss for environment %s, expected at most one", e.Count, e.Kind, e.Environment)
}
