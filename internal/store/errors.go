package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvironmentNotFound is returned when no environment has the requested name.
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrEnvironmentExists is returned when creating a duplicate environment.
	ErrEnvironmentExists = errors.New("environment already exists")
	// ErrServiceNotFound is returned when no service has the requested name.
	ErrServiceNotFound = errors.New("service not found")
	// ErrVersionNotFound is returned for an unknown service version.
	ErrVersionNotFound = errors.New("service version not found")
	// ErrEpochNotFound is returned for an unknown epoch.
	ErrEpochNotFound = errors.New("epoch not found")
	// ErrEpochExists is returned when inserting a duplicate epoch.
	ErrEpochExists = errors.New("epoch already exists")
	// ErrUnknownParam is returned when setting a param the service type does not declare.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrUnknownFile is returned when overriding a file the service type does not declare.
	ErrUnknownFile = errors.New("unknown file")
)

// MissingRequiredParameterError reports a required parameter with no value.
type MissingRequiredParameterError struct {
	Environment string
	Service     string
	Param       string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("service %s in environment %s is missing required parameter %q", e.Service, e.Environment, e.Param)
}

// MissingEpochOrVersionConstraintError reports a service whose version cannot
// be resolved or whose epoch bounds are not part of the environment timeline.
type MissingEpochOrVersionConstraintError struct {
	Environment string
	Service     string
	Reason      string
}

func (e *MissingEpochOrVersionConstraintError) Error() string {
	return fmt.Sprintf("service %s in environment %s: %s", e.Service, e.Environment, e.Reason)
}
