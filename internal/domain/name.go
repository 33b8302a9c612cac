package domain

import (
	"fmt"
	"regexp"
)

var environmentNamePattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-]{1,2}[a-z0-9]+)*$`)

// EnvironmentName is a validated environment identifier. The zero value is
// invalid; use ParseEnvironmentName.
type EnvironmentName struct {
	value string
}

// ParseEnvironmentName validates s and returns it as an EnvironmentName.
func ParseEnvironmentName(s string) (EnvironmentName, error) {
	if s == "" {
		return EnvironmentName{}, fmt.Errorf("environment name cannot be empty")
	}
	if !environmentNamePattern.MatchString(s) {
		return EnvironmentName{}, fmt.Errorf("invalid environment name %q: use lowercase letters and digits separated by '.', '_' or '-'", s)
	}
	return EnvironmentName{value: s}, nil
}

// MustEnvironmentName is like ParseEnvironmentName but panics on invalid input.
func MustEnvironmentName(s string) EnvironmentName {
	name, err := ParseEnvironmentName(s)
	if err != nil {
		panic(err)
	}
	return name
}

func (n EnvironmentName) String() string {
	return n.value
}

// IsZero reports whether n was never initialised.
func (n EnvironmentName) IsZero() bool {
	return n.value == ""
}
