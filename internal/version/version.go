package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the current version of the CLI
	// This will be overridden by ldflags during build
	Version = "dev"

	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

// SetBuildInfo sets the build information
func SetBuildInfo(commitHash, buildDate, builder string) {
	commit = commitHash
	date = buildDate
	builtBy = builder
}

// GetVersion returns the full version string
func GetVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, by: %s)",
		Version, commit, date, builtBy)
}

// IsRelease reports whether Version is a semantic version rather than a
// development build.
func IsRelease() bool {
	_, err := semver.NewVersion(Version)
	return err == nil
}
