package output

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/stackify/cli/internal/types"
)

// IsCI detects if the CLI is running in a CI environment
// Checks multiple common CI environment variables and TTY status
func IsCI() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"STACKIFY_CI_MODE",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"JENKINS_URL",
		"BUILDKITE",
		"TRAVIS",
		"DRONE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	// Check if stdout is not a TTY (piped or redirected)
	return !isatty.IsTerminal(os.Stdout.Fd())
}

// DetectMode returns the output mode for the current process.
func DetectMode() types.OutputMode {
	if IsCI() {
		return types.OutputModeCI
	}
	return types.OutputModeInteractive
}
