package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

// Styles for messages printed outside of pterm, such as the final error.
var (
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FAFFF"))
)

var (
	runningColor = color.New(color.FgGreen, color.Bold)
	stoppedColor = color.New(color.FgYellow)
	failedColor  = color.New(color.FgRed, color.Bold)
	neutralColor = color.New(color.FgHiBlack)
)

// State colors a container or environment state for a table cell.
func State(state string) string {
	switch state {
	case "running", "anchor-running", "started", "reused", "created", "removed":
		return runningColor.Sprint(state)
	case "exited", "stopped", "anchor-created", "network-only":
		return stoppedColor.Sprint(state)
	case "failed", "dead":
		return failedColor.Sprint(state)
	default:
		return neutralColor.Sprint(state)
	}
}
