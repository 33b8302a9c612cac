package pterm

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/stackify/cli/internal/types"
)

// PTermManager manages PTerm components with OutputMode awareness
type PTermManager struct {
	mode     types.OutputMode
	disabled bool
}

// NewPTermManager creates a new PTerm manager with appropriate configuration
func NewPTermManager(mode types.OutputMode) *PTermManager {
	pm := &PTermManager{mode: mode}

	if os.Getenv("STACKIFY_PTERM_ENABLED") == "false" {
		pm.disabled = true
		return pm
	}

	// Disable PTerm features in CI/non-TTY environments
	if mode == types.OutputModeCI || !isatty.IsTerminal(os.Stdout.Fd()) {
		pterm.DisableColor()
		pterm.DisableStyling()
		pm.disabled = true
	}

	pm.applyTheme()
	return pm
}

func (pm *PTermManager) applyTheme() {
	pterm.Success = *pterm.Success.WithMessageStyle(pterm.NewStyle(pterm.FgLightGreen))
	pterm.Error = *pterm.Error.WithMessageStyle(pterm.NewStyle(pterm.FgLightRed))
	pterm.Info = *pterm.Info.WithMessageStyle(pterm.NewStyle(pterm.FgLightCyan))
	pterm.Warning = *pterm.Warning.WithMessageStyle(pterm.NewStyle(pterm.FgYellow))
}

// Table creates a configured table printer
func (pm *PTermManager) Table() *pterm.TablePrinter {
	if pm.disabled {
		return pterm.DefaultTable.WithHasHeader(true)
	}

	return pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold)).
		WithBoxed(false)
}

// Section creates a configured section printer
func (pm *PTermManager) Section() *pterm.SectionPrinter {
	if pm.disabled {
		return &pterm.DefaultSection
	}

	return pterm.DefaultSection.WithStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold))
}

// Mode returns the current output mode
func (pm *PTermManager) Mode() types.OutputMode {
	return pm.mode
}

// RenderTable prints rows to w, the first row being the header
func (pm *PTermManager) RenderTable(w io.Writer, rows [][]string) error {
	return pm.Table().WithData(pterm.TableData(rows)).WithWriter(w).Render()
}

// RenderSection prints a section heading to w
func (pm *PTermManager) RenderSection(w io.Writer, title string) {
	pm.Section().WithWriter(w).Println(title)
}
