package types

import "fmt"

// OutputMode represents the output style
type OutputMode int

const (
	// OutputModeInteractive shows spinners, colors and emojis
	OutputModeInteractive OutputMode = iota
	// OutputModeCI shows plain text, no spinners
	OutputModeCI
)

// Format selects how command results are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json or yaml)", s)
	}
}
