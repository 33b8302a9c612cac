package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackify/cli/internal/domain"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/types"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "table", "Output format (table, json, yaml)")
}

func parseFormat(s string) (types.Format, error) {
	f, err := types.ParseFormat(s)
	if err != nil {
		return "", clierrors.ValidationError(err, "")
	}
	return f, nil
}

// writeStructured prints v as JSON or YAML. It reports false for table output.
func writeStructured(w io.Writer, format types.Format, v any) (bool, error) {
	switch format {
	case types.FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case types.FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return true, err
	default:
		return false, nil
	}
}

func parseEnvironmentName(s string) (domain.EnvironmentName, error) {
	name, err := domain.ParseEnvironmentName(s)
	if err != nil {
		return domain.EnvironmentName{}, clierrors.ValidationError(err,
			"Environment names are lowercase letters and digits separated by '.', '_' or '-'.")
	}
	return name, nil
}
