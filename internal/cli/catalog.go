package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackify/cli/internal/domain"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/store"
)

func newCatalogCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "📚 Browse service types and versions",
	}
	cmd.AddCommand(newCatalogListCommand(a))
	return cmd
}

func newCatalogListCommand(a *app) *cobra.Command {
	var (
		format   string
		typeName string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List service types with their versions, parameters and files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			var only *domain.ServiceType
			if typeName != "" {
				t, err := domain.ParseServiceType(typeName)
				if err != nil {
					return clierrors.ValidationError(err, "")
				}
				only = &t
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			all, err := s.ListServiceTypes(cmd.Context())
			if err != nil {
				return err
			}
			var types []store.ServiceTypeInfo
			for _, info := range all {
				if only == nil || info.Type == *only {
					types = append(types, info)
				}
			}

			w := cmd.OutOrStdout()
			if done, err := writeStructured(w, f, types); done {
				return err
			}
			rows := [][]string{{"TYPE", "VERSIONS", "PARAMS", "FILES"}}
			for _, info := range types {
				var versions, params, files []string
				for _, v := range info.Versions {
					versions = append(versions, v.Version)
				}
				for _, p := range info.Params {
					key := p.Key
					if p.Required {
						key += "*"
					}
					params = append(params, key)
				}
				for _, file := range info.Files {
					files = append(files, file.Name)
				}
				rows = append(rows, []string{
					info.Type.CLIName(),
					strings.Join(versions, ", "),
					strings.Join(params, ", "),
					strings.Join(files, ", "),
				})
			}
			return a.pm.RenderTable(w, rows)
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Only show this service type")
	addOutputFlag(cmd, &format)
	return cmd
}
