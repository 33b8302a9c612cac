package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/stackify/cli/internal/domain"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/store"
)

func newServiceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"svc"},
		Short:   "🔧 Manage the services of an environment",
	}

	cmd.AddCommand(
		newServiceAddCommand(a),
		newServiceRemoveCommand(a),
		newServiceSetParamCommand(a),
		newServiceSetFileCommand(a),
	)
	return cmd
}

func newServiceAddCommand(a *app) *cobra.Command {
	var (
		typeName string
		version  string
		remark   string
		ports    []string
	)
	cmd := &cobra.Command{
		Use:   "add <environment>",
		Short: "Add a service to an environment",
		Example: `  stackify service add alpha --type bitcoin-miner --version 27.1
  stackify service add alpha --type stacks-miner --version 2.5.0.0.7 --port 20443:20443`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			t, err := domain.ParseServiceType(typeName)
			if err != nil {
				return clierrors.ValidationError(err, "Run 'stackify catalog list' to see the service types.")
			}
			req := store.AddServiceRequest{Type: t, Version: version, Remark: remark}
			for _, p := range ports {
				mapping, err := domain.ParsePortMapping(p)
				if err != nil {
					return clierrors.ValidationError(err, "")
				}
				req.Ports = append(req.Ports, mapping)
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := s.AddService(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			a.reporter.Success("Service added", "environment", env, "service", svc.Name, "version", svc.Version.Version)
			fmt.Fprintln(cmd.OutOrStdout(), svc.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Service type, e.g. bitcoin-miner")
	cmd.Flags().StringVarP(&version, "version", "v", "", "Service version from the catalog")
	cmd.Flags().StringVar(&remark, "remark", "", "Free-form note shown by 'environment show'")
	cmd.Flags().StringArrayVarP(&ports, "port", "p", nil, "Publish a port as host:container[/tcp|udp], repeatable")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func newServiceRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <environment> <service>",
		Aliases: []string{"rm"},
		Short:   "Remove a service from an environment's configuration",
		Long: `Remove a service from the stored configuration. A container already
created for it is left alone until the next 'environment down'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.RemoveService(cmd.Context(), env, args[1]); err != nil {
				return err
			}
			a.reporter.Success("Service removed", "environment", env, "service", args[1])
			return nil
		},
	}
}

func newServiceSetParamCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set-param <environment> <service> <key> <value>",
		Short:   "Set a parameter of a service",
		Example: `  stackify service set-param alpha alpha-bitcoin-miner-1a2b rpc_password secret`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SetServiceParam(cmd.Context(), env, args[1], args[2], args[3]); err != nil {
				return err
			}
			a.reporter.Success("Parameter set", "service", args[1], "key", args[2])
			return nil
		},
	}
}

func newServiceSetFileCommand(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "set-file <environment> <service> <file>",
		Short: "Override a configuration file of a service",
		Long: `Replace the catalog content of one of a service's configuration files.
Template files are still rendered at start time, so the override may use the
same placeholders as the original.`,
		Example: `  stackify service set-file alpha alpha-bitcoin-miner-1a2b bitcoin.conf --from ./bitcoin.conf`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			content, err := afero.ReadFile(a.fs, from)
			if err != nil {
				return clierrors.ValidationError(fmt.Errorf("read %s: %w", from, err), "")
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SetServiceFile(cmd.Context(), env, args[1], args[2], content); err != nil {
				return err
			}
			a.reporter.Success("File overridden", "service", args[1], "file", args[2], "bytes", len(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "Path of the replacement content")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
