package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackify/cli/internal/domain"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/naming"
	"github.com/stackify/cli/internal/orchestrator"
	"github.com/stackify/cli/internal/style"
	"github.com/stackify/cli/internal/types"
)

func newEnvironmentCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "environment",
		Aliases: []string{"env"},
		Short:   "🌐 Manage environments",
		Long: `Create, inspect and operate environments.

An environment owns a private Docker network named stx-<name> and an anchor
container of the same name. Its services join that network when started.`,
	}

	cmd.AddCommand(
		newEnvironmentNewCommand(a),
		newEnvironmentListCommand(a),
		newEnvironmentShowCommand(a),
		newEnvironmentDeleteCommand(a),
		newEnvironmentStartCommand(a),
		newEnvironmentStopCommand(a),
		newEnvironmentDownCommand(a),
		newEnvironmentStatusCommand(a),
		newEnvironmentLogsCommand(a),
	)
	return cmd
}

func newEnvironmentNewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "new <name>",
		Short:   "Create an environment",
		Example: `  stackify environment new alpha`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			env, err := s.CreateEnvironment(cmd.Context(), name)
			if err != nil {
				return err
			}
			a.reporter.Success("Environment created", "environment", name, "epochs", len(env.Epochs))
			return nil
		},
	}
}

func newEnvironmentListCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List environments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			envs, err := s.ListEnvironments(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if done, err := writeStructured(w, f, envs); done {
				return err
			}
			if len(envs) == 0 {
				fmt.Fprintln(w, "No environments. Create one with 'stackify environment new <name>'.")
				return nil
			}
			rows := [][]string{{"NAME", "SERVICES", "CREATED"}}
			for _, e := range envs {
				rows = append(rows, []string{e.Name, strconv.Itoa(e.ServiceCount), e.CreatedAt.Format("2006-01-02 15:04")})
			}
			return a.pm.RenderTable(w, rows)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

type environmentView struct {
	Name        string              `json:"name" yaml:"name"`
	Environment *domain.Environment `json:"environment" yaml:"environment"`
}

func newEnvironmentShowCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the configuration of an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			env, err := s.InspectEnvironment(cmd.Context(), name)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if done, err := writeStructured(w, f, environmentView{Name: name.String(), Environment: env}); done {
				return err
			}
			return a.renderEnvironment(w, env)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func (a *app) renderEnvironment(w io.Writer, env *domain.Environment) error {
	a.pm.RenderSection(w, "Environment "+env.Name.String())
	fmt.Fprintf(w, "Network: %s\nCreated: %s\n", naming.NetworkName(env.Name), env.CreatedAt.Format("2006-01-02 15:04"))

	a.pm.RenderSection(w, "Services")
	if len(env.Services) == 0 {
		fmt.Fprintln(w, "No services.")
	} else {
		rows := [][]string{{"NAME", "TYPE", "VERSION", "PORTS", "PARAMS", "REMARK"}}
		for _, svc := range env.Services {
			var ports, params []string
			for _, p := range svc.Ports {
				ports = append(ports, p.String())
			}
			for _, p := range svc.Params {
				params = append(params, p.Key+"="+p.Value)
			}
			rows = append(rows, []string{
				svc.Name, svc.Type.CLIName(), svc.Version.Version,
				strings.Join(ports, ","), strings.Join(params, " "), svc.Remark,
			})
		}
		if err := a.pm.RenderTable(w, rows); err != nil {
			return err
		}
	}

	a.pm.RenderSection(w, "Epochs")
	rows := [][]string{{"EPOCH", "STARTS AT"}}
	for _, ee := range env.Epochs {
		rows = append(rows, []string{ee.Epoch.Name, strconv.FormatUint(ee.StartsAtHeight, 10)})
	}
	if err := a.pm.RenderTable(w, rows); err != nil {
		return err
	}

	if len(env.Keychains) > 0 {
		a.pm.RenderSection(w, "Keychains")
		rows := [][]string{{"NAME", "STX", "BTC", "BALANCE"}}
		for _, kc := range env.Keychains {
			rows = append(rows, []string{kc.Name, kc.StxAddress, kc.BtcAddress, strconv.FormatUint(kc.Balance, 10)})
		}
		return a.pm.RenderTable(w, rows)
	}
	return nil
}

func newEnvironmentDeleteCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Tear down an environment and remove its configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := a.confirm(fmt.Sprintf("Delete environment %s and all of its services", name))
				if err != nil {
					return err
				}
				if !ok {
					return clierrors.InfoError(fmt.Errorf("deletion of %s cancelled", name), "")
				}
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, err = o.Delete(cmd.Context(), name)
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newEnvironmentStartCommand(a *app) *cobra.Command {
	var (
		format string
		opts   orchestrator.StartOptions
	)
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start an environment",
		Long: `Start an environment: ensure its network and anchor container exist and
are running, then provision and start each configured service.

A service that fails to provision is reported and skipped; the command only
fails when the network or anchor cannot be brought up.`,
		Example: `  stackify environment start alpha
  stackify environment start scratch --allow-empty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := o.Start(cmd.Context(), name, opts)
			if err != nil {
				return err
			}
			if failed := result.Failed(); len(failed) > 0 {
				a.reporter.Warn("Some services failed to start", "environment", name, "failed", len(failed))
			}
			return a.renderResult(cmd.OutOrStdout(), f, result)
		},
	}
	cmd.Flags().BoolVar(&opts.AllowEmpty, "allow-empty", false, "Start the network and anchor even when no services are configured")
	addOutputFlag(cmd, &format)
	return cmd
}

func newEnvironmentStopCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop the containers of an environment, keeping them for a later start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := o.Stop(cmd.Context(), name)
			if err != nil {
				return err
			}
			if result.NothingToDo {
				return nil
			}
			return a.renderResult(cmd.OutOrStdout(), f, result)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newEnvironmentDownCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "down <name>",
		Short: "Remove the containers and network of an environment",
		Long: `Remove every container labelled with the environment, services first and
the anchor last, then its network. The stored configuration is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := o.Down(cmd.Context(), name)
			if err != nil {
				return err
			}
			if result.NothingToDo {
				return nil
			}
			return a.renderResult(cmd.OutOrStdout(), f, result)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

type resourceView struct {
	Kind    string `json:"kind" yaml:"kind"`
	Name    string `json:"name" yaml:"name"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

type resultView struct {
	Environment string         `json:"environment" yaml:"environment"`
	Resources   []resourceView `json:"resources" yaml:"resources"`
}

func (a *app) renderResult(w io.Writer, f types.Format, result *orchestrator.Result) error {
	view := resultView{Environment: result.Environment.String()}
	for _, r := range result.Resources {
		rv := resourceView{Kind: r.Kind, Name: r.Name, Outcome: string(r.Outcome), Reason: r.Reason}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		}
		view.Resources = append(view.Resources, rv)
	}
	if done, err := writeStructured(w, f, view); done {
		return err
	}
	rows := [][]string{{"KIND", "NAME", "OUTCOME", "DETAIL"}}
	for _, rv := range view.Resources {
		detail := rv.Reason
		if rv.Error != "" {
			detail = rv.Error
		}
		rows = append(rows, []string{rv.Kind, rv.Name, style.State(rv.Outcome), detail})
	}
	return a.pm.RenderTable(w, rows)
}

type statusView struct {
	Environment string          `json:"environment" yaml:"environment"`
	State       string          `json:"state" yaml:"state"`
	Network     string          `json:"network,omitempty" yaml:"network,omitempty"`
	Containers  []containerView `json:"containers" yaml:"containers"`
}

type containerView struct {
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
	Image  string `json:"image" yaml:"image"`
	State  string `json:"state" yaml:"state"`
	Status string `json:"status" yaml:"status"`
}

func newEnvironmentStatusCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Show what the runtime holds for an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			status, err := o.Status(cmd.Context(), name)
			if err != nil {
				return err
			}

			view := statusView{Environment: name.String(), State: string(status.State)}
			if status.Network != nil {
				view.Network = status.Network.Name
			}
			for _, c := range status.Containers {
				view.Containers = append(view.Containers, containerView{
					Name:   c.Name,
					Role:   c.Labels[naming.LabelRole],
					Image:  c.Image,
					State:  c.State,
					Status: c.Status,
				})
			}

			w := cmd.OutOrStdout()
			if done, err := writeStructured(w, f, view); done {
				return err
			}
			fmt.Fprintf(w, "Environment %s is %s\n", name, style.State(view.State))
			if len(view.Containers) == 0 {
				return nil
			}
			rows := [][]string{{"NAME", "ROLE", "IMAGE", "STATE", "STATUS"}}
			for _, c := range view.Containers {
				rows = append(rows, []string{c.Name, c.Role, c.Image, style.State(c.State), c.Status})
			}
			return a.pm.RenderTable(w, rows)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newEnvironmentLogsCommand(a *app) *cobra.Command {
	var opts orchestrator.LogsOptions
	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Print the logs of an environment's containers",
		Example: `  stackify environment logs alpha
  stackify environment logs alpha --service alpha-bitcoin-miner-1a2b --follow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return o.Logs(cmd.Context(), name, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Service, "service", "s", "", "Only show the logs of this container")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Keep streaming new output")
	return cmd
}
