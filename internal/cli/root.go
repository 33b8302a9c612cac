package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackify/cli/internal/config"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/sentry"
	"github.com/stackify/cli/internal/version"
)

// Execute runs the stackify command line. The returned error is already
// classified; callers derive the exit code from it.
func Execute(cfg *config.Config) error {
	a := newApp(cfg)
	rootCmd := newRootCommand(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := a.close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err == nil {
		return nil
	}

	classified := classify(err)
	if !isClassified(classified) {
		sentry.CaptureError(err, map[string]string{"command": commandPath(rootCmd)}, nil)
		if a.reporter != nil {
			if history := a.reporter.History(); len(history) > 0 {
				fmt.Fprintln(os.Stderr, "Diagnostic history:")
				for _, line := range history {
					fmt.Fprintln(os.Stderr, "  "+line)
				}
			}
		}
	}
	return classified
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackify",
		Short: "🧱 Stackify - local Bitcoin and Stacks test networks",
		Long: `Stackify provisions and operates local Bitcoin + Stacks test networks on Docker.

An environment is a named set of services sharing a private network and an
epoch timeline. Configure it once, then start, stop and tear it down at will.

Quick Start:
  • Create an environment:  stackify environment new alpha
  • Add services:           stackify service add alpha --type bitcoin-miner --version 27.1
  • Start it:               stackify environment start alpha
  • Tear it down:           stackify environment down alpha`,
		Example: `  # Create and start a two-node bitcoin network
  stackify environment new alpha
  stackify service add alpha --type bitcoin-miner --version 27.1
  stackify service add alpha --type bitcoin-follower --version 27.1
  stackify environment start alpha

  # Show what is running
  stackify environment status alpha`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setOutput(cmd.ErrOrStderr())
			sentry.AddBreadcrumb("command", cmd.CommandPath(), map[string]interface{}{"args": args})
		},
	}

	rootCmd.AddCommand(
		newEnvironmentCommand(a),
		newServiceCommand(a),
		newEpochCommand(a),
		newKeychainCommand(a),
		newCatalogCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stackify version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stackify "+version.GetVersion())
		},
	}
}

func commandPath(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.CommandPath()
}

func isClassified(err error) bool {
	cliErr, ok := err.(*clierrors.CLIError)
	return ok && cliErr.Type != clierrors.ErrorTypeUnknown
}
