package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	clierrors "github.com/stackify/cli/internal/errors"
)

func newEpochCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "⏱  Manage the epoch timeline",
	}
	cmd.AddCommand(
		newEpochListCommand(a),
		newEpochAddCommand(a),
		newEpochSetCommand(a),
	)
	return cmd
}

func parseHeight(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, clierrors.ValidationError(fmt.Errorf("invalid block height %q", s), "Heights are non-negative integers.")
	}
	return h, nil
}

func newEpochListCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List known epochs and their default heights",
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
			epochs, err := s.ListEpochs(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if done, err := writeStructured(w, f, epochs); done {
				return err
			}
			rows := [][]string{{"EPOCH", "DEFAULT HEIGHT"}}
			for _, e := range epochs {
				rows = append(rows, []string{e.Name, strconv.FormatUint(e.DefaultBlockHeight, 10)})
			}
			return a.pm.RenderTable(w, rows)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newEpochAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <default-height>",
		Short: "Add an epoch to the catalog",
		Long: `Add an epoch to the catalog. Environments created afterwards bind it at
its default height; existing ones can bind it with 'epoch set'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := parseHeight(args[1])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			epoch, err := s.InsertEpoch(cmd.Context(), args[0], height)
			if err != nil {
				return err
			}
			a.reporter.Success("Epoch added", "epoch", epoch.Name, "height", epoch.DefaultBlockHeight)
			return nil
		},
	}
}

func newEpochSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set <environment> <epoch> <height>",
		Short:   "Set the starting height of an epoch in one environment",
		Example: `  stackify epoch set alpha 3.0 142`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			height, err := parseHeight(args[2])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SetEnvironmentEpoch(cmd.Context(), env, args[1], height); err != nil {
				return err
			}
			a.reporter.Success("Epoch height set", "environment", env, "epoch", args[1], "height", height)
			return nil
		},
	}
}
