package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stackify/cli/internal/domain"
	clierrors "github.com/stackify/cli/internal/errors"
)

func newKeychainCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keychain",
		Short: "🔑 Manage genesis accounts of an environment",
	}
	cmd.AddCommand(
		newKeychainAddCommand(a),
		newKeychainListCommand(a),
	)
	return cmd
}

func newKeychainAddCommand(a *app) *cobra.Command {
	var kc domain.Keychain
	cmd := &cobra.Command{
		Use:   "add <environment> <name>",
		Short: "Add an account funded at genesis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvironmentName(args[0])
			if err != nil {
				return err
			}
			if kc.StxAddress == "" && kc.BtcAddress == "" {
				return clierrors.ValidationError(fmt.Errorf("keychain %s has no address", args[1]),
					"Pass --stx, --btc or both.")
			}
			kc.Name = args[1]
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			added, err := s.AddKeychain(cmd.Context(), env, kc)
			if err != nil {
				return err
			}
			a.reporter.Success("Keychain added", "environment", env, "keychain", added.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&kc.StxAddress, "stx", "", "Stacks address")
	cmd.Flags().StringVar(&kc.BtcAddress, "btc", "", "Bitcoin address")
	cmd.Flags().Uint64Var(&kc.Balance, "balance", 0, "Genesis balance in micro-STX")
	return cmd
}

func newKeychainListCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "list <environment>",
		Aliases: []string{"ls"},
		Short:   "List the accounts of an environment",
		Args:    cobra.ExactArgs(1),
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
			if done, err := writeStructured(w, f, env.Keychains); done {
				return err
			}
			rows := [][]string{{"NAME", "STX", "BTC", "BALANCE"}}
			for _, k := range env.Keychains {
				rows = append(rows, []string{k.Name, k.StxAddress, k.BtcAddress, strconv.FormatUint(k.Balance, 10)})
			}
			return a.pm.RenderTable(w, rows)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}
