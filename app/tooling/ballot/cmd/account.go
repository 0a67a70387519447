package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key for the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keystore.Generate(accountPath, accountName)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account: %s  Address: %s\n", key.Name(), key.Address())
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the address of the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := keystore.New(accountPath)
		if err != nil {
			return err
		}

		key, err := ks.Find(accountName)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account: %s  Address: %s\n", key.Name(), key.Address())
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the account",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		bal, err := e.conn.Balance(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Account: %s  Balance: %d\n", e.conn.Account.Address, bal)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(balanceCmd)
}
