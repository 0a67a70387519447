package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/spf13/cobra"
)

var donateCmd = &cobra.Command{
	Use:   "donate <amount>",
	Short: "Donate to the beneficiary",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := donation.NewPanel(e.log, e.notify)
		out, err := p.Donate(ctx, e.conn, args[0])
		return outcome(cmd, out, err)
	}),
}

var beneficiaryCmd = &cobra.Command{
	Use:   "beneficiary [account]",
	Short: "Print the beneficiary, or change it when an account is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := donation.NewPanel(e.log, e.notify)

		if len(args) == 1 {
			out, err := p.ChangeBeneficiary(ctx, e.conn, args[0])
			return outcome(cmd, out, err)
		}

		if err := p.CurrentBeneficiary.Fetch(ctx, e.conn); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Beneficiary: %s\n", p.CurrentBeneficiary.Value())
		return nil
	}),
}

var donationsCmd = &cobra.Command{
	Use:   "donations [id]",
	Short: "List donations, or print one donation by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := donation.NewPanel(e.log, e.notify)

		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			d, err := p.FetchDonation(ctx, e.conn, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Donation: %d  Account: %s  Amount: %d\n", id, d.Account, d.Amount)
			return nil
		}

		if err := p.Donations.Fetch(ctx, e.conn); err != nil {
			return err
		}

		for _, d := range p.Donations.Value() {
			fmt.Fprintf(cmd.OutOrStdout(), "Account: %s  Amount: %d\n", d.Account, d.Amount)
		}
		return nil
	}),
}

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Print the total raised",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := donation.NewPanel(e.log, e.notify)
		if err := p.TotalRaised.Fetch(ctx, e.conn); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", p.TotalRaised.Value())
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(donateCmd)
	rootCmd.AddCommand(beneficiaryCmd)
	rootCmd.AddCommand(donationsCmd)
	rootCmd.AddCommand(totalCmd)
}
