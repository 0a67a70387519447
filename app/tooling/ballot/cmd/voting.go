package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/voting"
	"github.com/spf13/cobra"
)

var proposeCmd = &cobra.Command{
	Use:   "propose <name>",
	Short: "Create a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := voting.NewPanel(e.log, e.notify)
		out, err := p.CreateProposal(ctx, e.conn, args[0])
		return outcome(cmd, out, err)
	}),
}

var voteCmd = &cobra.Command{
	Use:   "vote <id> <Aye|Nye>",
	Short: "Vote on the proposal open for voting",
	Args:  cobra.ExactArgs(2),
	RunE: rowCmd(func(ctx context.Context, e env, row *voting.Row, args []string) (action.Outcome, error) {
		return row.CastVote(ctx, e.conn, args[1])
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Finish voting on a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: rowCmd(func(ctx context.Context, e env, row *voting.Row, args []string) (action.Outcome, error) {
		return row.RemoveProposal(ctx, e.conn)
	}),
}

var activateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Open a proposal for voting",
	Args:  cobra.ExactArgs(1),
	RunE: rowCmd(func(ctx context.Context, e env, row *voting.Row, args []string) (action.Outcome, error) {
		return row.ChangeProposalStatus(ctx, e.conn)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register the account as a voter",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := voting.NewPanel(e.log, e.notify)
		out, err := p.RegisterUser(ctx, e.conn, args[0])
		return outcome(cmd, out, err)
	}),
}

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List proposals, newest first",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := voting.NewPanel(e.log, e.notify)

		f := p.Proposals
		if activeOnly {
			f = p.ActiveProposals
		}

		if err := f.Fetch(ctx, e.conn); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tAYE\tNYE\tTOTAL\tACTIVE\tFINISHED")
		for _, prop := range f.Value() {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%t\t%t\n", prop.ID, prop.Name, prop.VoteAye, prop.VoteNye, prop.TotalVote, prop.Status, prop.VotingFinished)
		}
		return tw.Flush()
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := voting.NewPanel(e.log, e.notify)
		if err := p.Users.Fetch(ctx, e.conn); err != nil {
			return err
		}

		for _, u := range p.Users.Value() {
			fmt.Fprintf(cmd.OutOrStdout(), "Name: %s  Account: %s\n", u.Name, u.Account)
		}
		return nil
	}),
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Print the owner of the voting contract",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		p := voting.NewPanel(e.log, e.notify)
		if err := p.Owner.Fetch(ctx, e.conn); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Owner: %s\n", p.Owner.Value())
		return nil
	}),
}

var activeOnly bool

func init() {
	proposalsCmd.Flags().BoolVar(&activeOnly, "active", false, "Only list proposals open for voting.")

	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(proposalsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(ownerCmd)
}

// rowCmd runs an action on the row of the proposal named by the first
// argument.
func rowCmd(fn func(ctx context.Context, e env, row *voting.Row, args []string) (action.Outcome, error)) func(*cobra.Command, []string) error {
	return run(func(ctx context.Context, cmd *cobra.Command, e env, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		p := voting.NewPanel(e.log, e.notify)
		row := p.Row(voting.Proposal{ID: id})

		out, err := fn(ctx, e, row, args)
		return outcome(cmd, out, err)
	})
}

// outcome prints the outcome of a write action. The console already
// reported the result, failures only set the exit code.
func outcome(cmd *cobra.Command, out action.Outcome, err error) error {
	if out.Hash != "" {
		printOutcome(cmd.OutOrStdout(), out)
	}
	return err
}
