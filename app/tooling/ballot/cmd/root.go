// Package cmd contains the ballot command line tool.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountName string
	accountPath string
	url         string
	timeout     time.Duration
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "owner", "Name or address of the account to use.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:9080", "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", time.Minute, "How long to wait for a call to finalize.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log what the tool is doing.")
}

var rootCmd = &cobra.Command{
	Use:           "ballot",
	Short:         "Vote on proposals and donate from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// =============================================================================

// env holds what a command needs to run an action against the node.
type env struct {
	log    *zap.SugaredLogger
	notify *notify.Console
	conn   session.Connection
}

// connect connects the selected account to the node.
func connect(ctx context.Context, w io.Writer) (env, error) {
	log := logger.NewNop()
	if verbose {
		l, err := logger.New("BALLOT")
		if err != nil {
			return env{}, err
		}
		log = l
	}

	ks, err := keystore.New(accountPath)
	if err != nil {
		return env{}, fmt.Errorf("loading keystore: %w", err)
	}

	sess, err := session.New(session.Config{
		Log:            log,
		Keystore:       ks,
		Chains:         []session.Chain{{Name: "node", URL: url}},
		DefaultAccount: accountName,
		NewClient: func(url string) contract.Client {
			return chain.NewClient(url)
		},
	})
	if err != nil {
		return env{}, err
	}

	if err := sess.Connect(ctx); err != nil {
		return env{}, err
	}

	e := env{
		log:    log,
		notify: notify.NewConsole(w),
		conn:   sess.Connection(),
	}

	return e, nil
}

// run wraps a command so it connects first and is bounded by the timeout.
// The context comes from the root command, which carries the context of the
// current execution. A subcommand keeps the context of its first execution.
func run(fn func(ctx context.Context, cmd *cobra.Command, e env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Root().Context(), timeout)
		defer cancel()

		e, err := connect(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		return fn(ctx, cmd, e, args)
	}
}

func printOutcome(w io.Writer, out action.Outcome) {
	fmt.Fprintf(w, "Hash: %s  State: %s  Block: %d\n", out.Hash, out.State, out.Block)
	for _, ev := range out.Events {
		fmt.Fprintf(w, "Event: %s %v\n", ev.Method, ev.Data)
	}
}

func parseID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return int32(id), nil
}
