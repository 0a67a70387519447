package contract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/contract/contracttest"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/devchain"
)

const (
	success = contracttest.Success
	failed  = contracttest.Failed
)

func Test_Registry(t *testing.T) {
	t.Log("Given the need to resolve contract handles.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen resolving against a node.", testID)
		{
			test := contracttest.New(t)

			reg, err := contract.Resolve(context.Background(), test.Client)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to resolve the deployments: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to resolve the deployments.", success, testID)

			for _, name := range []string{contract.Voting, contract.Donation} {
				if h := reg.Handle(name); h == nil || h.Address == "" {
					t.Fatalf("\t%s\tTest %d:\tShould find the %s contract.", failed, testID, name)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould find both contracts.", success, testID)

			if reg.Handle("staking") != nil {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown contract.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown contract.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen nothing is resolved.", testID)
		{
			var reg *contract.Registry
			if reg.Handle(contract.Voting) != nil {
				t.Fatalf("\t%s\tTest %d:\tShould get a nil handle from a nil registry.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a nil handle from a nil registry.", success, testID)

			test := contracttest.New(t)
			test.Client.Err = errors.New("node down")
			if _, err := contract.Resolve(context.Background(), test.Client); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail when the node is down.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail when the node is down.", success, testID)
		}
	}
}

func Test_Unwrap(t *testing.T) {
	type table struct {
		name string
		env  contract.Envelope
		want uint64
		err  error
	}

	tt := []table{
		{name: "ok", env: contract.Envelope{Ok: []byte("95")}, want: 95},
		{name: "err", env: contract.Envelope{Err: "NotOwner"}, err: contract.ErrQueryFailed},
		{name: "empty", env: contract.Envelope{}, err: contract.ErrEmptyResult},
	}

	t.Log("Given the need to unwrap query envelopes.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling an %s envelope.", testID, tst.name)
				{
					got, err := contract.Unwrap[uint64](tst.env)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get the expected error: got %v, exp %v", failed, testID, err, tst.err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)

					if got != tst.want {
						t.Fatalf("\t%s\tTest %d:\tShould get the expected value: got %d, exp %d", failed, testID, got, tst.want)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected value.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_QueryAndTx(t *testing.T) {
	t.Log("Given the need to call contracts.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the owner creates a proposal.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)

			reg, err := contract.Resolve(ctx, test.Client)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to resolve the deployments: %v", failed, testID, err)
			}
			h := reg.Handle(contract.Voting)

			tr := contract.NewTracker()
			if err := contract.Tx(ctx, test.Client, test.Owner, h, "createProposal", contract.Options{}, []any{"new logo"}, tr.Observe); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit the call: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit the call.", success, testID)

			if !tr.Succeeded() {
				t.Fatalf("\t%s\tTest %d:\tShould finalize successfully: %s %s", failed, testID, tr.State(), tr.Reason())
			}
			t.Logf("\t%s\tTest %d:\tShould finalize successfully.", success, testID)

			env, err := contract.Query(ctx, test.Client, test.Owner.Address(), h, "getAllProposal")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query proposals: %v", failed, testID, err)
			}

			props, err := contract.Unwrap[[]devchain.Proposal](env)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unwrap proposals: %v", failed, testID, err)
			}

			if len(props) != 1 || props[0].Name != "new logo" {
				t.Fatalf("\t%s\tTest %d:\tShould see the new proposal: %+v", failed, testID, props)
			}
			t.Logf("\t%s\tTest %d:\tShould see the new proposal.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a non owner creates a proposal.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)

			reg, _ := contract.Resolve(ctx, test.Client)

			tr := contract.NewTracker()
			if err := contract.Tx(ctx, test.Client, test.Alice, reg.Handle(contract.Voting), "createProposal", contract.Options{}, []any{"mine"}, tr.Observe); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit the call: %v", failed, testID, err)
			}

			if tr.State() != contract.StateFailed || tr.Reason() != devchain.ErrNotOwner {
				t.Fatalf("\t%s\tTest %d:\tShould fail with NotOwner: %s %s", failed, testID, tr.State(), tr.Reason())
			}
			t.Logf("\t%s\tTest %d:\tShould fail with NotOwner.", success, testID)

			if !errors.Is(tr.Err(), contract.ErrTxFailed) {
				t.Fatalf("\t%s\tTest %d:\tShould report ErrTxFailed: %v", failed, testID, tr.Err())
			}
			t.Logf("\t%s\tTest %d:\tShould report ErrTxFailed.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the contract is not resolved.", testID)
		{
			test := contracttest.New(t)

			err := contract.Tx(context.Background(), test.Client, test.Owner, nil, "createProposal", contract.Options{}, nil, nil)
			if !errors.Is(err, contract.ErrNoHandle) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNoHandle: %v", failed, testID, err)
			}

			if _, err := contract.Query(context.Background(), test.Client, "", nil, "getAllProposal"); !errors.Is(err, contract.ErrNoHandle) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNoHandle: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNoHandle.", success, testID)

			if n := len(test.Client.Calls()) + len(test.Client.Queries()); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not reach the node: %d requests", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not reach the node.", success, testID)
		}
	}
}

func Test_Tracker(t *testing.T) {
	okEvents := []chain.Event{{Method: "ProposalCreated"}, {Method: chain.EventExtrinsicSuccess}}
	failEvents := []chain.Event{{Method: chain.EventExtrinsicFailed, Data: map[string]string{"error": "NotOwner"}}}

	type table struct {
		name    string
		updates []chain.StatusUpdate
		state   contract.State
		reason  string
	}

	tt := []table{
		{
			name:    "finalized",
			updates: []chain.StatusUpdate{{Status: chain.StatusReady}, {Status: chain.StatusInBlock, Events: okEvents}, {Status: chain.StatusFinalized, Events: okEvents}},
			state:   contract.StateFinalized,
		},
		{
			name:    "included",
			updates: []chain.StatusUpdate{{Status: chain.StatusReady}, {Status: chain.StatusInBlock, Events: okEvents}},
			state:   contract.StateIncluded,
		},
		{
			name:    "extrinsic-failed",
			updates: []chain.StatusUpdate{{Status: chain.StatusInBlock, Events: failEvents}, {Status: chain.StatusFinalized, Events: failEvents}},
			state:   contract.StateFailed,
			reason:  "NotOwner",
		},
		{
			name:    "no-outcome",
			updates: []chain.StatusUpdate{{Status: chain.StatusFinalized}},
			state:   contract.StateFailed,
			reason:  "no outcome event",
		},
		{
			name:    "dropped",
			updates: []chain.StatusUpdate{{Status: chain.StatusReady}, {Status: chain.StatusDropped}},
			state:   contract.StateFailed,
			reason:  "dropped",
		},
		{
			name:    "sticky",
			updates: []chain.StatusUpdate{{Status: chain.StatusInvalid, Error: "bad nonce"}, {Status: chain.StatusFinalized, Events: okEvents}},
			state:   contract.StateFailed,
			reason:  "bad nonce",
		},
	}

	t.Log("Given the need to follow a transaction to its outcome.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen observing the %s sequence.", testID, tst.name)
				{
					tr := contract.NewTracker()
					for _, su := range tst.updates {
						tr.Observe(su)
					}

					if tr.State() != tst.state {
						t.Fatalf("\t%s\tTest %d:\tShould end in state %s: got %s", failed, testID, tst.state, tr.State())
					}
					t.Logf("\t%s\tTest %d:\tShould end in state %s.", success, testID, tst.state)

					if tr.Reason() != tst.reason {
						t.Fatalf("\t%s\tTest %d:\tShould have reason %q: got %q", failed, testID, tst.reason, tr.Reason())
					}
					t.Logf("\t%s\tTest %d:\tShould have the expected reason.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
