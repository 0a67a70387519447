package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ballot/app/services/devnode/handlers"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

type nodeTest struct {
	client *chain.Client
	owner  *keystore.Key
	alice  *keystore.Key
}

func newNodeTest(t *testing.T) *nodeTest {
	t.Helper()

	key := func(name string) *keystore.Key {
		pk, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("generating key: %s", err)
		}
		return keystore.NewKey(name, pk)
	}

	owner, alice, benef := key("owner"), key("alice"), key("beneficiary")

	c, err := devchain.New(devchain.Config{
		Genesis: devchain.Genesis{
			Owner:       owner.Address(),
			Beneficiary: benef.Address(),
			Balances:    map[string]uint64{alice.Address(): 50},
		},
		FinalityDepth: 1,
	})
	if err != nil {
		t.Fatalf("starting chain: %s", err)
	}

	worker := devchain.Run(c, 10*time.Millisecond)

	shutdown := make(chan os.Signal, 1)
	srv := httptest.NewServer(handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      logger.NewNop(),
		Chain:    c,
	}))

	t.Cleanup(func() {
		srv.Close()
		worker.Shutdown()
		c.Shutdown()
	})

	return &nodeTest{
		client: chain.NewClient(srv.URL),
		owner:  owner,
		alice:  alice,
	}
}

func Test_Node(t *testing.T) {
	t.Log("Given the need to talk to a development node over the wire.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the owner creates a proposal.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			nt := newNodeTest(t)

			deps, err := nt.client.Deployments(ctx)
			if err != nil || len(deps) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould list both contracts: %+v %v", failed, testID, deps, err)
			}
			t.Logf("\t%s\tTest %d:\tShould list both contracts.", success, testID)

			voting := deps[0].Address

			call, err := chain.NewCall(nt.owner.Address(), voting, "createProposal", "", "new logo")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the call: %v", failed, testID, err)
			}
			sc, err := call.Sign(nt.owner)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign the call: %v", failed, testID, err)
			}

			var statuses []chain.Status
			var last chain.StatusUpdate
			err = nt.client.Submit(ctx, sc, func(su chain.StatusUpdate) {
				statuses = append(statuses, su.Status)
				last = su
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit.", success, testID)

			if last.Status != chain.StatusFinalized || statuses[0] != chain.StatusReady {
				t.Fatalf("\t%s\tTest %d:\tShould stream from ready to finalized: %v", failed, testID, statuses)
			}
			if ev := last.Events[len(last.Events)-1]; ev.Method != chain.EventExtrinsicSuccess {
				t.Fatalf("\t%s\tTest %d:\tShould end with ExtrinsicSuccess: %+v", failed, testID, last.Events)
			}
			t.Logf("\t%s\tTest %d:\tShould stream from ready to finalized.", success, testID)

			if err := nt.client.Submit(ctx, sc, nil); err == nil || !strings.Contains(err.Error(), "already submitted") {
				t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate call: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a duplicate call.", success, testID)

			args, _ := chain.EncodeArgs()
			res, err := nt.client.Query(ctx, chain.QueryRequest{Contract: voting, Method: "getAllProposal", Args: args})
			if err != nil || !strings.Contains(string(res.Ok), "new logo") {
				t.Fatalf("\t%s\tTest %d:\tShould see the proposal: %s %v", failed, testID, res.Ok, err)
			}
			t.Logf("\t%s\tTest %d:\tShould see the proposal.", success, testID)

			res, err = nt.client.Query(ctx, chain.QueryRequest{Contract: voting, Method: "nope"})
			if err != nil || res.Err != "UnknownMethod" {
				t.Fatalf("\t%s\tTest %d:\tShould report contract errors in the envelope: %+v %v", failed, testID, res, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report contract errors in the envelope.", success, testID)

			if _, err := nt.client.Query(ctx, chain.QueryRequest{Contract: voting}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a query without a method.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a query without a method.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for balances.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			nt := newNodeTest(t)

			bal, err := nt.client.Balance(ctx, nt.alice.Address())
			if err != nil || bal != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould get alice's balance: %d %v", failed, testID, bal, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get alice's balance.", success, testID)

			if _, err := nt.client.Balance(ctx, "alice"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a bad account.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a bad account.", success, testID)

			resp, err := http.Get(nt.client.URL() + "/v1/tx/status/0xdeadbeef")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to ask for a status: %v", failed, testID, err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould get 404 for an unknown call: %d", failed, testID, resp.StatusCode)
			}
			t.Logf("\t%s\tTest %d:\tShould get 404 for an unknown call.", success, testID)
		}
	}
}
