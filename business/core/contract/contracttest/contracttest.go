// Package contracttest contains supporting code for running tests against
// an in process development chain.
package contracttest

import (
	"context"
	"sync"
	"testing"

	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	Success = "\u2713"
	Failed  = "\u2717"
)

// Test owns the chain and the accounts used by a test.
type Test struct {
	Chain       *devchain.Chain
	Client      *Client
	Owner       *keystore.Key
	Alice       *keystore.Key
	Bob         *keystore.Key
	Beneficiary *keystore.Key
	Keystore    *keystore.Keystore
}

// New starts a development chain with funded accounts. The owner and alice
// start with 1000 and 100 units.
func New(t *testing.T) *Test {
	t.Helper()

	key := func(name string) *keystore.Key {
		pk, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("generating key: %s", err)
		}
		return keystore.NewKey(name, pk)
	}

	test := Test{
		Owner:       key("owner"),
		Alice:       key("alice"),
		Bob:         key("bob"),
		Beneficiary: key("beneficiary"),
	}
	test.Keystore = keystore.FromKeys(test.Owner, test.Alice, test.Bob, test.Beneficiary)

	gen := devchain.Genesis{
		ChainID:     1,
		Owner:       test.Owner.Address(),
		Beneficiary: test.Beneficiary.Address(),
		Balances: map[string]uint64{
			test.Owner.Address(): 1_000,
			test.Alice.Address(): 100,
		},
	}

	c, err := devchain.New(devchain.Config{Genesis: gen, FinalityDepth: 1})
	if err != nil {
		t.Fatalf("starting chain: %s", err)
	}
	t.Cleanup(func() { c.Shutdown() })

	test.Chain = c
	test.Client = &Client{Chain: c}

	return &test
}

// =============================================================================

// Client implements the chain client behavior against an in process chain.
// Blocks are produced as soon as a call is submitted.
type Client struct {
	Chain *devchain.Chain

	// Err is returned by every method when set.
	Err error

	// OnSubmit is called after a call is signed and before it is submitted.
	OnSubmit func(sc chain.SignedCall)

	// Result replaces the result of every query when set.
	Result *chain.QueryResult

	mu      sync.Mutex
	calls   []chain.SignedCall
	queries []chain.QueryRequest
}

// Deployments implements the chain client behavior.
func (c *Client) Deployments(ctx context.Context) ([]chain.Deployment, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Chain.Deployments(), nil
}

// Query implements the chain client behavior.
func (c *Client) Query(ctx context.Context, req chain.QueryRequest) (chain.QueryResult, error) {
	c.mu.Lock()
	c.queries = append(c.queries, req)
	c.mu.Unlock()

	if c.Err != nil {
		return chain.QueryResult{}, c.Err
	}

	if c.Result != nil {
		return *c.Result, nil
	}

	return c.Chain.Query(req), nil
}

// Submit implements the chain client behavior.
func (c *Client) Submit(ctx context.Context, sc chain.SignedCall, fn func(chain.StatusUpdate)) error {
	c.mu.Lock()
	c.calls = append(c.calls, sc)
	c.mu.Unlock()

	if c.OnSubmit != nil {
		c.OnSubmit(sc)
	}

	if c.Err != nil {
		return c.Err
	}

	hash, err := c.Chain.Submit(sc)
	if err != nil {
		return err
	}

	// Enough blocks for the call to be included and finalized.
	for range 2 {
		if _, _, err := c.Chain.ProduceBlock(); err != nil {
			return err
		}
	}

	hist, _, cancel, err := c.Chain.Subscribe(hash)
	if err != nil {
		return err
	}
	defer cancel()

	if fn != nil {
		for _, su := range hist {
			fn(su)
		}
	}

	return nil
}

// Balance implements the chain client behavior.
func (c *Client) Balance(ctx context.Context, account string) (uint64, error) {
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Chain.Balance(account), nil
}

// Calls returns the calls submitted so far.
func (c *Client) Calls() []chain.SignedCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	calls := make([]chain.SignedCall, len(c.calls))
	copy(calls, c.calls)
	return calls
}

// Queries returns the queries made so far.
func (c *Client) Queries() []chain.QueryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	qs := make([]chain.QueryRequest, len(c.queries))
	copy(qs, c.queries)
	return qs
}
