package devchain_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type contractTest struct {
	chain    *devchain.Chain
	storage  *devchain.Memory
	genesis  devchain.Genesis
	owner    *keystore.Key
	alice    *keystore.Key
	bob      *keystore.Key
	benef    *keystore.Key
	voting   string
	donation string
}

func newKey(t *testing.T, name string) *keystore.Key {
	t.Helper()

	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	return keystore.NewKey(name, pk)
}

func setupContractTest(t *testing.T) *contractTest {
	t.Helper()

	ct := contractTest{
		storage: devchain.NewMemory(),
		owner:   newKey(t, "owner"),
		alice:   newKey(t, "alice"),
		bob:     newKey(t, "bob"),
		benef:   newKey(t, "beneficiary"),
	}

	ct.genesis = devchain.Genesis{
		Owner:       ct.owner.Address(),
		Beneficiary: ct.benef.Address(),
		Balances: map[string]uint64{
			ct.owner.Address(): 1_000,
			ct.alice.Address(): 100,
		},
	}

	ct.start(t)
	return &ct
}

func (ct *contractTest) start(t *testing.T) {
	t.Helper()

	c, err := devchain.New(devchain.Config{
		Genesis:       ct.genesis,
		Storage:       ct.storage,
		FinalityDepth: 1,
	})
	require.NoError(t, err)

	ct.chain = c
	for _, dep := range c.Deployments() {
		switch dep.Name {
		case "voting":
			ct.voting = dep.Address
		case "donation":
			ct.donation = dep.Address
		}
	}
	require.NotEmpty(t, ct.voting)
	require.NotEmpty(t, ct.donation)
}

// send submits the call, produces enough blocks to finalize it and returns
// every status update reported for it.
func (ct *contractTest) send(t *testing.T, signer *keystore.Key, contract string, method string, value string, args ...any) []chain.StatusUpdate {
	t.Helper()

	call, err := chain.NewCall(signer.Address(), contract, method, value, args...)
	require.NoError(t, err)

	sc, err := call.Sign(signer)
	require.NoError(t, err)

	hash, err := ct.chain.Submit(sc)
	require.NoError(t, err)

	for range 2 {
		_, _, err := ct.chain.ProduceBlock()
		require.NoError(t, err)
	}

	hist, ch, cancel, err := ct.chain.Subscribe(hash)
	require.NoError(t, err)
	require.Nil(t, ch)
	cancel()

	return hist
}

// mustSucceed sends the call and requires the finalized outcome to be success.
func (ct *contractTest) mustSucceed(t *testing.T, signer *keystore.Key, contract string, method string, value string, args ...any) {
	t.Helper()

	hist := ct.send(t, signer, contract, method, value, args...)
	last := hist[len(hist)-1]
	require.Equal(t, chain.StatusFinalized, last.Status)
	require.Equal(t, chain.EventExtrinsicSuccess, last.Events[len(last.Events)-1].Method, "events: %+v", last.Events)
}

// mustFail sends the call and requires it to fail with the named error.
func (ct *contractTest) mustFail(t *testing.T, signer *keystore.Key, contract string, method string, value string, errName string, args ...any) {
	t.Helper()

	hist := ct.send(t, signer, contract, method, value, args...)
	last := hist[len(hist)-1]
	require.Equal(t, chain.StatusFinalized, last.Status)
	require.Len(t, last.Events, 1)
	require.Equal(t, chain.EventExtrinsicFailed, last.Events[0].Method)
	require.Equal(t, errName, last.Events[0].Data["error"])
}

func query[T any](t *testing.T, ct *contractTest, contract string, method string, args ...any) T {
	t.Helper()

	raw, err := chain.EncodeArgs(args...)
	require.NoError(t, err)

	res := ct.chain.Query(chain.QueryRequest{Contract: contract, Method: method, Args: raw})
	require.Empty(t, res.Err)

	var v T
	require.NoError(t, json.Unmarshal(res.Ok, &v))
	return v
}

// =============================================================================

func TestStatusFlow(t *testing.T) {
	ct := setupContractTest(t)

	hist := ct.send(t, ct.owner, ct.voting, "createProposal", "", "upgrade node infra")

	require.Len(t, hist, 3)
	require.Equal(t, chain.StatusReady, hist[0].Status)
	require.Equal(t, chain.StatusInBlock, hist[1].Status)
	require.Equal(t, chain.StatusFinalized, hist[2].Status)
	require.Equal(t, hist[1].BlockHash, hist[2].BlockHash)
	require.Equal(t, "ProposalCreated", hist[2].Events[0].Method)
}

func TestSubscribeBeforeInclusion(t *testing.T) {
	ct := setupContractTest(t)

	call, err := chain.NewCall(ct.owner.Address(), ct.voting, "createProposal", "", "first")
	require.NoError(t, err)
	sc, err := call.Sign(ct.owner)
	require.NoError(t, err)

	hash, err := ct.chain.Submit(sc)
	require.NoError(t, err)

	hist, ch, cancel, err := ct.chain.Subscribe(hash)
	require.NoError(t, err)
	defer cancel()
	require.Len(t, hist, 1)
	require.NotNil(t, ch)

	for range 2 {
		_, _, err := ct.chain.ProduceBlock()
		require.NoError(t, err)
	}

	var got []chain.Status
	for su := range ch {
		got = append(got, su.Status)
	}
	require.Equal(t, []chain.Status{chain.StatusInBlock, chain.StatusFinalized}, got)
}

func TestSubmitRejections(t *testing.T) {
	ct := setupContractTest(t)

	call, err := chain.NewCall(ct.owner.Address(), ct.voting, "createProposal", "", "first")
	require.NoError(t, err)

	// Signed by alice while claiming to be the owner.
	forged, err := call.Sign(ct.alice)
	require.NoError(t, err)
	_, err = ct.chain.Submit(forged)
	require.Error(t, err)

	sc, err := call.Sign(ct.owner)
	require.NoError(t, err)
	_, err = ct.chain.Submit(sc)
	require.NoError(t, err)

	_, err = ct.chain.Submit(sc)
	require.ErrorIs(t, err, devchain.ErrDuplicateCall)

	other, err := chain.NewCall(ct.owner.Address(), ct.alice.Address(), "createProposal", "", "first")
	require.NoError(t, err)
	sc, err = other.Sign(ct.owner)
	require.NoError(t, err)
	_, err = ct.chain.Submit(sc)
	require.ErrorIs(t, err, devchain.ErrUnknownContract)

	_, _, _, err = ct.chain.Subscribe("0x1234")
	require.ErrorIs(t, err, devchain.ErrUnknownCall)
}

func TestNoWorkNoBlock(t *testing.T) {
	ct := setupContractTest(t)

	_, produced, err := ct.chain.ProduceBlock()
	require.NoError(t, err)
	require.False(t, produced)
	require.Equal(t, uint64(0), ct.chain.LatestBlock().Header.Number)
}

func TestReplay(t *testing.T) {
	ct := setupContractTest(t)

	ct.mustSucceed(t, ct.owner, ct.voting, "createProposal", "", "first")
	ct.mustSucceed(t, ct.alice, ct.voting, "registerUser", "", ct.alice.Address(), "alice")
	ct.mustSucceed(t, ct.alice, ct.donation, "donate", "40")

	latest := ct.chain.LatestBlock().Header.Number
	require.NoError(t, ct.chain.Shutdown())

	// Start a new chain over the same journal.
	ct.start(t)

	require.Equal(t, latest, ct.chain.LatestBlock().Header.Number)
	require.Len(t, query[[]devchain.Proposal](t, ct, ct.voting, "getAllProposal"), 1)
	require.Len(t, query[[]devchain.User](t, ct, ct.voting, "getAllUsers"), 1)
	require.Equal(t, uint64(60), ct.chain.Balance(ct.alice.Address()))
	require.Equal(t, uint64(40), ct.chain.Balance(ct.benef.Address()))
}

func TestDiskStorage(t *testing.T) {
	disk, err := devchain.NewDisk(t.TempDir())
	require.NoError(t, err)

	blk := devchain.Block{Header: devchain.BlockHeader{Number: 1}}
	require.NoError(t, disk.Write(blk))
	blk.Header.Number = 2
	require.NoError(t, disk.Write(blk))

	blocks, err := disk.ReadAll()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, uint64(2), blocks[1].Header.Number)
}
