// Package devchain implements a development chain node that hosts the
// voting and donation contracts. Calls are executed when a block is
// produced and reported as finalized once enough blocks follow them.
package devchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of errors returned when a call is rejected before inclusion.
var (
	ErrDuplicateCall   = errors.New("call already submitted")
	ErrUnknownContract = errors.New("contract not found")
	ErrUnknownCall     = errors.New("unknown call")
)

// statusBuffer is larger than the number of updates a call can produce so
// publishing never blocks on a slow subscriber.
const statusBuffer = 8

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the chain.
type Config struct {
	Genesis       Genesis
	Storage       Storage
	FinalityDepth uint64
	EvHandler     EventHandler
}

// Chain manages the contracts, balances and blocks of the development chain.
type Chain struct {
	evHandler EventHandler
	storage   Storage
	finality  uint64

	mu          sync.Mutex
	contracts   map[string]Contract
	deployments []chain.Deployment
	balances    map[string]uint64
	seen        map[string]struct{}
	pending     []chain.SignedCall
	latest      Block
	unfinalized []Block
	statuses    map[string][]chain.StatusUpdate
	subs        map[string][]chan chain.StatusUpdate
}

// New constructs the chain, deploys the contracts and replays any blocks
// found in storage.
func New(cfg Config) (*Chain, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if !common.IsHexAddress(cfg.Genesis.Owner) {
		return nil, errors.New("genesis owner is not a valid account")
	}
	if !common.IsHexAddress(cfg.Genesis.Beneficiary) {
		return nil, errors.New("genesis beneficiary is not a valid account")
	}

	strg := cfg.Storage
	if strg == nil {
		strg = NewMemory()
	}

	c := Chain{
		evHandler: ev,
		storage:   strg,
		finality:  cfg.FinalityDepth,
		contracts: make(map[string]Contract),
		balances:  make(map[string]uint64),
		seen:      make(map[string]struct{}),
		statuses:  make(map[string][]chain.StatusUpdate),
		subs:      make(map[string][]chan chain.StatusUpdate),
	}

	for account, balance := range cfg.Genesis.Balances {
		c.balances[normalize(account)] = balance
	}

	// Contracts get the addresses the owner would create them at.
	owner := common.HexToAddress(cfg.Genesis.Owner)
	contracts := []Contract{
		NewVoting(owner.Hex()),
		NewDonation(owner.Hex(), normalize(cfg.Genesis.Beneficiary)),
	}
	for nonce, ct := range contracts {
		address := crypto.CreateAddress(owner, uint64(nonce)).Hex()
		c.contracts[address] = ct
		c.deployments = append(c.deployments, chain.Deployment{Name: ct.Name(), Address: address})
		ev("devchain: deploy: %s: %s", ct.Name(), address)
	}

	if err := c.replay(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Shutdown releases the storage and any status subscribers.
func (c *Chain) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for hash, chs := range c.subs {
		for _, ch := range chs {
			close(ch)
		}
		delete(c.subs, hash)
	}

	return c.storage.Close()
}

// =============================================================================

// Deployments returns the contracts hosted by the chain.
func (c *Chain) Deployments() []chain.Deployment {
	deps := make([]chain.Deployment, len(c.deployments))
	copy(deps, c.deployments)
	return deps
}

// Balance returns the balance of the account.
func (c *Chain) Balance(account string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.balances[normalize(account)]
}

// LatestBlock returns the most recently produced block.
func (c *Chain) LatestBlock() Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.latest
}

// Query executes a read only method against a contract. Failures are
// reported in the envelope, not as an error.
func (c *Chain) Query(req chain.QueryRequest) chain.QueryResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ct, exists := c.contracts[normalize(req.Contract)]
	if !exists {
		return chain.QueryResult{Err: "ContractNotFound"}
	}

	v, err := ct.Query(normalize(req.Caller), req.Method, req.Args)
	if err != nil {
		return chain.QueryResult{Err: reason(err)}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return chain.QueryResult{Err: err.Error()}
	}

	return chain.QueryResult{Ok: data}
}

// Submit validates the signed call and queues it for the next block.
func (c *Chain) Submit(sc chain.SignedCall) (string, error) {
	if err := sc.Validate(); err != nil {
		return "", fmt.Errorf("invalid signature: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.seen[sc.ID]; exists {
		return "", ErrDuplicateCall
	}

	if _, exists := c.contracts[normalize(sc.Contract)]; !exists {
		return "", ErrUnknownContract
	}

	hash := sc.Hash()
	c.seen[sc.ID] = struct{}{}
	c.pending = append(c.pending, sc)

	c.evHandler("devchain: submit: hash[%s] method[%s] caller[%s]", hash, sc.Method, sc.Caller)
	c.publish(chain.StatusUpdate{Hash: hash, Status: chain.StatusReady})

	return hash, nil
}

// Subscribe returns the updates already reported for the call and a
// channel for the ones still to come. The channel is nil when the call
// already reached a terminal status and is closed after the terminal update.
func (c *Chain) Subscribe(hash string) ([]chain.StatusUpdate, <-chan chain.StatusUpdate, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, exists := c.statuses[hash]
	if !exists {
		return nil, nil, nil, fmt.Errorf("call %s: %w", hash, ErrUnknownCall)
	}

	hist := make([]chain.StatusUpdate, len(history))
	copy(hist, history)

	if hist[len(hist)-1].IsTerminal() {
		return hist, nil, func() {}, nil
	}

	ch := make(chan chain.StatusUpdate, statusBuffer)
	c.subs[hash] = append(c.subs[hash], ch)

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		chs := c.subs[hash]
		for i, sub := range chs {
			if sub == ch {
				c.subs[hash] = append(chs[:i], chs[i+1:]...)
				close(ch)
				return
			}
		}
	}

	return hist, ch, cancel, nil
}

// ProduceBlock executes the pending calls in a new block and finalizes the
// blocks that are deep enough. Nothing is produced when there is no work.
func (c *Chain) ProduceBlock() (Block, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 && len(c.unfinalized) == 0 {
		return Block{}, false, nil
	}

	calls := c.pending
	c.pending = nil

	receipts := make([]Receipt, len(calls))
	for i, sc := range calls {
		receipts[i] = c.execute(sc)
	}

	block := Block{
		Header: BlockHeader{
			Number:    c.latest.Header.Number + 1,
			PrevHash:  c.latest.Hash(),
			TimeStamp: uint64(time.Now().UTC().UnixMilli()),
			CallsHash: signature.Hash(calls),
		},
		Calls:    calls,
		Receipts: receipts,
	}

	if err := c.storage.Write(block); err != nil {
		return Block{}, false, fmt.Errorf("write block %d: %w", block.Header.Number, err)
	}

	c.latest = block
	blockHash := block.Hash()

	c.evHandler("devchain: produce: block[%d] hash[%s] calls[%d]", block.Header.Number, blockHash, len(calls))

	for _, r := range receipts {
		c.publish(chain.StatusUpdate{
			Hash:      r.Hash,
			Status:    chain.StatusInBlock,
			Block:     block.Header.Number,
			BlockHash: blockHash,
			Events:    r.Events,
		})
	}

	c.unfinalized = append(c.unfinalized, block)
	c.finalize()

	return block, true, nil
}

// =============================================================================

// finalize reports the calls of every block that is now deep enough.
func (c *Chain) finalize() {
	for len(c.unfinalized) > 0 {
		blk := c.unfinalized[0]
		if blk.Header.Number+c.finality > c.latest.Header.Number {
			return
		}

		for _, r := range blk.Receipts {
			c.publish(chain.StatusUpdate{
				Hash:      r.Hash,
				Status:    chain.StatusFinalized,
				Block:     blk.Header.Number,
				BlockHash: blk.Hash(),
				Events:    r.Events,
			})
		}

		c.evHandler("devchain: finalize: block[%d]", blk.Header.Number)
		c.unfinalized = c.unfinalized[1:]
	}
}

// execute runs the call against its contract. Balance changes are rolled
// back when the contract fails.
func (c *Chain) execute(sc chain.SignedCall) Receipt {
	hash := sc.Hash()

	fail := func(name string) Receipt {
		c.evHandler("devchain: execute: hash[%s] method[%s] failed[%s]", hash, sc.Method, name)
		return Receipt{
			Hash:   hash,
			Events: []chain.Event{{Method: chain.EventExtrinsicFailed, Data: map[string]string{"error": name}}},
		}
	}

	address := normalize(sc.Contract)
	ct, exists := c.contracts[address]
	if !exists {
		return fail("ContractNotFound")
	}

	var value uint64
	if sc.Value != "" {
		v, err := strconv.ParseUint(sc.Value, 10, 64)
		if err != nil {
			return fail("InvalidValue")
		}
		value = v
	}

	if value > 0 && !ct.Payable(sc.Method) {
		return fail("NonPayable")
	}

	caller := normalize(sc.Caller)
	snapshot := c.copyBalances()

	if value > 0 {
		if c.balances[caller] < value {
			return fail("InsufficientBalance")
		}
		c.balances[caller] -= value
		c.balances[address] += value
	}

	env := Env{
		Caller: caller,
		Value:  value,
		transfer: func(to string, amount uint64) error {
			if c.balances[address] < amount {
				return contractErr("InsufficientBalance")
			}
			c.balances[address] -= amount
			c.balances[normalize(to)] += amount
			return nil
		},
	}

	if err := ct.Execute(&env, sc.Method, sc.Args); err != nil {
		c.balances = snapshot
		return fail(reason(err))
	}

	events := append(env.events, chain.Event{Method: chain.EventExtrinsicSuccess})

	return Receipt{
		Hash:    hash,
		Success: true,
		Events:  events,
	}
}

// replay re-executes the journaled blocks to rebuild the state.
func (c *Chain) replay() error {
	blocks, err := c.storage.ReadAll()
	if err != nil {
		return fmt.Errorf("read blocks: %w", err)
	}

	for _, blk := range blocks {
		for _, sc := range blk.Calls {
			c.seen[sc.ID] = struct{}{}
			r := c.execute(sc)

			c.statuses[r.Hash] = []chain.StatusUpdate{{
				Hash:      r.Hash,
				Status:    chain.StatusFinalized,
				Block:     blk.Header.Number,
				BlockHash: blk.Hash(),
				Events:    r.Events,
			}}
		}
		c.latest = blk
	}

	if len(blocks) > 0 {
		c.evHandler("devchain: replay: blocks[%d] latest[%d]", len(blocks), c.latest.Header.Number)
	}

	return nil
}

// publish records the update and hands it to the subscribers of the call.
func (c *Chain) publish(su chain.StatusUpdate) {
	c.statuses[su.Hash] = append(c.statuses[su.Hash], su)

	for _, ch := range c.subs[su.Hash] {
		select {
		case ch <- su:
		default:
		}
	}

	if su.IsTerminal() {
		for _, ch := range c.subs[su.Hash] {
			close(ch)
		}
		delete(c.subs, su.Hash)
	}
}

func (c *Chain) copyBalances() map[string]uint64 {
	cpy := make(map[string]uint64, len(c.balances))
	for account, balance := range c.balances {
		cpy[account] = balance
	}
	return cpy
}

// normalize returns the checksummed form of an account address.
func normalize(account string) string {
	if !common.IsHexAddress(account) {
		return account
	}
	return common.HexToAddress(account).Hex()
}
