// Package session manages the wallet connection the dashboard works with:
// the active chain, the active account and the contracts resolved on it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"go.uber.org/zap"
)

// Set of errors returned by the session.
var (
	ErrUnknownChain = errors.New("chain not supported")
	ErrNoAccounts   = errors.New("no accounts in keystore")
	ErrNotConnected = errors.New("not connected")
)

// Chain is a supported chain and the url of its node.
type Chain struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ParseChains parses a set of name=url pairs.
func ParseChains(pairs []string) ([]Chain, error) {
	chains := make([]Chain, 0, len(pairs))
	for _, pair := range pairs {
		name, url, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || name == "" || url == "" {
			return nil, fmt.Errorf("chain %q: expecting name=url", pair)
		}
		chains = append(chains, Chain{Name: name, URL: url})
	}

	if len(chains) == 0 {
		return nil, errors.New("no chains configured")
	}

	return chains, nil
}

// Account is an account available for connecting.
type Account struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// =============================================================================

// Connection is a snapshot of the session handed to actions. Actions never
// change it.
type Connection struct {
	Chain     Chain
	Account   Account
	Signer    contract.Signer
	Client    contract.Client
	Contracts *contract.Registry
	Connected bool
}

// Contract returns the handle of the named contract or nil.
func (c Connection) Contract(name string) *contract.Handle {
	return c.Contracts.Handle(name)
}

// Balance returns the balance of the connected account.
func (c Connection) Balance(ctx context.Context) (uint64, error) {
	if c.Client == nil || c.Account.Address == "" {
		return 0, ErrNotConnected
	}
	return c.Client.Balance(ctx, c.Account.Address)
}

// =============================================================================

// Config represents the settings required to construct a session.
type Config struct {
	Log            *zap.SugaredLogger
	Keystore       *keystore.Keystore
	Chains         []Chain
	DefaultChain   string
	DefaultAccount string
	NewClient      func(url string) contract.Client
}

// Session owns the connection state. The fields only change through its
// methods.
type Session struct {
	log       *zap.SugaredLogger
	ks        *keystore.Keystore
	chains    []Chain
	defAcct   string
	newClient func(url string) contract.Client

	mu   sync.RWMutex
	conn Connection
}

// New constructs a disconnected session on the default chain.
func New(cfg Config) (*Session, error) {
	if len(cfg.Chains) == 0 {
		return nil, errors.New("no chains configured")
	}

	if cfg.NewClient == nil {
		return nil, errors.New("no client factory configured")
	}

	active := cfg.Chains[0]
	if cfg.DefaultChain != "" {
		ch, err := findChain(cfg.Chains, cfg.DefaultChain)
		if err != nil {
			return nil, err
		}
		active = ch
	}

	s := Session{
		log:       cfg.Log,
		ks:        cfg.Keystore,
		chains:    cfg.Chains,
		defAcct:   cfg.DefaultAccount,
		newClient: cfg.NewClient,
		conn:      Connection{Chain: active},
	}

	return &s, nil
}

// Connect selects the default account and resolves the contracts on the
// active chain.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.defaultKey()
	if err != nil {
		return err
	}

	client := s.newClient(s.conn.Chain.URL)

	reg, err := contract.Resolve(ctx, client)
	if err != nil {
		return fmt.Errorf("connect %s: %w", s.conn.Chain.Name, err)
	}

	s.conn = Connection{
		Chain:     s.conn.Chain,
		Account:   Account{Name: key.Name(), Address: key.Address()},
		Signer:    key,
		Client:    client,
		Contracts: reg,
		Connected: true,
	}

	s.log.Infow("session: connect", "chain", s.conn.Chain.Name, "account", key.Address())

	return nil
}

// Disconnect forgets the account, the client and the contracts.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn = Connection{Chain: s.conn.Chain}

	s.log.Infow("session: disconnect", "chain", s.conn.Chain.Name)
}

// SetActiveChain switches to the named chain. When connected, a new client
// is built and the contracts are resolved again.
func (s *Session) SetActiveChain(ctx context.Context, name string) error {
	ch, err := findChain(s.chains, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.conn.Connected {
		s.conn.Chain = ch
		return nil
	}

	client := s.newClient(ch.URL)

	reg, err := contract.Resolve(ctx, client)
	if err != nil {
		return fmt.Errorf("switch to %s: %w", ch.Name, err)
	}

	s.conn.Chain = ch
	s.conn.Client = client
	s.conn.Contracts = reg

	s.log.Infow("session: chain", "chain", ch.Name, "url", ch.URL)

	return nil
}

// SetAccount switches to the account with the specified name or address.
func (s *Session) SetAccount(nameOrAddress string) error {
	if s.ks == nil {
		return ErrNoAccounts
	}

	key, err := s.ks.Find(nameOrAddress)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.Account = Account{Name: key.Name(), Address: key.Address()}
	s.conn.Signer = key

	s.log.Infow("session: account", "account", key.Address())

	return nil
}

// Connection returns a snapshot of the current connection.
func (s *Session) Connection() Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.conn
}

// Chains returns the supported chains.
func (s *Session) Chains() []Chain {
	chains := make([]Chain, len(s.chains))
	copy(chains, s.chains)
	return chains
}

// Accounts returns the accounts available in the keystore.
func (s *Session) Accounts() []Account {
	if s.ks == nil {
		return nil
	}

	keys := s.ks.Keys()
	accounts := make([]Account, len(keys))
	for i, key := range keys {
		accounts[i] = Account{Name: key.Name(), Address: key.Address()}
	}

	return accounts
}

// =============================================================================

func (s *Session) defaultKey() (*keystore.Key, error) {
	if s.ks == nil || len(s.ks.Keys()) == 0 {
		return nil, ErrNoAccounts
	}

	// An account already chosen survives a reconnect.
	if s.conn.Account.Address != "" {
		return s.ks.Find(s.conn.Account.Address)
	}

	if s.defAcct != "" {
		return s.ks.Find(s.defAcct)
	}

	return s.ks.Keys()[0], nil
}

func findChain(chains []Chain, name string) (Chain, error) {
	for _, ch := range chains {
		if ch.Name == name {
			return ch, nil
		}
	}
	return Chain{}, fmt.Errorf("%q: %w", name, ErrUnknownChain)
}
