// Package contract provides support for calling the voting and donation
// contracts through a chain node.
package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ballot/foundation/chain"
)

// Names of the contracts the dashboard works with.
const (
	Voting   = "voting"
	Donation = "donation"
)

// Set of errors returned by the contract layer.
var (
	ErrNoHandle    = errors.New("contract not resolved")
	ErrQueryFailed = errors.New("query failed")
	ErrEmptyResult = errors.New("query returned no result")
)

// Client represents the behavior required to talk to a chain node.
type Client interface {
	Deployments(ctx context.Context) ([]chain.Deployment, error)
	Query(ctx context.Context, req chain.QueryRequest) (chain.QueryResult, error)
	Submit(ctx context.Context, sc chain.SignedCall, fn func(chain.StatusUpdate)) error
	Balance(ctx context.Context, account string) (uint64, error)
}

// Signer represents an account that can sign calls.
type Signer interface {
	Address() string
	Sign(value any) (string, error)
}

// =============================================================================

// Handle identifies a deployed contract.
type Handle struct {
	Name    string
	Address string
}

// Registry maps contract names to their handles on a chain.
type Registry struct {
	handles map[string]*Handle
}

// NewRegistry constructs a registry from the deployments reported by a node.
func NewRegistry(deps []chain.Deployment) *Registry {
	r := Registry{
		handles: make(map[string]*Handle, len(deps)),
	}

	for _, dep := range deps {
		r.handles[dep.Name] = &Handle{Name: dep.Name, Address: dep.Address}
	}

	return &r
}

// Resolve asks the node for its deployments and builds a registry.
func Resolve(ctx context.Context, client Client) (*Registry, error) {
	deps, err := client.Deployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve deployments: %w", err)
	}

	return NewRegistry(deps), nil
}

// Handle returns the handle for the named contract or nil when the contract
// is not resolved. A nil registry resolves nothing.
func (r *Registry) Handle(name string) *Handle {
	if r == nil {
		return nil
	}
	return r.handles[name]
}

// =============================================================================

// Envelope is the result/error envelope returned by a query.
type Envelope = chain.QueryResult

// Query calls a read only contract method on behalf of the caller.
func Query(ctx context.Context, client Client, caller string, h *Handle, method string, args ...any) (Envelope, error) {
	if h == nil {
		return Envelope{}, ErrNoHandle
	}

	raw, err := chain.EncodeArgs(args...)
	if err != nil {
		return Envelope{}, err
	}

	req := chain.QueryRequest{
		Caller:   caller,
		Contract: h.Address,
		Method:   method,
		Args:     raw,
	}

	env, err := client.Query(ctx, req)
	if err != nil {
		return Envelope{}, fmt.Errorf("query %s.%s: %w", h.Name, method, err)
	}

	return env, nil
}

// Unwrap extracts the value of a successful envelope.
func Unwrap[T any](env Envelope) (T, error) {
	var v T

	if env.Err != "" {
		return v, fmt.Errorf("%w: %s", ErrQueryFailed, env.Err)
	}

	if len(env.Ok) == 0 {
		return v, ErrEmptyResult
	}

	if err := json.Unmarshal(env.Ok, &v); err != nil {
		return v, fmt.Errorf("unwrap: %w", err)
	}

	return v, nil
}

// =============================================================================

// Options carries the settings of a transaction that are not arguments.
type Options struct {
	Value string
}

// Tx signs and submits a state changing call, reporting every status update
// to fn until the node reports a terminal status.
func Tx(ctx context.Context, client Client, signer Signer, h *Handle, method string, opts Options, args []any, fn func(chain.StatusUpdate)) error {
	if h == nil {
		return ErrNoHandle
	}

	call, err := chain.NewCall(signer.Address(), h.Address, method, opts.Value, args...)
	if err != nil {
		return err
	}

	sc, err := call.Sign(signer)
	if err != nil {
		return err
	}

	if err := client.Submit(ctx, sc, fn); err != nil {
		return fmt.Errorf("submit %s.%s: %w", h.Name, method, err)
	}

	return nil
}
