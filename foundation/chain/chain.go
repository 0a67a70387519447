// Package chain defines the wire protocol spoken between the dashboard and
// a chain node that hosts the voting and donation contracts.
package chain

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ballot/foundation/signature"
	"github.com/google/uuid"
)

// Status represents the stage a submitted call has reached on the chain.
type Status string

// Set of statuses a node reports for a submitted call.
const (
	StatusReady     Status = "ready"
	StatusInBlock   Status = "inBlock"
	StatusFinalized Status = "finalized"
	StatusInvalid   Status = "invalid"
	StatusDropped   Status = "dropped"
)

// Names of the system events attached to every included call.
const (
	EventExtrinsicSuccess = "ExtrinsicSuccess"
	EventExtrinsicFailed  = "ExtrinsicFailed"
)

// =============================================================================

// Call is a state changing contract call made by an account.
type Call struct {
	ID       string            `json:"id"`
	Caller   string            `json:"caller"`
	Contract string            `json:"contract"`
	Method   string            `json:"method"`
	Value    string            `json:"value,omitempty"`
	Args     []json.RawMessage `json:"args"`
}

// NewCall constructs a call with a unique id. Each argument is encoded to
// JSON so the signed bytes survive the trip to the node.
func NewCall(caller string, contract string, method string, value string, args ...any) (Call, error) {
	raw, err := EncodeArgs(args...)
	if err != nil {
		return Call{}, err
	}

	call := Call{
		ID:       uuid.NewString(),
		Caller:   caller,
		Contract: contract,
		Method:   method,
		Value:    value,
		Args:     raw,
	}

	return call, nil
}

// SignedCall is a call with the caller's signature attached.
type SignedCall struct {
	Call
	Signature string `json:"sig"`
}

// Signer is the behavior required to sign a call.
type Signer interface {
	Sign(value any) (string, error)
}

// Sign produces a signed version of the call.
func (c Call) Sign(signer Signer) (SignedCall, error) {
	sig, err := signer.Sign(c)
	if err != nil {
		return SignedCall{}, fmt.Errorf("sign call: %w", err)
	}

	return SignedCall{Call: c, Signature: sig}, nil
}

// Validate checks the signature was produced by the claimed caller.
func (sc SignedCall) Validate() error {
	return signature.Verify(sc.Call, sc.Signature, sc.Caller)
}

// Hash returns the unique hash for the signed call.
func (sc SignedCall) Hash() string {
	return signature.Hash(sc)
}

// =============================================================================

// Event is something that happened while a call was executed.
type Event struct {
	Method string            `json:"method"`
	Data   map[string]string `json:"data,omitempty"`
}

// StatusUpdate is reported by the node every time a call moves forward.
type StatusUpdate struct {
	Hash      string  `json:"hash"`
	Status    Status  `json:"status"`
	Block     uint64  `json:"block,omitempty"`
	BlockHash string  `json:"block_hash,omitempty"`
	Events    []Event `json:"events,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// IsTerminal reports whether no more updates follow this one.
func (su StatusUpdate) IsTerminal() bool {
	switch su.Status {
	case StatusFinalized, StatusInvalid, StatusDropped:
		return true
	}
	return false
}

// =============================================================================

// QueryRequest asks a contract for read only information.
type QueryRequest struct {
	Caller   string            `json:"caller"`
	Contract string            `json:"contract" validate:"required"`
	Method   string            `json:"method" validate:"required"`
	Args     []json.RawMessage `json:"args"`
}

// QueryResult is the result/error envelope returned for a query.
type QueryResult struct {
	Ok  json.RawMessage `json:"ok,omitempty"`
	Err string          `json:"err,omitempty"`
}

// Deployment names a contract deployed on the chain.
type Deployment struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Balance is the free balance of an account.
type Balance struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// SubmitResponse is returned when a call is accepted by the node.
type SubmitResponse struct {
	Hash string `json:"hash"`
}

// ErrorResponse is the body the node returns for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================

// EncodeArgs converts the arguments into their JSON representation.
func EncodeArgs(args ...any) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d: %w", i, err)
		}
		raw[i] = data
	}

	return raw, nil
}
