package devchain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ethereum/go-ethereum/common"
)

// Contract represents the behavior of a contract hosted by the chain.
type Contract interface {
	Name() string
	Payable(method string) bool
	Query(caller string, method string, args []json.RawMessage) (any, error)
	Execute(env *Env, method string, args []json.RawMessage) error
}

// ErrUnknownMethod is returned when a contract doesn't expose the method.
var ErrUnknownMethod = errors.New("UnknownMethod")

// ContractError is a named failure reported by a contract. The name ends up
// in the ExtrinsicFailed event.
type ContractError struct {
	Name string
}

// Error implements the error interface.
func (ce *ContractError) Error() string {
	return ce.Name
}

func contractErr(name string) error {
	return &ContractError{Name: name}
}

// reason returns the name that is reported for the error.
func reason(err error) string {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Name
	}
	return err.Error()
}

// =============================================================================

// Env is the environment a contract executes a call in.
type Env struct {
	Caller   string
	Value    uint64
	transfer func(to string, amount uint64) error
	events   []chain.Event
}

// Transfer moves funds held by the contract to the specified account.
func (e *Env) Transfer(to string, amount uint64) error {
	return e.transfer(to, amount)
}

// Emit records an event for the call.
func (e *Env) Emit(method string, data map[string]string) {
	e.events = append(e.events, chain.Event{Method: method, Data: data})
}

// =============================================================================

// decodeArgs unmarshals each argument into the matching destination.
func decodeArgs(args []json.RawMessage, dst ...any) error {
	if len(args) != len(dst) {
		return contractErr(fmt.Sprintf("DecodeFailed: want %d args, got %d", len(dst), len(args)))
	}

	for i, arg := range args {
		if err := json.Unmarshal(arg, dst[i]); err != nil {
			return contractErr(fmt.Sprintf("DecodeFailed: arg %d: %s", i, err))
		}
	}

	return nil
}

// toAccount validates and normalizes an account address.
func toAccount(account string) (string, error) {
	if !common.IsHexAddress(account) {
		return "", contractErr("InvalidAccount")
	}
	return common.HexToAddress(account).Hex(), nil
}

// zeroAccount is the zero address.
var zeroAccount = common.Address{}.Hex()
