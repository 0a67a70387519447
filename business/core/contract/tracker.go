package contract

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ballot/foundation/chain"
)

// Set of errors reported by a tracker.
var (
	ErrTxFailed     = errors.New("transaction failed")
	ErrTxIncomplete = errors.New("transaction not finalized")
)

// State represents the stage of a submitted transaction.
type State int

// Set of states a transaction moves through.
const (
	StateSubmitted State = iota
	StateIncluded
	StateFinalized
	StateFailed
)

var stateNames = map[State]string{
	StateSubmitted: "submitted",
	StateIncluded:  "included",
	StateFinalized: "finalized",
	StateFailed:    "failed",
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	if name, exists := stateNames[s]; exists {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// =============================================================================

// Tracker follows the status updates of a single transaction. A transaction
// succeeds only when it is finalized with an ExtrinsicSuccess event. The
// finalized and failed states are terminal. A Tracker is not safe for
// concurrent use.
type Tracker struct {
	state  State
	hash   string
	block  uint64
	reason string
	events []chain.Event
}

// NewTracker constructs a tracker in the submitted state.
func NewTracker() *Tracker {
	return &Tracker{state: StateSubmitted}
}

// Observe moves the tracker forward based on the status update.
func (tr *Tracker) Observe(su chain.StatusUpdate) {
	if tr.Done() {
		return
	}

	if su.Hash != "" {
		tr.hash = su.Hash
	}

	switch su.Status {
	case chain.StatusReady:
		tr.state = StateSubmitted

	case chain.StatusInBlock:
		tr.state = StateIncluded
		tr.block = su.Block
		tr.events = su.Events

	case chain.StatusFinalized:
		tr.block = su.Block
		tr.events = su.Events
		tr.finalize()

	case chain.StatusInvalid, chain.StatusDropped:
		tr.state = StateFailed
		tr.reason = string(su.Status)
		if su.Error != "" {
			tr.reason = su.Error
		}
	}
}

// finalize decides the outcome from the events of the finalized call.
func (tr *Tracker) finalize() {
	for _, ev := range tr.events {
		switch ev.Method {
		case chain.EventExtrinsicFailed:
			tr.state = StateFailed
			tr.reason = ev.Method
			if name := ev.Data["error"]; name != "" {
				tr.reason = name
			}
			return

		case chain.EventExtrinsicSuccess:
			tr.state = StateFinalized
			return
		}
	}

	tr.state = StateFailed
	tr.reason = "no outcome event"
}

// State returns the current state.
func (tr *Tracker) State() State {
	return tr.state
}

// Hash returns the hash of the transaction once the node reported it.
func (tr *Tracker) Hash() string {
	return tr.hash
}

// Block returns the block the transaction was included in.
func (tr *Tracker) Block() uint64 {
	return tr.block
}

// Reason returns why the transaction failed.
func (tr *Tracker) Reason() string {
	return tr.reason
}

// Events returns the events of the latest inclusion report.
func (tr *Tracker) Events() []chain.Event {
	return tr.events
}

// Done reports whether the tracker reached a terminal state.
func (tr *Tracker) Done() bool {
	return tr.state == StateFinalized || tr.state == StateFailed
}

// Succeeded reports whether the transaction was finalized successfully.
func (tr *Tracker) Succeeded() bool {
	return tr.state == StateFinalized
}

// Err returns nil on success, otherwise why the transaction did not succeed.
func (tr *Tracker) Err() error {
	switch tr.state {
	case StateFinalized:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %s", ErrTxFailed, tr.reason)
	}
	return fmt.Errorf("%w: last state %s", ErrTxIncomplete, tr.state)
}
