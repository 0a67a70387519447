package action

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/foundation/chain"
	"go.uber.org/zap"
)

// Call describes a state changing contract call made by a write action.
type Call struct {
	Contract   string
	Method     string
	Options    contract.Options
	Args       []any
	SuccessMsg string
	ErrorMsg   string

	// Reset lists the form fields cleared after a successful call.
	Reset []*Field
}

// Outcome is what is known about a transaction once its action completes.
type Outcome struct {
	Hash   string         `json:"hash"`
	State  contract.State `json:"state"`
	Block  uint64         `json:"block"`
	Reason string         `json:"reason,omitempty"`
	Events []chain.Event  `json:"events,omitempty"`
}

// Submitter runs write actions.
type Submitter struct {
	log    *zap.SugaredLogger
	notify Notifier
}

// NewSubmitter constructs a submitter that reports to the notifier.
func NewSubmitter(log *zap.SugaredLogger, notify Notifier) *Submitter {
	return &Submitter{
		log:    log,
		notify: notify,
	}
}

// Submit makes exactly one transaction for the call through the control.
// Without an account, signer, client and contract handle no call is made
// and a single error toast is shown. The control's loading flag is set
// while the call is outstanding and always cleared after. Dependent reads
// are not refreshed.
func (s *Submitter) Submit(ctx context.Context, conn session.Connection, ctl *Control, call Call) (Outcome, error) {
	h := conn.Contract(call.Contract)
	if conn.Account.Address == "" || conn.Signer == nil || conn.Client == nil || h == nil {
		s.notify.Error(MsgNotConnected)
		return Outcome{}, ErrNotConnected
	}

	if !ctl.begin() {
		return Outcome{}, ErrBusy
	}
	defer ctl.end()

	tr := contract.NewTracker()

	err := contract.Tx(ctx, conn.Client, conn.Signer, h, call.Method, call.Options, call.Args, tr.Observe)
	if err == nil {
		err = tr.Err()
	}

	out := Outcome{
		Hash:   tr.Hash(),
		State:  tr.State(),
		Block:  tr.Block(),
		Reason: tr.Reason(),
		Events: tr.Events(),
	}

	if err != nil {
		s.log.Errorw("action: submit", "contract", call.Contract, "method", call.Method, "hash", out.Hash, "ERROR", err)
		s.notify.Error(call.ErrorMsg)
		return out, fmt.Errorf("%w: %w", ErrCallFailed, err)
	}

	s.log.Infow("action: submit", "contract", call.Contract, "method", call.Method, "hash", out.Hash, "block", out.Block)

	for _, f := range call.Reset {
		f.Reset()
	}
	s.notify.Success(call.SuccessMsg)

	return out, nil
}
