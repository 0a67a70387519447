// Package voting provides the dashboard operations on the voting contract.
package voting

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/session"
	"go.uber.org/zap"
)

// Panel holds the forms, controls and lists of the voting page.
type Panel struct {
	submit *action.Submitter

	ProposalName action.Field
	UserName     action.Field
	CreateCtl    action.Control
	RegisterCtl  action.Control

	Proposals       *action.Fetcher[[]Proposal]
	ActiveProposals *action.Fetcher[[]Proposal]
	Users           *action.Fetcher[[]User]
	Owner           *action.Fetcher[string]

	mu   sync.Mutex
	rows map[int32]*Row
}

// NewPanel constructs the voting panel.
func NewPanel(log *zap.SugaredLogger, notify action.Notifier) *Panel {
	p := Panel{
		submit: action.NewSubmitter(log, notify),
		rows:   make(map[int32]*Row),

		Proposals: action.NewFetcher(log, notify, action.Query{
			Contract: contract.Voting,
			Method:   "getAllProposal",
			ErrorMsg: "Error while fetching proposals. Try again…",
		}, action.Reverse[Proposal]),

		ActiveProposals: action.NewFetcher[[]Proposal](log, notify, action.Query{
			Contract: contract.Voting,
			Method:   "getActiveProposal",
			ErrorMsg: "Error while fetching active proposals. Try again…",
		}, nil),

		Users: action.NewFetcher[[]User](log, notify, action.Query{
			Contract: contract.Voting,
			Method:   "getAllUsers",
			ErrorMsg: "Error while fetching users. Try again…",
		}, nil),

		Owner: action.NewFetcher[string](log, notify, action.Query{
			Contract: contract.Voting,
			Method:   "getAccountId",
			ErrorMsg: "Error while fetching the owner. Try again…",
		}, nil),
	}

	return &p
}

// Mount loads every list for the connection's voting contract.
func (p *Panel) Mount(ctx context.Context, conn session.Connection) error {
	var firstErr error
	for _, mount := range []func(context.Context, session.Connection) error{
		p.Proposals.Mount,
		p.ActiveProposals.Mount,
		p.Users.Mount,
		p.Owner.Mount,
	} {
		if err := mount(ctx, conn); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.SyncRows(p.Proposals.Value())

	return firstErr
}

// CreateProposal creates a proposal with the name. The proposal name field
// is cleared on success.
func (p *Panel) CreateProposal(ctx context.Context, conn session.Connection, name string) (action.Outcome, error) {
	return p.submit.Submit(ctx, conn, &p.CreateCtl, action.Call{
		Contract:   contract.Voting,
		Method:     "createProposal",
		Args:       []any{name},
		SuccessMsg: "Successfully created proposal!",
		ErrorMsg:   "Error while creating proposal. Try again.",
		Reset:      []*action.Field{&p.ProposalName},
	})
}

// RegisterUser registers the connected account under the name. The user
// name field is kept after success.
func (p *Panel) RegisterUser(ctx context.Context, conn session.Connection, name string) (action.Outcome, error) {
	return p.submit.Submit(ctx, conn, &p.RegisterCtl, action.Call{
		Contract:   contract.Voting,
		Method:     "registerUser",
		Args:       []any{conn.Account.Address, name},
		SuccessMsg: "Successfully registered user!",
		ErrorMsg:   "Error while registering user. Try again.",
	})
}

// Row returns the controls of the proposal's row. Rows are keyed by the
// proposal id and created on first use.
func (p *Panel) Row(prop Proposal) *Row {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, exists := p.rows[prop.ID]; exists {
		return r
	}

	r := Row{
		ID:      prop.ID,
		submit:  p.submit,
		vote:    VoteToggle(prop.VoteAye != 0),
		checked: prop.Status,
	}
	p.rows[prop.ID] = &r

	return &r
}

// SyncRows brings the rows in line with a fetched proposal list. An idle
// row takes its switch from the proposal's status and keeps the selected
// vote. Idle rows of proposals no longer listed are dropped. Rows with a
// call outstanding are left alone.
func (p *Panel) SyncRows(props []Proposal) {
	listed := make(map[int32]Proposal, len(props))
	for _, prop := range props {
		listed[prop.ID] = prop
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for id, r := range p.rows {
		if r.busy() {
			continue
		}

		prop, exists := listed[id]
		if !exists {
			delete(p.rows, id)
			continue
		}

		r.mu.Lock()
		r.checked = prop.Status
		r.mu.Unlock()
	}
}

// LookupRow returns the row for the proposal id if it was created.
func (p *Panel) LookupRow(id int32) (*Row, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, exists := p.rows[id]
	return r, exists
}

// =============================================================================

// Row holds the per proposal controls. Each control has its own loading
// flag. A row lives in its panel until SyncRows sees a list without it.
type Row struct {
	ID        int32
	VoteCtl   action.Control
	RemoveCtl action.Control
	StatusCtl action.Control

	submit *action.Submitter

	mu      sync.Mutex
	vote    string
	checked bool
}

// Vote returns the selected vote.
func (r *Row) Vote() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.vote
}

// ValidVote checks the vote is Aye or Nye.
func ValidVote(vote string) error {
	if vote != Aye && vote != Nye {
		return fmt.Errorf("vote %q: must be %s or %s", vote, Aye, Nye)
	}
	return nil
}

// SelectVote changes the selected vote.
func (r *Row) SelectVote(vote string) error {
	if err := ValidVote(vote); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.vote = vote
	return nil
}

// Checked returns the state of the status switch.
func (r *Row) Checked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.checked
}

// VoteProposal casts the selected vote on the proposal.
func (r *Row) VoteProposal(ctx context.Context, conn session.Connection) (action.Outcome, error) {
	return r.cast(ctx, conn, r.Vote())
}

// CastVote selects the vote and casts exactly that vote, whatever is
// selected on the row while the call is outstanding.
func (r *Row) CastVote(ctx context.Context, conn session.Connection, vote string) (action.Outcome, error) {
	if err := r.SelectVote(vote); err != nil {
		return action.Outcome{}, err
	}

	return r.cast(ctx, conn, vote)
}

func (r *Row) cast(ctx context.Context, conn session.Connection, vote string) (action.Outcome, error) {
	return r.submit.Submit(ctx, conn, &r.VoteCtl, action.Call{
		Contract:   contract.Voting,
		Method:     "voteProposal",
		Args:       []any{vote, r.ID},
		SuccessMsg: "Successfully voted!",
		ErrorMsg:   "Error while voting. Try again.",
	})
}

// RemoveProposal finishes voting on the proposal.
func (r *Row) RemoveProposal(ctx context.Context, conn session.Connection) (action.Outcome, error) {
	return r.submit.Submit(ctx, conn, &r.RemoveCtl, action.Call{
		Contract:   contract.Voting,
		Method:     "removeActiveProposal",
		Args:       []any{r.ID},
		SuccessMsg: "Successfully removed!",
		ErrorMsg:   "Error while removing proposal. Try again.",
	})
}

// ChangeProposalStatus opens the proposal for voting. The switch flips
// only when the call succeeds.
func (r *Row) ChangeProposalStatus(ctx context.Context, conn session.Connection) (action.Outcome, error) {
	out, err := r.submit.Submit(ctx, conn, &r.StatusCtl, action.Call{
		Contract:   contract.Voting,
		Method:     "changeProposalStatus",
		Args:       []any{r.ID},
		SuccessMsg: "Successfully changed proposal status!",
		ErrorMsg:   "Error while changing proposal status.",
	})
	if err != nil {
		return out, err
	}

	r.mu.Lock()
	r.checked = !r.checked
	r.mu.Unlock()

	return out, nil
}

func (r *Row) busy() bool {
	return r.VoteCtl.Loading() || r.RemoveCtl.Loading() || r.StatusCtl.Loading()
}
