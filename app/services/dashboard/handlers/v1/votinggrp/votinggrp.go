// Package votinggrp maintains the group of handlers for the voting
// contract.
package votinggrp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/core/voting"
	"github.com/ardanlabs/ballot/business/sys/validate"
	"github.com/ardanlabs/ballot/business/web/errs"
	"github.com/ardanlabs/ballot/business/web/refresh"
	"github.com/ardanlabs/ballot/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of voting endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Session *session.Session
	Panel   *voting.Panel
}

// Proposals returns every proposal, newest first, with its row state.
func (h Handlers) Proposals(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.Proposals); err != nil {
		return err
	}

	props := h.Panel.Proposals.Value()
	h.Panel.SyncRows(props)

	resp := make([]AppProposal, len(props))
	for i, p := range props {
		resp[i] = AppProposal{Proposal: p, Row: toAppRow(h.Panel.Row(p))}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ActiveProposals returns the proposals open for voting.
func (h Handlers) ActiveProposals(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.ActiveProposals); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.Panel.ActiveProposals.Value(), http.StatusOK)
}

// Users returns the registered users.
func (h Handlers) Users(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.Users); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.Panel.Users.Value(), http.StatusOK)
}

// Owner returns the owner of the voting contract.
func (h Handlers) Owner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.Owner); err != nil {
		return err
	}

	resp := struct {
		Owner string `json:"owner"`
	}{
		Owner: h.Panel.Owner.Value(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateProposal creates a new proposal.
func (h Handlers) CreateProposal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var np NewProposal
	if err := web.Decode(r, &np); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(np); err != nil {
		return err
	}

	out, err := h.Panel.CreateProposal(ctx, h.Session.Connection(), np.Name)
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// RegisterUser registers the connected account.
func (h Handlers) RegisterUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nu NewUser
	if err := web.Decode(r, &nu); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nu); err != nil {
		return err
	}

	out, err := h.Panel.RegisterUser(ctx, h.Session.Connection(), nu.Name)
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Row returns the state of a proposal's row controls.
func (h Handlers) Row(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	row, err := h.row(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toAppRow(row), http.StatusOK)
}

// Vote casts the row's vote on the proposal.
func (h Handlers) Vote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	row, err := h.row(r)
	if err != nil {
		return err
	}

	// The body is optional, the row's selected vote is used without one.
	var cv CastVote
	if r.ContentLength != 0 {
		if err := web.Decode(r, &cv); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	if err := validate.Check(cv); err != nil {
		return err
	}

	vote := row.VoteProposal
	if cv.Vote != "" {
		if err := voting.ValidVote(cv.Vote); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		vote = func(ctx context.Context, conn session.Connection) (action.Outcome, error) {
			return row.CastVote(ctx, conn, cv.Vote)
		}
	}

	out, err := vote(ctx, h.Session.Connection())
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Remove finishes voting on the proposal.
func (h Handlers) Remove(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	row, err := h.row(r)
	if err != nil {
		return err
	}

	out, err := row.RemoveProposal(ctx, h.Session.Connection())
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// ChangeStatus opens the proposal for voting.
func (h Handlers) ChangeStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	row, err := h.row(r)
	if err != nil {
		return err
	}

	out, err := row.ChangeProposalStatus(ctx, h.Session.Connection())
	if err != nil {
		return errs.FromAction(err)
	}

	resp := struct {
		action.Outcome
		Row AppRow `json:"row"`
	}{
		Outcome: out,
		Row:     toAppRow(row),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// row returns the row of the proposal named in the path. A row seen for the
// first time is initialized from the last fetched proposal list.
func (h Handlers) row(r *http.Request) (*voting.Row, error) {
	id, err := strconv.ParseInt(web.Param(r, "id"), 10, 32)
	if err != nil {
		return nil, errs.NewTrusted(fmt.Errorf("invalid proposal id: %w", err), http.StatusBadRequest)
	}

	if row, exists := h.Panel.LookupRow(int32(id)); exists {
		return row, nil
	}

	prop := voting.Proposal{ID: int32(id)}
	for _, p := range h.Panel.Proposals.Value() {
		if p.ID == int32(id) {
			prop = p
			break
		}
	}

	return h.Panel.Row(prop), nil
}
