// Package sessiongrp maintains the group of handlers for the wallet
// connection.
package sessiongrp

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/sys/validate"
	"github.com/ardanlabs/ballot/business/web/errs"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of session endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Session *session.Session
}

// Status returns the current connection.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toAppConnection(h.Session.Connection()), http.StatusOK)
}

// Connect connects the default account to the active chain.
func (h Handlers) Connect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Session.Connect(ctx); err != nil {
		if errors.Is(err, session.ErrNoAccounts) || errors.Is(err, keystore.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusPreconditionFailed)
		}
		return errs.NewTrusted(err, http.StatusBadGateway)
	}

	return web.Respond(ctx, w, toAppConnection(h.Session.Connection()), http.StatusOK)
}

// Disconnect forgets the account and the contracts.
func (h Handlers) Disconnect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Session.Disconnect()

	return web.Respond(ctx, w, toAppConnection(h.Session.Connection()), http.StatusOK)
}

// SetChain switches the active chain.
func (h Handlers) SetChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var sc SelectChain
	if err := web.Decode(r, &sc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(sc); err != nil {
		return err
	}

	if err := h.Session.SetActiveChain(ctx, sc.Name); err != nil {
		if errors.Is(err, session.ErrUnknownChain) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return errs.NewTrusted(err, http.StatusBadGateway)
	}

	return web.Respond(ctx, w, toAppConnection(h.Session.Connection()), http.StatusOK)
}

// SetAccount switches the active account.
func (h Handlers) SetAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var sa SelectAccount
	if err := web.Decode(r, &sa); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(sa); err != nil {
		return err
	}

	if err := h.Session.SetAccount(sa.Account); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toAppConnection(h.Session.Connection()), http.StatusOK)
}

// Chains returns the supported chains.
func (h Handlers) Chains(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Session.Chains(), http.StatusOK)
}

// Accounts returns the accounts in the keystore.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Session.Accounts(), http.StatusOK)
}

// Balance returns the balance of the connected account.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	conn := h.Session.Connection()

	bal, err := conn.Balance(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			return errs.NewTrusted(err, http.StatusPreconditionFailed)
		}
		return errs.NewTrusted(err, http.StatusBadGateway)
	}

	resp := AppBalance{
		Account: conn.Account.Address,
		Balance: bal,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
