// Package v1 contains the full set of handler functions and routes
// supported by the v1 dashboard api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1/donationgrp"
	"github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1/eventgrp"
	"github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1/sessiongrp"
	"github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1/uigrp"
	"github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1/votinggrp"
	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/core/voting"
	"github.com/ardanlabs/ballot/foundation/events"
	"github.com/ardanlabs/ballot/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Session  *session.Session
	Voting   *voting.Panel
	Donation *donation.Panel
	Evts     *events.Events[notify.Toast]
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	app.Handle(http.MethodGet, "", "/", uigrp.Index)

	egh := eventgrp.Handlers{
		Log:  cfg.Log,
		WS:   websocket.Upgrader{},
		Evts: cfg.Evts,
	}
	app.Handle(http.MethodGet, version, "/events", egh.Events)

	sgh := sessiongrp.Handlers{
		Log:     cfg.Log,
		Session: cfg.Session,
	}
	app.Handle(http.MethodGet, version, "/session", sgh.Status)
	app.Handle(http.MethodPost, version, "/session/connect", sgh.Connect)
	app.Handle(http.MethodPost, version, "/session/disconnect", sgh.Disconnect)
	app.Handle(http.MethodGet, version, "/session/chains", sgh.Chains)
	app.Handle(http.MethodPut, version, "/session/chain", sgh.SetChain)
	app.Handle(http.MethodGet, version, "/session/accounts", sgh.Accounts)
	app.Handle(http.MethodPut, version, "/session/account", sgh.SetAccount)
	app.Handle(http.MethodGet, version, "/session/balance", sgh.Balance)

	vgh := votinggrp.Handlers{
		Log:     cfg.Log,
		Session: cfg.Session,
		Panel:   cfg.Voting,
	}
	app.Handle(http.MethodGet, version, "/voting/proposals", vgh.Proposals)
	app.Handle(http.MethodPost, version, "/voting/proposals", vgh.CreateProposal)
	app.Handle(http.MethodGet, version, "/voting/proposals/active", vgh.ActiveProposals)
	app.Handle(http.MethodGet, version, "/voting/proposals/:id/row", vgh.Row)
	app.Handle(http.MethodPost, version, "/voting/proposals/:id/vote", vgh.Vote)
	app.Handle(http.MethodPost, version, "/voting/proposals/:id/remove", vgh.Remove)
	app.Handle(http.MethodPost, version, "/voting/proposals/:id/status", vgh.ChangeStatus)
	app.Handle(http.MethodGet, version, "/voting/users", vgh.Users)
	app.Handle(http.MethodPost, version, "/voting/users", vgh.RegisterUser)
	app.Handle(http.MethodGet, version, "/voting/owner", vgh.Owner)

	dgh := donationgrp.Handlers{
		Log:     cfg.Log,
		Session: cfg.Session,
		Panel:   cfg.Donation,
	}
	app.Handle(http.MethodGet, version, "/donation/beneficiary", dgh.Beneficiary)
	app.Handle(http.MethodPost, version, "/donation/beneficiary", dgh.ChangeBeneficiary)
	app.Handle(http.MethodGet, version, "/donation/beneficiary/qr", dgh.BeneficiaryQR)
	app.Handle(http.MethodGet, version, "/donation/donations", dgh.Donations)
	app.Handle(http.MethodGet, version, "/donation/donations/:id", dgh.Donation)
	app.Handle(http.MethodGet, version, "/donation/total", dgh.TotalRaised)
	app.Handle(http.MethodPost, version, "/donation/donate", dgh.Donate)
}
