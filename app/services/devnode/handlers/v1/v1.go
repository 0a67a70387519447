// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ballot/app/services/devnode/handlers/v1/nodegrp"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	Chain *devchain.Chain
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	ngh := nodegrp.Handlers{
		Log:   cfg.Log,
		Chain: cfg.Chain,
		WS:    websocket.Upgrader{},
	}

	app.Handle(http.MethodGet, version, "/contracts", ngh.Deployments)
	app.Handle(http.MethodPost, version, "/contracts/query", ngh.Query)
	app.Handle(http.MethodPost, version, "/tx/submit", ngh.Submit)
	app.Handle(http.MethodGet, version, "/tx/status/:hash", ngh.Status)
	app.Handle(http.MethodGet, version, "/accounts/balance/:account", ngh.Balance)
	app.Handle(http.MethodGet, version, "/blocks/latest", ngh.LatestBlock)
}
