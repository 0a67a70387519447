// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/ardanlabs/ballot/app/services/dashboard/handlers/v1"
	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/core/voting"
	"github.com/ardanlabs/ballot/business/web/checkgrp"
	"github.com/ardanlabs/ballot/business/web/mid"
	"github.com/ardanlabs/ballot/foundation/events"
	"github.com/ardanlabs/ballot/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Session  *session.Session
	Voting   *voting.Panel
	Donation *donation.Panel
	Evts     *events.Events[notify.Toast]
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	v1.Routes(app, v1.Config{
		Log:      cfg.Log,
		Session:  cfg.Session,
		Voting:   cfg.Voting,
		Donation: cfg.Donation,
		Evts:     cfg.Evts,
	})

	return app
}

// DebugMux registers the standard library debug endpoints and the health
// checks for the service.
func DebugMux(build string, log *zap.SugaredLogger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
