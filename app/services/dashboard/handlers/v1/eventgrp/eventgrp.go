// Package eventgrp streams dashboard toasts to browsers over a websocket.
package eventgrp

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/foundation/events"
	"github.com/ardanlabs/ballot/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of event endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	WS   websocket.Upgrader
	Evts *events.Events[notify.Toast]
}

// Events handles a web socket to provide toasts to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscribed", "subscribers", h.Evts.Len())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case toast, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(toast); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}
