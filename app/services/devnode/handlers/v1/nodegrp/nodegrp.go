// Package nodegrp maintains the group of handlers a development chain node
// exposes to the dashboard and the CLI.
package nodegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ballot/business/sys/validate"
	"github.com/ardanlabs/ballot/business/web/errs"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Chain *devchain.Chain
	WS    websocket.Upgrader
}

// Deployments returns the contracts hosted by the chain.
func (h Handlers) Deployments(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Chain.Deployments(), http.StatusOK)
}

// Query runs a read only contract method. Contract failures are reported
// inside the envelope with a 200.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req chain.QueryRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.Chain.Query(req), http.StatusOK)
}

// Submit queues a signed call for the next block.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sc chain.SignedCall
	if err := web.Decode(r, &sc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit call", "traceid", v.TraceID, "caller", sc.Caller, "contract", sc.Contract, "method", sc.Method, "value", sc.Value)

	hash, err := h.Chain.Submit(sc)
	if err != nil {
		switch {
		case errors.Is(err, devchain.ErrDuplicateCall):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, devchain.ErrUnknownContract):
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, chain.SubmitResponse{Hash: hash}, http.StatusOK)
}

// Status streams the status updates of a call over a web socket. Updates
// already reported are replayed first and the socket is closed once the
// call reaches a terminal status.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	hist, ch, cancel, err := h.Chain.Subscribe(hash)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}
	defer cancel()

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, su := range hist {
		if err := c.WriteJSON(su); err != nil {
			return nil
		}
	}

	if ch == nil {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case su, open := <-ch:
			if !open {
				return nil
			}

			if err := c.WriteJSON(su); err != nil {
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

// Balance returns the balance of an account.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")
	if !common.IsHexAddress(account) {
		return errs.NewTrusted(fmt.Errorf("account %q is not a hex address", account), http.StatusBadRequest)
	}

	bal := chain.Balance{
		Account: common.HexToAddress(account).Hex(),
		Balance: h.Chain.Balance(account),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// LatestBlock returns the header of the most recent block.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk := h.Chain.LatestBlock()

	resp := struct {
		Hash   string               `json:"hash"`
		Header devchain.BlockHeader `json:"header"`
		Calls  int                  `json:"calls"`
	}{
		Hash:   blk.Hash(),
		Header: blk.Header,
		Calls:  len(blk.Calls),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
