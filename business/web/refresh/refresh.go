// Package refresh loads a read action on behalf of a request.
package refresh

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/web/errs"
)

// Requested reports whether the request asks for a fresh read with
// ?refresh=true or ?refresh=1.
func Requested(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "true", "1":
		return true
	}
	return false
}

// Load fetches when asked to refresh, otherwise only when the contract
// changed since the last load. Errors are returned as trusted errors.
func Load[T any](ctx context.Context, r *http.Request, conn session.Connection, f *action.Fetcher[T]) error {
	var err error
	if Requested(r) {
		err = f.Fetch(ctx, conn)
	} else {
		err = f.Mount(ctx, conn)
	}

	if err != nil {
		return errs.FromAction(err)
	}

	return nil
}
