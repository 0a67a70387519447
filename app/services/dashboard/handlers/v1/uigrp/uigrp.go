// Package uigrp serves the dashboard page.
package uigrp

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ballot/foundation/web"
)

//go:embed assets/index.html
var assets embed.FS

// Index returns the dashboard page.
func Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page, err := assets.ReadFile("assets/index.html")
	if err != nil {
		return fmt.Errorf("read index page: %w", err)
	}

	return web.RespondRaw(ctx, w, page, "text/html; charset=utf-8", http.StatusOK)
}
