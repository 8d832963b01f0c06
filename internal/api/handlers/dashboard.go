// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/arbor/internal/dashboard"
	"github.com/wingedpig/arbor/internal/lifecycle"
)

// DashboardHandler serves the HTML status page.
type DashboardHandler struct {
	manager  *lifecycle.Manager
	renderer *dashboard.Renderer
	prefixes dashboard.Prefixes
}

// NewDashboardHandler creates a new dashboard handler. Prefixes are
// detected once at startup; ports come from the live registry.
func NewDashboardHandler(manager *lifecycle.Manager, renderer *dashboard.Renderer, prefixes dashboard.Prefixes) *DashboardHandler {
	return &DashboardHandler{manager: manager, renderer: renderer, prefixes: prefixes}
}

// Serve renders the dashboard with current derived statuses.
func (h *DashboardHandler) Serve(w http.ResponseWriter, r *http.Request) {
	apps := h.manager.Registry().Apps()
	statuses := h.manager.ListStatus(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, apps, statuses, h.prefixes); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
	}
}
