// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wingedpig/arbor/internal/lifecycle"
)

// AppHandler handles application lifecycle API requests.
type AppHandler struct {
	manager *lifecycle.Manager
}

// NewAppHandler creates a new app handler.
func NewAppHandler(manager *lifecycle.Manager) *AppHandler {
	return &AppHandler{manager: manager}
}

// opResult is the JSON shape of a lifecycle operation outcome.
type opResult struct {
	App     string `json:"app"`
	Error   string `json:"error,omitempty"`
	Command string `json:"command,omitempty"`
	Info    string `json:"info,omitempty"`
}

func toResults(results []lifecycle.OpResult) []opResult {
	out := make([]opResult, 0, len(results))
	for _, res := range results {
		r := opResult{App: res.App, Command: res.Command, Info: res.Info}
		if res.Err != nil {
			r.Error = res.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

// List returns every registered application with its derived status.
func (h *AppHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.manager.ListStatus(r.Context()))
}

// Get returns the status of one application.
func (h *AppHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	app, ok := h.manager.Registry().Get(name)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "app not found: "+name)
		return
	}

	WriteJSON(w, http.StatusOK, h.manager.Status(r.Context(), app))
}

// Start launches one application.
func (h *AppHandler) Start(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	app, ok := h.manager.Registry().Get(name)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "app not found: "+name)
		return
	}

	res := h.manager.StartApp(r.Context(), app)
	if res.Err != nil {
		WriteError(w, http.StatusInternalServerError, ErrAppError, res.Err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, toResults([]lifecycle.OpResult{res})[0])
}

// Stop stops one application.
func (h *AppHandler) Stop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	app, ok := h.manager.Registry().Get(name)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "app not found: "+name)
		return
	}

	res := h.manager.StopApp(r.Context(), app)
	if res.Err != nil {
		WriteError(w, http.StatusInternalServerError, ErrAppError, res.Err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, toResults([]lifecycle.OpResult{res})[0])
}

// Restart restarts one application.
func (h *AppHandler) Restart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if _, ok := h.manager.Registry().Get(name); !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "app not found: "+name)
		return
	}

	results := h.manager.Restart(r.Context(), name)
	WriteJSON(w, http.StatusOK, toResults(results))
}

// StopAll stops every registered application.
func (h *AppHandler) StopAll(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toResults(h.manager.StopAll(r.Context())))
}
