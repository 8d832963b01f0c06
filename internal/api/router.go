// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the lifecycle manager over HTTP.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wingedpig/arbor/internal/api/handlers"
	"github.com/wingedpig/arbor/internal/api/middleware"
	"github.com/wingedpig/arbor/internal/dashboard"
	"github.com/wingedpig/arbor/internal/events"
	"github.com/wingedpig/arbor/internal/lifecycle"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Manager  *lifecycle.Manager
	EventBus events.EventBus
	Renderer *dashboard.Renderer
	Prefixes dashboard.Prefixes
	Version  string
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	if deps.Version != "" {
		r.Use(versionHeader(deps.Version))
	}

	if deps.Renderer != nil {
		dashboardHandler := handlers.NewDashboardHandler(deps.Manager, deps.Renderer, deps.Prefixes)
		r.HandleFunc("/", dashboardHandler.Serve).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	appHandler := handlers.NewAppHandler(deps.Manager)
	api.HandleFunc("/apps", appHandler.List).Methods("GET")
	api.HandleFunc("/apps/stop", appHandler.StopAll).Methods("POST")
	api.HandleFunc("/apps/{name}", appHandler.Get).Methods("GET")
	api.HandleFunc("/apps/{name}/start", appHandler.Start).Methods("POST")
	api.HandleFunc("/apps/{name}/stop", appHandler.Stop).Methods("POST")
	api.HandleFunc("/apps/{name}/restart", appHandler.Restart).Methods("POST")

	if deps.EventBus != nil {
		eventHandler := handlers.NewEventHandler(deps.EventBus)
		api.HandleFunc("/events", eventHandler.History).Methods("GET")
		api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")
	}

	return r
}

func versionHeader(version string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Arbor-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("API server listening on http://%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Println("Shutting down API server...")

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
