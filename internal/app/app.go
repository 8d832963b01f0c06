// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires configuration, registry, session backend and
// lifecycle manager into a runnable application.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/arbor/internal/api"
	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/dashboard"
	"github.com/wingedpig/arbor/internal/events"
	"github.com/wingedpig/arbor/internal/lifecycle"
	"github.com/wingedpig/arbor/internal/netinfo"
	"github.com/wingedpig/arbor/internal/port"
	"github.com/wingedpig/arbor/internal/pyenv"
	"github.com/wingedpig/arbor/internal/registry"
	"github.com/wingedpig/arbor/internal/session"
	"github.com/wingedpig/arbor/internal/ui"
	"github.com/wingedpig/arbor/internal/watcher"
)

// App owns the wired components for one arbor invocation.
type App struct {
	mu sync.RWMutex

	configPath string
	version    string
	config     *config.Config
	eventBus   events.EventBus
	manager    *lifecycle.Manager
	backend    session.Backend
	styles     ui.Styles
	watcher    *watcher.ConfigWatcher
	apiServer  *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string // HTTP server host override
	Port       int    // HTTP server port override
	Backend    string // session backend override
	DryRun     bool
	Confirm    lifecycle.Confirmer
	Version    string
}

// New creates a new App instance from a loaded, validated config.
func New(opts Options) (*App, error) {
	app := &App{
		configPath: opts.ConfigPath,
		version:    opts.Version,
		done:       make(chan struct{}),
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.Backend != "" {
		cfg.Session.Backend = opts.Backend
	}
	app.config = cfg

	app.eventBus = events.NewMemoryEventBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.MaxAge, time.Hour),
	})

	app.styles = ui.NewStyles(ui.ColorMode(cfg.UI.Color))

	reg := app.buildRegistry(cfg)

	backend, err := session.Detect(context.Background(), session.DetectOptions{
		Backend:     cfg.Session.Backend,
		SessionName: cfg.Session.SessionName,
	})
	if err != nil {
		return nil, err
	}
	app.backend = backend

	confirm := opts.Confirm
	if cfg.Launch.AutoConfirm {
		confirm = lifecycle.AutoConfirm
	}

	app.manager = lifecycle.NewManager(reg, backend, port.NewProber(), pyenv.NewResolver(), app.eventBus, lifecycle.Options{
		DryRun:          opts.DryRun,
		Confirm:         confirm,
		StartDelay:      config.ParseDuration(cfg.Launch.StartDelay, 500*time.Millisecond),
		PortWaitTimeout: config.ParseDuration(cfg.Launch.PortWaitTimeout, 10*time.Second),
	})

	return app, nil
}

// buildRegistry normalizes the configured apps, logging dropped entries.
func (app *App) buildRegistry(cfg *config.Config) *registry.Registry {
	reg, dropped := registry.Normalize(cfg.Apps)
	for _, d := range dropped {
		log.Printf("skipping app %q: %s", d.App.Name, d.Reason)
	}
	return reg
}

// Config returns the loaded configuration.
func (app *App) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Manager returns the lifecycle manager.
func (app *App) Manager() *lifecycle.Manager {
	return app.manager
}

// Styles returns the terminal output styles.
func (app *App) Styles() ui.Styles {
	return app.styles
}

// Backend returns the detected session backend.
func (app *App) Backend() session.Backend {
	return app.backend
}

// EventBus returns the event bus.
func (app *App) EventBus() events.EventBus {
	return app.eventBus
}

// StartWatcher begins watching the config file and reloading the
// registry when it changes.
func (app *App) StartWatcher() error {
	cfg := app.Config()
	if cfg.Watch.Enabled != nil && !*cfg.Watch.Enabled {
		return nil
	}

	debounce := config.ParseDuration(cfg.Watch.Debounce, 250*time.Millisecond)
	w, err := watcher.NewConfigWatcher(app.configPath, debounce, app.reloadConfig)
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	app.watcher = w
	return nil
}

// Reload re-reads the config file and swaps the registry.
func (app *App) Reload() {
	app.reloadConfig(app.configPath)
}

// reloadConfig re-reads the config file and swaps the registry. A file
// that fails to load or validate leaves the previous registry in place.
func (app *App) reloadConfig(path string) {
	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), path)
	if err != nil {
		log.Printf("config reload failed: %v", err)
		return
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Printf("config reload rejected: %v", err)
		return
	}

	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	app.manager.SetRegistry(app.buildRegistry(cfg))
	log.Printf("reloaded config from %s", path)
}

// WriteDashboard renders the static dashboard file next to the config.
func (app *App) WriteDashboard(ctx context.Context) (string, error) {
	cfg := app.Config()

	detector := netinfo.NewDetector()
	prefixes := dashboard.Prefixes{
		Local:    detector.LocalPrefix(),
		Public:   detector.PublicPrefix(),
		Hostname: detector.HostnamePrefix(),
	}

	outPath := cfg.Dashboard.OutputPath
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(filepath.Dir(app.configPath), outPath)
	}

	renderer := dashboard.NewRenderer(dashboardTitle(cfg))
	reg := app.manager.Registry()
	if err := renderer.WriteFile(outPath, reg.Apps(), app.manager.ListStatus(ctx), prefixes); err != nil {
		return "", err
	}
	return outPath, nil
}

func dashboardTitle(cfg *config.Config) string {
	if cfg.Dashboard.Title != "" {
		return cfg.Dashboard.Title
	}
	return cfg.Project.Name
}

// Serve runs the HTTP API until a signal or Stop.
func (app *App) Serve(ctx context.Context) error {
	cfg := app.Config()

	detector := netinfo.NewDetector()
	prefixes := dashboard.Prefixes{
		Local:    detector.LocalPrefix(),
		Public:   detector.PublicPrefix(),
		Hostname: detector.HostnamePrefix(),
	}

	app.apiServer = api.NewServer(api.ServerConfig{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, api.Dependencies{
		Manager:  app.manager,
		EventBus: app.eventBus,
		Renderer: dashboard.NewRenderer(dashboardTitle(cfg)),
		Prefixes: prefixes,
		Version:  app.version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.apiServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("Context cancelled, shutting down...")
	case <-app.done:
		log.Printf("Shutdown requested...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	}

	return app.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components.
func (app *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
	}
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.eventBus != nil {
		app.eventBus.Close()
	}
	return nil
}

// Stop requests shutdown.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
