// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/arbor/internal/command"
	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/events"
	"github.com/wingedpig/arbor/internal/port"
	"github.com/wingedpig/arbor/internal/pyenv"
	"github.com/wingedpig/arbor/internal/registry"
	"github.com/wingedpig/arbor/internal/session"
)

const (
	defaultStartDelay      = 500 * time.Millisecond
	defaultPortWaitTimeout = 10 * time.Second
)

// Options configures a Manager.
type Options struct {
	// DryRun short-circuits Start right after command synthesis: the
	// would-be command is reported and no port or session is touched.
	DryRun bool
	// Confirm guards freeing an occupied port before a start. Nil means
	// AutoConfirm (non-interactive mode).
	Confirm Confirmer
	// StartDelay throttles consecutive launches in a batch start.
	StartDelay time.Duration
	// PortWaitTimeout bounds how long Stop waits for a freed port to
	// actually release.
	PortWaitTimeout time.Duration
}

// Manager drives the application lifecycle across the injected
// collaborators: the prober for liveness, the resolver and synthesizer for
// run commands, and the session backend for execution contexts.
type Manager struct {
	mu       sync.RWMutex
	registry *registry.Registry

	backend  session.Backend
	prober   *port.Prober
	resolver *pyenv.Resolver
	synth    *command.Synthesizer
	bus      events.EventBus
	opts     Options
}

// NewManager creates a lifecycle manager.
func NewManager(reg *registry.Registry, backend session.Backend, prober *port.Prober, resolver *pyenv.Resolver, bus events.EventBus, opts Options) *Manager {
	if opts.Confirm == nil {
		opts.Confirm = AutoConfirm
	}
	if opts.StartDelay <= 0 {
		opts.StartDelay = defaultStartDelay
	}
	if opts.PortWaitTimeout <= 0 {
		opts.PortWaitTimeout = defaultPortWaitTimeout
	}
	return &Manager{
		registry: reg,
		backend:  backend,
		prober:   prober,
		resolver: resolver,
		synth:    command.NewSynthesizer(resolver),
		bus:      bus,
		opts:     opts,
	}
}

// Registry returns the current registry.
func (m *Manager) Registry() *registry.Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry
}

// SetRegistry swaps the registry (registry file reloads).
func (m *Manager) SetRegistry(reg *registry.Registry) {
	m.mu.Lock()
	m.registry = reg
	m.mu.Unlock()

	m.publish(events.Event{Type: events.EventRegistryReloaded, Payload: map[string]interface{}{
		"apps": reg.Len(),
	}})
}

// Start resolves a selection token and starts each selected app in registry
// order, strictly sequentially with the configured inter-launch delay. A
// failed or skipped item never aborts the rest of the batch.
func (m *Manager) Start(ctx context.Context, token string) []OpResult {
	apps, err := m.Registry().Resolve(token)
	if err != nil {
		return []OpResult{{App: token, Err: err}}
	}
	return m.StartList(ctx, apps)
}

// StartList starts the given apps in order with the inter-launch delay.
func (m *Manager) StartList(ctx context.Context, apps []config.AppConfig) []OpResult {
	results := make([]OpResult, 0, len(apps))
	for i, app := range apps {
		if i > 0 && !m.opts.DryRun {
			// Throttle between launches, not a concurrency mechanism:
			// simultaneous environment activation is the contention risk
			select {
			case <-time.After(m.opts.StartDelay):
			case <-ctx.Done():
				results = append(results, OpResult{App: app.Name, Err: ctx.Err()})
				continue
			}
		}
		results = append(results, m.StartApp(ctx, app))
	}
	return results
}

// StartApp starts one application: validate, synthesize, guard the port,
// open a named session window.
func (m *Manager) StartApp(ctx context.Context, app config.AppConfig) OpResult {
	res := OpResult{App: app.Name}

	if err := m.validate(app); err != nil {
		res.Err = err
		return res
	}

	env := m.resolver.Resolve(app.AppPath, app.PackageManager, app.VenvPath)
	cmd, err := m.synth.Synthesize(app, env)
	if err != nil {
		res.Err = err
		return res
	}

	if m.opts.DryRun {
		res.Command = cmd.Shell()
		res.Info = "dry-run: no port probed, no session opened"
		return res
	}

	if app.HasPort() {
		occ := m.prober.IsOccupied(ctx, app.Port)
		if occ.Occupied {
			prompt := fmt.Sprintf("Port %d is occupied; free it for %q?", app.Port, app.Name)
			if !m.opts.Confirm.Confirm(prompt) {
				res.Info = "start declined: port in use"
				return res
			}
			if !m.prober.Free(ctx, app.Port) {
				res.Err = fmt.Errorf("port %d could not be freed", app.Port)
				return res
			}
			m.publish(events.Event{Type: events.EventPortFreed, App: app.Name, Payload: map[string]interface{}{
				"port": app.Port,
			}})
			if !m.prober.WaitUntilFree(ctx, app.Port, m.opts.PortWaitTimeout) {
				res.Err = fmt.Errorf("port %d still occupied after %s", app.Port, m.opts.PortWaitTimeout)
				return res
			}
		}
	}

	if err := m.backend.OpenWindow(ctx, app.Name, app.AppPath, cmd.Shell()); err != nil {
		res.Err = fmt.Errorf("launch %q: %w", app.Name, err)
		m.publish(events.Event{Type: events.EventAppStartFailed, App: app.Name, Payload: map[string]interface{}{
			"error": err.Error(),
		}})
		return res
	}

	log.Printf("App %s started in %s window", app.Name, m.backend.Name())
	m.publish(events.Event{Type: events.EventAppStarted, App: app.Name, Payload: map[string]interface{}{
		"port":    app.Port,
		"backend": m.backend.Name(),
	}})
	return res
}

// Stop resolves a selection token and stops each selected app sequentially.
func (m *Manager) Stop(ctx context.Context, token string) []OpResult {
	apps, err := m.Registry().Resolve(token)
	if err != nil {
		return []OpResult{{App: token, Err: err}}
	}
	return m.StopList(ctx, apps)
}

// StopList stops the given apps in order.
func (m *Manager) StopList(ctx context.Context, apps []config.AppConfig) []OpResult {
	results := make([]OpResult, 0, len(apps))
	for _, app := range apps {
		results = append(results, m.StopApp(ctx, app))
	}
	return results
}

// StopApp stops one application by freeing its port. Stopping an
// already-stopped app is a successful no-op; an app without a port is not
// stoppable (there is no liveness signal to act on).
func (m *Manager) StopApp(ctx context.Context, app config.AppConfig) OpResult {
	res := OpResult{App: app.Name}

	if !app.HasPort() {
		res.Err = fmt.Errorf("app %q: %w", app.Name, ErrNotStoppable)
		return res
	}

	occ := m.prober.IsOccupied(ctx, app.Port)
	if !occ.Occupied {
		if occ.Verified {
			res.Info = "already stopped"
		} else {
			res.Info = "already stopped (unverified: no port introspection tool available)"
		}
		return res
	}

	if !m.prober.Free(ctx, app.Port) {
		res.Err = fmt.Errorf("app %q: port %d could not be freed", app.Name, app.Port)
		return res
	}
	if !m.prober.WaitUntilFree(ctx, app.Port, m.opts.PortWaitTimeout) {
		res.Err = fmt.Errorf("app %q: port %d still occupied after %s", app.Name, app.Port, m.opts.PortWaitTimeout)
		return res
	}

	// The session window only held the now-dead process; close it too
	if _, err := m.backend.Kill(ctx, app.Name); err != nil && !errors.Is(err, session.ErrUnsupported) {
		log.Printf("could not close window for %s: %v", app.Name, err)
	}

	log.Printf("App %s stopped (port %d freed)", app.Name, app.Port)
	m.publish(events.Event{Type: events.EventAppStopped, App: app.Name, Payload: map[string]interface{}{
		"port": app.Port,
	}})
	return res
}

// StopAll stops every registered app. Stops are independent, so they run in
// parallel; not-stoppable apps are reported informationally.
func (m *Manager) StopAll(ctx context.Context) []OpResult {
	apps := m.Registry().Apps()
	results := make([]OpResult, len(apps))

	g, gctx := errgroup.WithContext(ctx)
	for i, app := range apps {
		i, app := i, app
		g.Go(func() error {
			results[i] = m.StopApp(gctx, app)
			return nil
		})
	}
	g.Wait()

	return results
}

// Restart resolves a selection token and restarts each selected app.
func (m *Manager) Restart(ctx context.Context, token string) []OpResult {
	apps, err := m.Registry().Resolve(token)
	if err != nil {
		return []OpResult{{App: token, Err: err}}
	}
	return m.RestartList(ctx, apps)
}

// RestartList stops then starts each given app sequentially. Already-stopped
// and not-stoppable outcomes are tolerated as non-fatal.
func (m *Manager) RestartList(ctx context.Context, apps []config.AppConfig) []OpResult {
	results := make([]OpResult, 0, len(apps))
	for i, app := range apps {
		if stop := m.StopApp(ctx, app); stop.Err != nil && !isIgnorableStopError(stop.Err) {
			results = append(results, stop)
			continue
		}

		if i > 0 && !m.opts.DryRun {
			select {
			case <-time.After(m.opts.StartDelay):
			case <-ctx.Done():
				results = append(results, OpResult{App: app.Name, Err: ctx.Err()})
				continue
			}
		}

		start := m.StartApp(ctx, app)
		if start.Err == nil {
			m.publish(events.Event{Type: events.EventAppRestarted, App: app.Name})
		}
		results = append(results, start)
	}
	return results
}

// Status derives the current status of one app by probing its port.
func (m *Manager) Status(ctx context.Context, app config.AppConfig) AppStatus {
	status := AppStatus{
		Name: app.Name,
		Type: string(app.AppType()),
		Port: app.Port,
	}

	if !app.HasPort() {
		status.State = StateUnknown
		return status
	}

	occ := m.prober.IsOccupied(ctx, app.Port)
	status.Verified = occ.Verified
	if occ.Occupied {
		status.State = StateRunning
	} else {
		status.State = StateStopped
	}
	return status
}

// ListStatus derives the status of every registered app.
func (m *Manager) ListStatus(ctx context.Context) []AppStatus {
	apps := m.Registry().Apps()
	statuses := make([]AppStatus, 0, len(apps))
	for _, app := range apps {
		statuses = append(statuses, m.Status(ctx, app))
	}
	return statuses
}

// Sessions lists the windows known to the session backend.
func (m *Manager) Sessions(ctx context.Context) ([]session.WindowState, error) {
	return m.backend.List(ctx)
}

// Backend returns the active session backend.
func (m *Manager) Backend() session.Backend {
	return m.backend
}

// validate checks that the descriptor's paths exist before anything runs.
func (m *Manager) validate(app config.AppConfig) error {
	if !app.AppType().IsFramework() {
		// Custom commands run in AppPath when set, but need no index file
		if app.AppPath != "" {
			if _, err := os.Stat(app.AppPath); err != nil {
				return &ValidationError{App: app.Name, Reason: fmt.Sprintf("app path %s does not exist", app.AppPath)}
			}
		}
		return nil
	}

	if _, err := os.Stat(app.AppPath); err != nil {
		return &ValidationError{App: app.Name, Reason: fmt.Sprintf("app path %s does not exist", app.AppPath)}
	}

	if app.IndexPath != "" && app.AppType() != config.TypeDjango {
		index := filepath.Join(app.AppPath, app.IndexPath)
		if _, err := os.Stat(index); err != nil {
			return &ValidationError{App: app.Name, Reason: fmt.Sprintf("index file %s does not exist", index)}
		}
	}

	return nil
}

func (m *Manager) publish(event events.Event) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(context.Background(), event)
}

// isIgnorableStopError reports whether a stop failure should not block the
// start half of a restart.
func isIgnorableStopError(err error) bool {
	return err == nil || errors.Is(err, ErrNotStoppable)
}
