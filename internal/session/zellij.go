// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ZellijExecutor executes zellij commands. Swappable for tests.
type ZellijExecutor interface {
	// ListSessions lists active session names.
	ListSessions(ctx context.Context) ([]string, error)
	// NewSession creates a detached (background) session.
	NewSession(ctx context.Context, session string) error
	// NewPane opens a named pane running a command in a session.
	NewPane(ctx context.Context, session, name, workdir, command string) error
	// KillSession kills a whole session.
	KillSession(ctx context.Context, session string) error
}

// RealZellijExecutor executes real zellij commands.
type RealZellijExecutor struct{}

// NewRealZellijExecutor creates a new zellij executor.
func NewRealZellijExecutor() *RealZellijExecutor {
	return &RealZellijExecutor{}
}

// ListSessions lists active session names.
func (e *RealZellijExecutor) ListSessions(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "zellij", "list-sessions", "-n", "-s")
	output, err := cmd.Output()
	if err != nil {
		// No sessions at all exits non-zero
		return nil, nil
	}

	var sessions []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			sessions = append(sessions, line)
		}
	}
	return sessions, nil
}

// NewSession creates a detached session.
func (e *RealZellijExecutor) NewSession(ctx context.Context, session string) error {
	cmd := exec.CommandContext(ctx, "zellij", "attach", "--create-background", session)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("zellij create session failed: %s: %v", stderr.String(), err)
	}
	return nil
}

// NewPane opens a named pane running the command through the shell.
func (e *RealZellijExecutor) NewPane(ctx context.Context, session, name, workdir, command string) error {
	args := []string{"--session", session, "run", "--name", name}
	if workdir != "" {
		args = append(args, "--cwd", workdir)
	}
	args = append(args, "--", "sh", "-c", command)

	cmd := exec.CommandContext(ctx, "zellij", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("zellij run failed: %s: %v", stderr.String(), err)
	}
	return nil
}

// KillSession kills a session.
func (e *RealZellijExecutor) KillSession(ctx context.Context, session string) error {
	cmd := exec.CommandContext(ctx, "zellij", "kill-session", session)
	return cmd.Run()
}

// ZellijBackend opens application panes inside a zellij session. Zellij has
// no external per-pane addressing, so Kill and SendInterrupt on individual
// windows are reported unsupported; stopping apps goes through port freeing.
type ZellijBackend struct {
	exec    ZellijExecutor
	session string

	// opened tracks panes this process created; zellij cannot enumerate
	// panes from outside, so List is reconstructed from session liveness
	// plus this record.
	mu     sync.Mutex
	opened []string
}

// NewZellijBackend creates a zellij backend targeting the given session.
func NewZellijBackend(exec ZellijExecutor, session string) *ZellijBackend {
	return &ZellijBackend{exec: exec, session: session}
}

// InsideZellij reports whether the current process runs inside zellij.
func InsideZellij() bool {
	return os.Getenv("ZELLIJ") != ""
}

// Name implements Backend.
func (b *ZellijBackend) Name() string { return "zellij" }

// OpenWindow implements Backend.
func (b *ZellijBackend) OpenWindow(ctx context.Context, name, workdir, command string) error {
	pane := sanitizeWindowName(name)

	if !InsideZellij() {
		sessions, err := b.exec.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		exists := false
		for _, s := range sessions {
			if s == b.session {
				exists = true
				break
			}
		}
		if !exists {
			if err := b.exec.NewSession(ctx, b.session); err != nil {
				return fmt.Errorf("open session: %w", err)
			}
		}
	}

	if err := b.exec.NewPane(ctx, b.session, pane, workdir, command); err != nil {
		return fmt.Errorf("open pane %q: %w", name, err)
	}

	b.mu.Lock()
	b.opened = append(b.opened, pane)
	b.mu.Unlock()
	return nil
}

// List implements Backend. Pane-level liveness is not observable from
// outside zellij; panes opened by this process are reported alive while
// their session is.
func (b *ZellijBackend) List(ctx context.Context) ([]WindowState, error) {
	sessions, err := b.exec.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessionAlive := false
	for _, s := range sessions {
		if s == b.session {
			sessionAlive = true
			break
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	states := make([]WindowState, 0, len(b.opened))
	for _, name := range b.opened {
		states = append(states, WindowState{Name: name, Alive: sessionAlive})
	}
	return states, nil
}

// Kill implements Backend. Individual panes cannot be addressed externally.
func (b *ZellijBackend) Kill(ctx context.Context, name string) (bool, error) {
	return false, fmt.Errorf("kill pane %q: %w", name, ErrUnsupported)
}

// SendInterrupt implements Backend. Individual panes cannot be addressed
// externally.
func (b *ZellijBackend) SendInterrupt(ctx context.Context, name string) (bool, error) {
	return false, fmt.Errorf("interrupt pane %q: %w", name, ErrUnsupported)
}

// AttachCommand implements Backend.
func (b *ZellijBackend) AttachCommand() []string {
	if InsideZellij() {
		return nil
	}
	return []string{"zellij", "attach", b.session}
}
