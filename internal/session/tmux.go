// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// TmuxExecutor executes tmux commands. Swappable for tests.
type TmuxExecutor interface {
	// HasSession checks if a session exists.
	HasSession(ctx context.Context, session string) bool
	// NewSession creates a detached session.
	NewSession(ctx context.Context, session, workdir string) error
	// NewWindow creates a named window in a session.
	NewWindow(ctx context.Context, session, window, workdir string) error
	// KillWindow kills a named window. Returns an error if it is missing.
	KillWindow(ctx context.Context, session, window string) error
	// ListWindows lists windows in a session.
	ListWindows(ctx context.Context, session string) ([]WindowInfo, error)
	// SendKeys sends keys to a window target.
	SendKeys(ctx context.Context, target, keys string, literal bool) error
}

// WindowInfo contains information about a tmux window.
type WindowInfo struct {
	Index  int
	Name   string
	Active bool
}

// RealTmuxExecutor executes real tmux commands.
type RealTmuxExecutor struct{}

// NewRealTmuxExecutor creates a new tmux executor.
func NewRealTmuxExecutor() *RealTmuxExecutor {
	return &RealTmuxExecutor{}
}

// HasSession checks if a session exists.
func (e *RealTmuxExecutor) HasSession(ctx context.Context, session string) bool {
	cmd := exec.CommandContext(ctx, "tmux", "has-session", "-t", session)
	return cmd.Run() == nil
}

// NewSession creates a detached session.
func (e *RealTmuxExecutor) NewSession(ctx context.Context, session, workdir string) error {
	args := []string{"new-session", "-d", "-s", session}
	if workdir != "" {
		args = append(args, "-c", workdir)
	}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	// Ensure we're not inside another tmux session
	cmd.Env = filterTMUXEnv(os.Environ())

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux new-session failed: %s: %v", stderr.String(), err)
	}
	return nil
}

// NewWindow creates a named window in a session. The window runs the user's
// default shell; commands are delivered with SendKeys so the window stays
// open and inspectable after the process exits.
func (e *RealTmuxExecutor) NewWindow(ctx context.Context, session, window, workdir string) error {
	args := []string{"new-window", "-t", session, "-n", window}
	if workdir != "" {
		args = append(args, "-c", workdir)
	}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	cmd.Env = filterTMUXEnv(os.Environ())

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux new-window failed: %s: %v", stderr.String(), err)
	}
	return nil
}

// KillWindow kills a window in a session.
func (e *RealTmuxExecutor) KillWindow(ctx context.Context, session, window string) error {
	target := fmt.Sprintf("%s:%s", session, window)
	cmd := exec.CommandContext(ctx, "tmux", "kill-window", "-t", target)
	return cmd.Run()
}

// ListWindows lists windows in a session.
func (e *RealTmuxExecutor) ListWindows(ctx context.Context, session string) ([]WindowInfo, error) {
	cmd := exec.CommandContext(ctx, "tmux", "list-windows", "-t", session, "-F", "#{window_index}: #{window_name}#{?window_active,*,}")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseWindowList(string(output)), nil
}

// SendKeys sends keys to a window target.
func (e *RealTmuxExecutor) SendKeys(ctx context.Context, target, keys string, literal bool) error {
	args := []string{"send-keys", "-t", target}
	if literal {
		args = append(args, "-l")
	}
	args = append(args, keys)

	cmd := exec.CommandContext(ctx, "tmux", args...)
	return cmd.Run()
}

// TmuxBackend opens application windows inside a tmux session. When arbor
// itself runs inside tmux the surrounding session is reused; otherwise a
// detached session is created, usable both headless and interactively.
type TmuxBackend struct {
	exec    TmuxExecutor
	session string
	// reuse means windows open in the session arbor is already inside.
	reuse bool
}

// NewTmuxBackend creates a tmux backend targeting the given session name.
func NewTmuxBackend(exec TmuxExecutor, session string, reuseCurrent bool) *TmuxBackend {
	return &TmuxBackend{exec: exec, session: session, reuse: reuseCurrent}
}

// InsideTmux reports whether the current process runs inside a tmux session.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// CurrentTmuxSession returns the name of the surrounding tmux session, best
// effort for display.
func CurrentTmuxSession(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "tmux", "display-message", "-p", "#{session_name}").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Name implements Backend.
func (b *TmuxBackend) Name() string { return "tmux" }

// OpenWindow implements Backend.
func (b *TmuxBackend) OpenWindow(ctx context.Context, name, workdir, command string) error {
	window := sanitizeWindowName(name)

	if !b.reuse && !b.exec.HasSession(ctx, b.session) {
		if err := b.exec.NewSession(ctx, b.session, workdir); err != nil {
			return fmt.Errorf("open session: %w", err)
		}
	}

	if err := b.exec.NewWindow(ctx, b.session, window, workdir); err != nil {
		return fmt.Errorf("open window %q: %w", name, err)
	}

	target := b.session + ":" + window
	if err := b.exec.SendKeys(ctx, target, command, true); err != nil {
		return fmt.Errorf("send command to %q: %w", name, err)
	}
	if err := b.exec.SendKeys(ctx, target, "Enter", false); err != nil {
		return fmt.Errorf("send command to %q: %w", name, err)
	}
	return nil
}

// List implements Backend.
func (b *TmuxBackend) List(ctx context.Context) ([]WindowState, error) {
	if !b.exec.HasSession(ctx, b.session) {
		return nil, nil
	}

	windows, err := b.exec.ListWindows(ctx, b.session)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	states := make([]WindowState, 0, len(windows))
	for _, w := range windows {
		states = append(states, WindowState{Name: w.Name, Alive: true})
	}
	return states, nil
}

// Kill implements Backend.
func (b *TmuxBackend) Kill(ctx context.Context, name string) (bool, error) {
	window := sanitizeWindowName(name)
	if !b.hasWindow(ctx, window) {
		return false, nil
	}
	if err := b.exec.KillWindow(ctx, b.session, window); err != nil {
		return false, fmt.Errorf("kill window %q: %w", name, err)
	}
	return true, nil
}

// SendInterrupt implements Backend by sending C-c to the named window.
func (b *TmuxBackend) SendInterrupt(ctx context.Context, name string) (bool, error) {
	window := sanitizeWindowName(name)
	if !b.hasWindow(ctx, window) {
		return false, nil
	}
	target := b.session + ":" + window
	if err := b.exec.SendKeys(ctx, target, "C-c", false); err != nil {
		return false, fmt.Errorf("interrupt window %q: %w", name, err)
	}
	return true, nil
}

// AttachCommand implements Backend.
func (b *TmuxBackend) AttachCommand() []string {
	if b.reuse {
		return nil // already inside
	}
	return []string{"tmux", "attach-session", "-t", b.session}
}

func (b *TmuxBackend) hasWindow(ctx context.Context, window string) bool {
	windows, err := b.exec.ListWindows(ctx, b.session)
	if err != nil {
		return false
	}
	for _, w := range windows {
		if w.Name == window {
			return true
		}
	}
	return false
}

// filterTMUXEnv filters out the TMUX environment variable.
func filterTMUXEnv(env []string) []string {
	result := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, "TMUX=") {
			result = append(result, e)
		}
	}
	return result
}

// parseWindowList parses tmux list-windows output in the custom
// "INDEX: NAME[*]" format used by ListWindows.
func parseWindowList(output string) []WindowInfo {
	var windows []WindowInfo
	pattern := regexp.MustCompile(`^(\d+):\s+(.+)$`)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matches := pattern.FindStringSubmatch(line)
		if len(matches) >= 3 {
			idx, _ := strconv.Atoi(matches[1])
			name := matches[2]

			active := strings.HasSuffix(name, "*")
			name = strings.TrimSuffix(name, "*")

			windows = append(windows, WindowInfo{
				Index:  idx,
				Name:   name,
				Active: active,
			})
		}
	}

	return windows
}
