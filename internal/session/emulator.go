// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// emulatorSpec describes how to launch one graphical terminal emulator with
// a window title, working directory and shell command.
type emulatorSpec struct {
	program string
	build   func(title, workdir, command string) []string
}

// emulatorChain is the ordered fallback list of native terminal emulators.
// The trailing "exec $SHELL" keeps the window open and inspectable after
// the launched process exits.
var emulatorChain = []emulatorSpec{
	{
		program: "gnome-terminal",
		build: func(title, workdir, command string) []string {
			return []string{"--title", title, "--working-directory", workdir,
				"--", "bash", "-c", command + "; exec bash"}
		},
	},
	{
		program: "konsole",
		build: func(title, workdir, command string) []string {
			return []string{"--workdir", workdir, "-p", "tabtitle=" + title,
				"-e", "bash", "-c", command + "; exec bash"}
		},
	},
	{
		program: "xfce4-terminal",
		build: func(title, workdir, command string) []string {
			return []string{"--title", title, "--working-directory", workdir,
				"-x", "bash", "-c", command + "; exec bash"}
		},
	},
	{
		program: "x-terminal-emulator",
		build: func(title, workdir, command string) []string {
			return []string{"-T", title, "-e", "sh", "-c", shellLine(workdir, command) + "; exec sh"}
		},
	},
	{
		program: "xterm",
		build: func(title, workdir, command string) []string {
			return []string{"-T", title, "-e", "sh", "-c", shellLine(workdir, command) + "; exec sh"}
		},
	},
}

// EmulatorRunner launches emulator processes. Swappable for tests.
type EmulatorRunner interface {
	LookPath(file string) (string, error)
	// Start launches the program detached; it must not wait for exit.
	Start(ctx context.Context, program string, args ...string) error
}

// RealEmulatorRunner launches real emulator processes.
type RealEmulatorRunner struct{}

// LookPath implements EmulatorRunner.
func (r *RealEmulatorRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Start implements EmulatorRunner.
func (r *RealEmulatorRunner) Start(ctx context.Context, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	return cmd.Start()
}

// EmulatorBackend opens each application in its own native graphical
// terminal window. There is no handle to a window once opened: List is
// reconstructed from this process's own records, and Kill/SendInterrupt are
// reported unsupported rather than failing silently.
type EmulatorBackend struct {
	runner EmulatorRunner

	mu     sync.Mutex
	opened []string
}

// NewEmulatorBackend creates a native terminal emulator backend.
func NewEmulatorBackend(runner EmulatorRunner) *EmulatorBackend {
	return &EmulatorBackend{runner: runner}
}

// HaveEmulator reports whether any known graphical terminal emulator is
// callable.
func HaveEmulator(runner EmulatorRunner) bool {
	if runtime.GOOS == "darwin" {
		_, err := runner.LookPath("osascript")
		return err == nil
	}
	for _, spec := range emulatorChain {
		if _, err := runner.LookPath(spec.program); err == nil {
			return true
		}
	}
	return false
}

// Name implements Backend.
func (b *EmulatorBackend) Name() string { return "terminal" }

// OpenWindow implements Backend.
func (b *EmulatorBackend) OpenWindow(ctx context.Context, name, workdir, command string) error {
	title := sanitizeWindowName(name)

	if runtime.GOOS == "darwin" {
		script := `tell application "Terminal" to do script ` + appleScriptString(shellLine(workdir, command))
		if err := b.runner.Start(ctx, "osascript", "-e", script); err != nil {
			return fmt.Errorf("open Terminal window %q: %w", name, err)
		}
		b.record(title)
		return nil
	}

	for _, spec := range emulatorChain {
		if _, err := b.runner.LookPath(spec.program); err != nil {
			continue
		}
		if err := b.runner.Start(ctx, spec.program, spec.build(title, workdir, command)...); err != nil {
			return fmt.Errorf("open %s window %q: %w", spec.program, name, err)
		}
		b.record(title)
		return nil
	}

	return fmt.Errorf("open window %q: %w", name, ErrNoBackend)
}

// List implements Backend. Emulator windows cannot be enumerated once
// detached; windows opened by this process are reported without liveness.
func (b *EmulatorBackend) List(ctx context.Context) ([]WindowState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	states := make([]WindowState, 0, len(b.opened))
	for _, name := range b.opened {
		states = append(states, WindowState{Name: name, Alive: true})
	}
	return states, nil
}

// Kill implements Backend. There is no handle to a detached emulator window.
func (b *EmulatorBackend) Kill(ctx context.Context, name string) (bool, error) {
	return false, fmt.Errorf("kill window %q: %w", name, ErrUnsupported)
}

// SendInterrupt implements Backend. There is no input channel to a detached
// emulator window.
func (b *EmulatorBackend) SendInterrupt(ctx context.Context, name string) (bool, error) {
	return false, fmt.Errorf("interrupt window %q: %w", name, ErrUnsupported)
}

// AttachCommand implements Backend. Emulator windows are already visible.
func (b *EmulatorBackend) AttachCommand() []string { return nil }

func (b *EmulatorBackend) record(name string) {
	b.mu.Lock()
	b.opened = append(b.opened, name)
	b.mu.Unlock()
}

// appleScriptString wraps s as an AppleScript string literal, escaping the
// backslashes and double quotes the shell line may contain.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
