// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
)

// DetectOptions configures backend selection.
type DetectOptions struct {
	// Backend forces a specific variant: "tmux", "zellij" or "terminal".
	// Empty selects automatically.
	Backend string
	// SessionName is the multiplexer session windows are opened in.
	SessionName string

	// lookPath is swappable for tests; nil means exec.LookPath.
	lookPath func(file string) (string, error)
	// getenv is swappable for tests; nil means os.Getenv.
	getenv func(key string) string
}

// Detect probes capabilities in order and returns the session backend to
// use for this run. Order: an enclosing tmux session is reused; an
// installed tmux starts a fresh detached session (this also covers headless
// hosts); zellij next; native graphical terminal emulators last, since they
// need a display. With nothing viable, ErrNoBackend.
func Detect(ctx context.Context, opts DetectOptions) (Backend, error) {
	lookPath := opts.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	getenv := opts.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	switch opts.Backend {
	case "tmux":
		if _, err := lookPath("tmux"); err != nil {
			return nil, fmt.Errorf("forced backend tmux: %w", ErrNoBackend)
		}
		return tmuxBackend(ctx, opts, getenv), nil
	case "zellij":
		if _, err := lookPath("zellij"); err != nil {
			return nil, fmt.Errorf("forced backend zellij: %w", ErrNoBackend)
		}
		return NewZellijBackend(NewRealZellijExecutor(), opts.SessionName), nil
	case "terminal":
		runner := &RealEmulatorRunner{}
		if !HaveEmulator(runner) {
			return nil, fmt.Errorf("forced backend terminal: %w", ErrNoBackend)
		}
		return NewEmulatorBackend(runner), nil
	case "":
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", opts.Backend, ErrNoBackend)
	}

	if getenv("TMUX") != "" {
		log.Printf("Session backend: reusing enclosing tmux session")
		return tmuxBackend(ctx, opts, getenv), nil
	}

	if _, err := lookPath("tmux"); err == nil {
		log.Printf("Session backend: tmux (session %q)", opts.SessionName)
		return NewTmuxBackend(NewRealTmuxExecutor(), opts.SessionName, false), nil
	}

	if _, err := lookPath("zellij"); err == nil {
		log.Printf("Session backend: zellij (session %q)", opts.SessionName)
		return NewZellijBackend(NewRealZellijExecutor(), opts.SessionName), nil
	}

	if getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != "" || runtime.GOOS == "darwin" {
		runner := &RealEmulatorRunner{}
		if HaveEmulator(runner) {
			log.Printf("Session backend: native terminal emulator")
			return NewEmulatorBackend(runner), nil
		}
	}

	return nil, ErrNoBackend
}

// tmuxBackend builds the tmux variant, reusing the enclosing session when
// arbor already runs inside tmux.
func tmuxBackend(ctx context.Context, opts DetectOptions, getenv func(string) string) *TmuxBackend {
	if getenv("TMUX") != "" {
		session := CurrentTmuxSession(ctx)
		if session == "" {
			session = opts.SessionName
		}
		return NewTmuxBackend(NewRealTmuxExecutor(), session, true)
	}
	return NewTmuxBackend(NewRealTmuxExecutor(), opts.SessionName, false)
}
