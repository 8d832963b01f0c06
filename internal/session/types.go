// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session opens named, visually inspectable terminal sessions for
// launched applications. Backends are polymorphic: tmux (primary
// multiplexer), zellij (secondary multiplexer) and native graphical
// terminal emulators all satisfy the same Backend interface, selected once
// at startup by ordered capability probing.
package session

import (
	"context"
	"errors"
	"strings"
)

// ErrNoBackend is returned when no viable session backend exists on the
// host: no multiplexer installed and no graphical terminal reachable.
var ErrNoBackend = errors.New("no terminal session backend available")

// ErrUnsupported is returned by backends for capabilities they genuinely
// cannot provide (e.g. interrupting a window inside a detached graphical
// terminal). Backends report it rather than failing silently.
var ErrUnsupported = errors.New("operation not supported by this session backend")

// WindowState describes one named session window.
type WindowState struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

// Backend is the capability set every session backend variant provides.
type Backend interface {
	// Name identifies the backend variant ("tmux", "zellij", "terminal").
	Name() string
	// OpenWindow opens a named execution context in workdir and runs the
	// serialized command inside it.
	OpenWindow(ctx context.Context, name, workdir, command string) error
	// List reports the windows this backend knows about and whether each
	// is alive. Session identity is reconstructed by name lookup, never
	// cached across manager restarts.
	List(ctx context.Context) ([]WindowState, error)
	// Kill closes the named window. Returns false when no such window
	// existed.
	Kill(ctx context.Context, name string) (bool, error)
	// SendInterrupt delivers a best-effort interrupt to the named window.
	// Variants that cannot do this return ErrUnsupported.
	SendInterrupt(ctx context.Context, name string) (bool, error)
	// AttachCommand returns the argv a user can run to attach to the
	// backend's session, or nil when attaching has no meaning.
	AttachCommand() []string
}

// sanitizeWindowName makes an application name safe for use as a window or
// session identifier (tmux rejects dots and colons in target names).
func sanitizeWindowName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '.', ':', ' ':
			out = append(out, '_')
		default:
			out = append(out, name[i])
		}
	}
	return string(out)
}

// shellQuote single-quotes s for POSIX shells when it contains characters
// the shell would otherwise interpret, plus path separators so filesystem
// arguments always appear quoted. Plain words pass through untouched.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$&|;<>()*?[]#~%{}\\!/") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellLine builds the command line run inside a spawned shell, changing
// into workdir first when one is set.
func shellLine(workdir, command string) string {
	if workdir == "" {
		return command
	}
	return "cd " + shellQuote(workdir) + " && " + command
}
