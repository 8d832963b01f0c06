// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle orchestrates application start/stop/restart/status.
// Liveness is derived from port occupancy on every query, never cached: the
// registry stays stateless with respect to runtime status, and transient
// Starting/Stopping states exist only for the duration of an operation.
package lifecycle

import (
	"errors"
	"fmt"
)

// AppState is the derived lifecycle state of an application.
type AppState int

const (
	StateStopped AppState = iota
	StateStarting
	StateRunning
	StateStopping
	// StateUnknown is reported for apps without a managed port: there is
	// no liveness signal to derive a state from. Rendered distinctly from
	// stopped.
	StateUnknown
)

func (s AppState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler to output the string representation.
func (s AppState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ErrNotStoppable is returned by Stop for apps without a managed port;
// there is no liveness signal to act on. Informational, not a failure.
var ErrNotStoppable = errors.New("app has no port; nothing to stop")

// ValidationError means a descriptor references a missing path or file.
// It skips that single operation and never aborts a batch.
type ValidationError struct {
	App    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("app %q: %s", e.App, e.Reason)
}

// AppStatus is a point-in-time derived status for one application.
type AppStatus struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Port  int      `json:"port,omitempty"`
	State AppState `json:"state"`
	// Verified is false when the state is an assumed default because no
	// port introspection tool was available (degraded confidence), and
	// for unmanaged apps.
	Verified bool `json:"verified"`
}

// OpResult is the outcome of one per-app operation inside a batch.
type OpResult struct {
	App string
	Err error
	// Command is the would-be run command, populated in dry-run mode.
	Command string
	// Info carries a human-readable note for non-error outcomes
	// ("already stopped").
	Info string
}

// Confirmer guards destructive steps behind a yes/no prompt.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// autoConfirm answers yes to everything (non-interactive mode).
type autoConfirm struct{}

func (autoConfirm) Confirm(string) bool { return true }

// AutoConfirm is a Confirmer that never prompts.
var AutoConfirm Confirmer = autoConfirm{}
