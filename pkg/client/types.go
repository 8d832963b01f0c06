// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "time"

// AppStatus is the derived status of one registered application.
type AppStatus struct {
	// Name is the application's unique (case-insensitive) name.
	Name string `json:"name"`

	// Type is the framework type: streamlit, django, dash, flask or custom.
	Type string `json:"type"`

	// Port is the managed liveness port; 0 means unmanaged.
	Port int `json:"port,omitempty"`

	// State is "running", "stopped" or "unknown" (no managed port).
	State string `json:"state"`

	// Verified is false when the state is an assumed default because no
	// port introspection tool was available on the server.
	Verified bool `json:"verified"`
}

// OpResult is the outcome of one lifecycle operation.
type OpResult struct {
	// App is the application the operation addressed.
	App string `json:"app"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// Command is the would-be run command, set in dry-run mode.
	Command string `json:"command,omitempty"`

	// Info is a human-readable note for non-error outcomes, such as
	// "already stopped".
	Info string `json:"info,omitempty"`
}

// Event is one lifecycle event record.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	App       string                 `json:"app,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}
