// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-memory event bus for arbor.
package events

import (
	"context"
	"time"
)

// Event represents an immutable event record.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	App       string                 `json:"app,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// EventHandler processes received events.
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// EventBus is the core event pub/sub system.
type EventBus interface {
	// Publish emits an event to all matching subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a synchronous handler for events matching
	// pattern ("app.*" style wildcards, "*" for everything).
	Subscribe(pattern string, handler EventHandler) (SubscriptionID, error)

	// SubscribeAsync registers an async handler with a buffered channel.
	SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History returns up to limit most recent events, newest last.
	History(limit int) []Event

	// Close shuts down the event bus gracefully.
	Close() error
}

// Common event types
const (
	EventAppStarted     = "app.started"
	EventAppStartFailed = "app.start_failed"
	EventAppStopped     = "app.stopped"
	EventAppRestarted   = "app.restarted"

	EventPortFreed = "port.freed"

	EventRegistryReloaded = "registry.reloaded"
)
