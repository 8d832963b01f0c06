// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventBus_Publish(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	err := bus.Publish(context.Background(), Event{
		Type:    EventAppStarted,
		App:     "sales",
		Payload: map[string]interface{}{"port": 8501},
	})
	assert.NoError(t, err)
}

func TestMemoryEventBus_Publish_AssignsIDAndTimestamp(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var received Event
	_, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		received = e
		return nil
	})
	require.NoError(t, err)

	err = bus.Publish(context.Background(), Event{Type: EventAppStarted})
	require.NoError(t, err)

	assert.NotEmpty(t, received.ID)
	assert.False(t, received.Timestamp.IsZero())
}

func TestMemoryEventBus_Subscribe_PatternMatching(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var count int32
	_, err := bus.Subscribe("app.*", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	require.NoError(t, err)

	for _, typ := range []string{EventAppStarted, EventAppStopped, EventAppStartFailed, EventRegistryReloaded} {
		bus.Publish(context.Background(), Event{Type: typ})
	}

	// registry.reloaded must not match app.*
	assert.Equal(t, int32(3), atomic.LoadInt32(&count))
}

func TestMemoryEventBus_SubscribeAsync(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	received := make(chan Event, 1)
	_, err := bus.SubscribeAsync(EventAppStopped, func(ctx context.Context, e Event) error {
		received <- e
		return nil
	}, 10)
	require.NoError(t, err)

	err = bus.Publish(context.Background(), Event{Type: EventAppStopped, App: "crm"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, "crm", e.App)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for async event")
	}
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var count int32
	id, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	require.NoError(t, err)

	bus.Publish(context.Background(), Event{Type: EventAppStarted})
	require.NoError(t, bus.Unsubscribe(id))
	bus.Publish(context.Background(), Event{Type: EventAppStarted})

	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestMemoryEventBus_Unsubscribe_NotFound(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	err := bus.Unsubscribe(SubscriptionID("missing"))
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestMemoryEventBus_History(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	for i := 0; i < 5; i++ {
		bus.Publish(context.Background(), Event{
			Type: EventAppStarted,
			App:  fmt.Sprintf("app-%d", i),
		})
	}

	all := bus.History(0)
	require.Len(t, all, 5)
	assert.Equal(t, "app-0", all[0].App)

	limited := bus.History(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "app-3", limited[0].App)
	assert.Equal(t, "app-4", limited[1].App)
}

func TestMemoryEventBus_History_Bounded(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{HistoryMaxEvents: 3})
	defer bus.Close()

	for i := 0; i < 10; i++ {
		bus.Publish(context.Background(), Event{Type: EventAppStarted, App: fmt.Sprintf("app-%d", i)})
	}

	all := bus.History(0)
	require.Len(t, all, 3)
	assert.Equal(t, "app-7", all[0].App)
}

func TestMemoryEventBus_History_PrunesByAge(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{HistoryMaxAge: time.Minute})
	defer bus.Close()

	bus.Publish(context.Background(), Event{Type: EventAppStarted, App: "old", Timestamp: time.Now().Add(-time.Hour)})
	bus.Publish(context.Background(), Event{Type: EventAppStarted, App: "fresh"})

	all := bus.History(0)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh", all[0].App)
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})

	require.NoError(t, bus.Close())
	assert.NoError(t, bus.Close(), "closing twice is fine")

	err := bus.Publish(context.Background(), Event{Type: EventAppStarted})
	assert.ErrorIs(t, err, ErrBusClosed)

	_, err = bus.Subscribe("*", func(ctx context.Context, e Event) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern   string
		eventType string
		want      bool
	}{
		{"*", EventAppStarted, true},
		{"", EventAppStarted, true},
		{"app.*", EventAppStarted, true},
		{"app.*", EventRegistryReloaded, false},
		{EventAppStarted, EventAppStarted, true},
		{EventAppStarted, EventAppStopped, false},
		{"app.*", "app", true},
		{"port.*", EventPortFreed, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.eventType), "pattern %q type %q", tt.pattern, tt.eventType)
	}
}
