// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// ErrSubscriptionNotFound is returned when unsubscribing with invalid ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// MemoryBusConfig configures the memory event bus.
type MemoryBusConfig struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
}

// MemoryEventBus is an in-memory event bus implementation with a bounded
// history ring.
type MemoryEventBus struct {
	mu            sync.RWMutex
	subscriptions map[SubscriptionID]*subscription
	history       []Event
	maxEvents     int
	maxAge        time.Duration
	closed        atomic.Bool
	wg            sync.WaitGroup
	nextID        uint64
}

type subscription struct {
	id      SubscriptionID
	pattern string
	handler EventHandler
	async   bool
	ch      chan Event
	stopCh  chan struct{}
}

// NewMemoryEventBus creates a new in-memory event bus.
func NewMemoryEventBus(cfg MemoryBusConfig) *MemoryEventBus {
	maxEvents := cfg.HistoryMaxEvents
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	return &MemoryEventBus{
		subscriptions: make(map[SubscriptionID]*subscription),
		maxEvents:     maxEvents,
		maxAge:        cfg.HistoryMaxAge,
	}
}

// Publish emits an event to all matching subscribers.
func (bus *MemoryEventBus) Publish(ctx context.Context, event Event) error {
	if bus.closed.Load() {
		return ErrBusClosed
	}

	if event.ID == "" {
		event.ID = bus.generateID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.Lock()
	bus.history = append(bus.history, event)
	bus.prune()
	subs := make([]*subscription, 0, len(bus.subscriptions))
	for _, sub := range bus.subscriptions {
		subs = append(subs, sub)
	}
	bus.mu.Unlock()

	for _, sub := range subs {
		if !matchPattern(sub.pattern, event.Type) {
			continue
		}
		if sub.async {
			select {
			case sub.ch <- event:
			default:
				log.Printf("EventBus: dropped %s - async subscriber buffer full", event.Type)
			}
		} else {
			// Synchronous call with panic protection
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("Event handler panic for %s: %v", event.Type, r)
					}
				}()
				sub.handler(ctx, event)
			}()
		}
	}

	return nil
}

// Subscribe registers a synchronous handler for events matching pattern.
func (bus *MemoryEventBus) Subscribe(pattern string, handler EventHandler) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}

	id := SubscriptionID(bus.generateID())
	sub := &subscription{id: id, pattern: pattern, handler: handler}

	bus.mu.Lock()
	bus.subscriptions[id] = sub
	bus.mu.Unlock()

	return id, nil
}

// SubscribeAsync registers an async handler with a buffered channel.
func (bus *MemoryEventBus) SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}

	if bufferSize <= 0 {
		bufferSize = 100
	}

	id := SubscriptionID(bus.generateID())
	sub := &subscription{
		id:      id,
		pattern: pattern,
		handler: handler,
		async:   true,
		ch:      make(chan Event, bufferSize),
		stopCh:  make(chan struct{}),
	}

	bus.mu.Lock()
	bus.subscriptions[id] = sub
	bus.mu.Unlock()

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		for {
			select {
			case <-sub.stopCh:
				return
			case event := <-sub.ch:
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Async event handler panic for %s: %v", event.Type, r)
						}
					}()
					handler(context.Background(), event)
				}()
			}
		}
	}()

	return id, nil
}

// Unsubscribe removes a subscription.
func (bus *MemoryEventBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	sub, ok := bus.subscriptions[id]
	if !ok {
		bus.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	delete(bus.subscriptions, id)
	bus.mu.Unlock()

	if sub.async && sub.stopCh != nil {
		close(sub.stopCh)
	}

	return nil
}

// History returns up to limit most recent events, oldest first.
func (bus *MemoryEventBus) History(limit int) []Event {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	events := bus.history
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Close shuts down the event bus gracefully.
func (bus *MemoryEventBus) Close() error {
	if bus.closed.Swap(true) {
		return nil // Already closed
	}

	bus.mu.Lock()
	for _, sub := range bus.subscriptions {
		if sub.async && sub.stopCh != nil {
			close(sub.stopCh)
		}
	}
	bus.subscriptions = make(map[SubscriptionID]*subscription)
	bus.mu.Unlock()

	bus.wg.Wait()
	return nil
}

// prune drops events beyond the size bound or older than maxAge. Caller
// holds the lock.
func (bus *MemoryEventBus) prune() {
	if len(bus.history) > bus.maxEvents {
		bus.history = bus.history[len(bus.history)-bus.maxEvents:]
	}
	if bus.maxAge <= 0 {
		return
	}
	cutoff := time.Now().Add(-bus.maxAge)
	firstKept := 0
	for firstKept < len(bus.history) && bus.history[firstKept].Timestamp.Before(cutoff) {
		firstKept++
	}
	if firstKept > 0 {
		bus.history = bus.history[firstKept:]
	}
}

// matchPattern matches event types against "app.*" style patterns. "*"
// matches everything; a trailing ".*" matches the prefix; otherwise exact.
func matchPattern(pattern, eventType string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return eventType == prefix || strings.HasPrefix(eventType, prefix+".")
	}
	return pattern == eventType
}

// generateID generates a unique ID.
func (bus *MemoryEventBus) generateID() string {
	n := atomic.AddUint64(&bus.nextID, 1)
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b) + "-" + strconv.FormatUint(n, 10)
}
