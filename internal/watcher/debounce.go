// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"sync"
	"time"
)

const defaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces bursts of calls per key. Each call arms a timer for
// its key; only the last call in a burst actually fires, once the key has
// been quiet for the full wait period.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = defaultDebounceDuration
	}
	return &Debouncer{
		wait:    wait,
		pending: make(map[string]*time.Timer),
	}
}

// Debounce (re)arms the timer for key. fn runs on a timer goroutine after
// the quiet period elapses without another call for the same key.
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[key]; ok {
		t.Stop()
	}
	d.pending[key] = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[key]; ok {
		t.Stop()
		delete(d.pending, key)
	}
}

// Stop drops every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
}
