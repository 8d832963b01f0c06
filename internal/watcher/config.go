// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package watcher reloads the application registry when its config
// file changes on disk.
package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceKey = "config"

// ReloadFunc is called after a debounced change to the watched file.
type ReloadFunc func(path string)

// ConfigWatcher watches a config file and invokes a reload callback
// when it changes. Editors that save via rename are handled by
// watching the parent directory rather than the file itself.
type ConfigWatcher struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	reload   ReloadFunc
	closed   bool
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewConfigWatcher starts watching path and calls reload after changes
// settle for the debounce duration.
func NewConfigWatcher(path string, debounce time.Duration, reload ReloadFunc) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory so rename-style saves are still seen.
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &ConfigWatcher{
		path:     absPath,
		watcher:  fsWatcher,
		debounce: NewDebouncer(debounce),
		reload:   reload,
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debounce.Stop()
	w.watcher.Close()
	w.wg.Wait()

	return nil
}

func (w *ConfigWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)
		}
	}
}

func (w *ConfigWatcher) handleEvent(event fsnotify.Event) {
	// Chmod fires on reads in some editors and never changes content.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}

	w.debounce.Debounce(debounceKey, func() {
		w.reload(w.path)
	})
}
