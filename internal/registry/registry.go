// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registry maintains the ordered collection of application
// descriptors and resolves user selections against it.
package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wingedpig/arbor/internal/config"
)

// ErrNoMatch is returned when a selection token matches no application.
var ErrNoMatch = errors.New("no matching application")

// AllToken selects every application, as does "0".
const AllToken = "all"

// Registry is an ordered, normalized collection of application descriptors.
type Registry struct {
	apps []config.AppConfig
}

// DroppedApp records a descriptor removed during normalization.
type DroppedApp struct {
	App    config.AppConfig
	Reason string
}

// Normalize filters descriptors to the supported set and deduplicates by
// case-insensitive name, keeping the first occurrence and preserving the
// relative order of survivors. Dropped entries are returned for reporting.
func Normalize(apps []config.AppConfig) (*Registry, []DroppedApp) {
	var dropped []DroppedApp
	seen := make(map[string]bool)
	kept := make([]config.AppConfig, 0, len(apps))

	for _, app := range apps {
		if !app.IsEnabled() {
			dropped = append(dropped, DroppedApp{App: app, Reason: "disabled"})
			continue
		}
		if !app.IsSupported() {
			dropped = append(dropped, DroppedApp{
				App:    app,
				Reason: fmt.Sprintf("unsupported type '%s' and no custom command", app.Type),
			})
			continue
		}

		key := strings.ToLower(app.Name)
		if seen[key] {
			dropped = append(dropped, DroppedApp{
				App:    app,
				Reason: fmt.Sprintf("duplicate name '%s'", app.Name),
			})
			continue
		}
		seen[key] = true
		kept = append(kept, app)
	}

	return &Registry{apps: kept}, dropped
}

// Apps returns the descriptors in registry order.
func (r *Registry) Apps() []config.AppConfig {
	out := make([]config.AppConfig, len(r.apps))
	copy(out, r.apps)
	return out
}

// Len returns the number of registered applications.
func (r *Registry) Len() int {
	return len(r.apps)
}

// Get returns a descriptor by case-insensitive name.
func (r *Registry) Get(name string) (config.AppConfig, bool) {
	for _, app := range r.apps {
		if strings.EqualFold(app.Name, name) {
			return app, true
		}
	}
	return config.AppConfig{}, false
}

// Resolve maps a user-supplied token to descriptors. A positive integer is a
// 1-based index into registry order; "0" or "all" selects everything;
// anything else is a case-insensitive exact name match. A miss returns
// ErrNoMatch so callers can warn and continue a batch.
func (r *Registry) Resolve(token string) ([]config.AppConfig, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty selection", ErrNoMatch)
	}

	if strings.EqualFold(token, AllToken) || token == "0" {
		return r.Apps(), nil
	}

	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > len(r.apps) {
			return nil, fmt.Errorf("%w: index %d out of range 1..%d", ErrNoMatch, n, len(r.apps))
		}
		return []config.AppConfig{r.apps[n-1]}, nil
	}

	if app, ok := r.Get(token); ok {
		return []config.AppConfig{app}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrNoMatch, token)
}

// ResolveMany resolves a comma- or space-separated selection that may mix
// indexes, ranges ("2-4") and names. Tokens that resolve to nothing are
// returned as warnings rather than failing the whole selection. Duplicate
// picks collapse to the first occurrence.
func (r *Registry) ResolveMany(input string) ([]config.AppConfig, []string) {
	fields := strings.FieldsFunc(input, func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t'
	})

	var selected []config.AppConfig
	var warnings []string
	seen := make(map[string]bool)

	add := func(apps []config.AppConfig) {
		for _, app := range apps {
			key := strings.ToLower(app.Name)
			if !seen[key] {
				seen[key] = true
				selected = append(selected, app)
			}
		}
	}

	for _, tok := range fields {
		if lo, hi, ok := parseRange(tok); ok {
			if lo < 1 || hi > len(r.apps) || lo > hi {
				warnings = append(warnings, fmt.Sprintf("range %q out of bounds 1..%d", tok, len(r.apps)))
				continue
			}
			add(r.apps[lo-1 : hi])
			continue
		}

		apps, err := r.Resolve(tok)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		add(apps)
	}

	return selected, warnings
}

// parseRange parses "2-4" into (2,4,true).
func parseRange(tok string) (lo, hi int, ok bool) {
	parts := strings.SplitN(tok, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}
