// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateSession(cfg, errs)
	v.validateApps(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port != 0 {
		if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
			errs.Add("server.port", "must be between 0 and 65535")
		}
	}
}

func (v *Validator) validateSession(cfg *Config, errs *ValidationError) {
	switch cfg.Session.Backend {
	case "", "tmux", "zellij", "terminal":
	default:
		errs.Add("session.backend", fmt.Sprintf("unknown backend '%s' (want tmux, zellij or terminal)", cfg.Session.Backend))
	}
}

func (v *Validator) validateApps(cfg *Config, errs *ValidationError) {
	seenNames := make(map[string]bool)

	for i, app := range cfg.Apps {
		prefix := fmt.Sprintf("apps[%d]", i)

		if app.Name == "" {
			errs.Add(prefix+".name", "is required")
		} else {
			lower := strings.ToLower(app.Name)
			if seenNames[lower] {
				errs.Add(prefix+".name", fmt.Sprintf("duplicate app name '%s' (names are case-insensitive)", app.Name))
			}
			seenNames[lower] = true
		}

		if !app.IsSupported() {
			errs.Add(prefix+".type", fmt.Sprintf("unrecognized type '%s' and no custom_command", app.Type))
		}

		if app.AppType().IsFramework() && app.AppPath == "" {
			errs.Add(prefix+".app_path", "is required for framework apps")
		}

		if app.Port != 0 {
			if app.Port < 0 || app.Port > 65535 {
				errs.Add(prefix+".port", "must be between 0 and 65535")
			}
		}

		if app.BasePath != "" && !strings.HasPrefix(app.BasePath, "/") {
			errs.Add(prefix+".base_path", "must start with '/'")
		}

		switch app.PackageManager {
		case "", "pip", "uv":
		default:
			errs.Add(prefix+".package_manager", fmt.Sprintf("unknown package manager '%s' (want pip or uv)", app.PackageManager))
		}
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	checks := []struct {
		field string
		value string
	}{
		{"launch.start_delay", cfg.Launch.StartDelay},
		{"launch.port_wait_timeout", cfg.Launch.PortWaitTimeout},
		{"watch.debounce", cfg.Watch.Debounce},
		{"events.max_age", cfg.Events.MaxAge},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if _, err := time.ParseDuration(c.value); err != nil {
			errs.Add(c.field, fmt.Sprintf("invalid duration '%s'", c.value))
		}
	}
}
