// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON/YAML configuration loading for arbor.
package config

import (
	"strings"
	"time"
)

// AppType identifies the web framework an application is built on.
type AppType string

const (
	TypeStreamlit AppType = "streamlit"
	TypeDjango    AppType = "django"
	TypeDash      AppType = "dash"
	TypeFlask     AppType = "flask"
	// TypeCustom is the resolved type for entries that carry a raw command
	// instead of a recognized framework type.
	TypeCustom AppType = "custom"
)

// ParseAppType normalizes a raw type string from the registry file.
// Unrecognized values resolve to TypeCustom; whether such an entry is usable
// depends on it carrying a custom command (see AppConfig.IsSupported).
func ParseAppType(raw string) AppType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "streamlit":
		return TypeStreamlit
	case "django":
		return TypeDjango
	case "dash":
		return TypeDash
	case "flask":
		return TypeFlask
	default:
		return TypeCustom
	}
}

// IsFramework reports whether t is one of the recognized web framework types.
func (t AppType) IsFramework() bool {
	switch t {
	case TypeStreamlit, TypeDjango, TypeDash, TypeFlask:
		return true
	}
	return false
}

// Config is the root configuration structure for arbor.
type Config struct {
	Version   string          `json:"version" yaml:"version"`
	Project   ProjectConfig   `json:"project" yaml:"project"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Launch    LaunchConfig    `json:"launch" yaml:"launch"`
	Watch     WatchConfig     `json:"watch" yaml:"watch"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	UI        UIConfig        `json:"ui" yaml:"ui"`
	Apps      []AppConfig     `json:"apps" yaml:"apps"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// ServerConfig configures the optional status HTTP server.
type ServerConfig struct {
	Port int    `json:"port" yaml:"port"`
	Host string `json:"host" yaml:"host"`
}

// SessionConfig configures the terminal session backend.
type SessionConfig struct {
	// Backend forces a specific backend ("tmux", "zellij", "terminal").
	// Empty means auto-detect in preference order.
	Backend string `json:"backend" yaml:"backend"`
	// SessionName is the tmux/zellij session that windows are opened in.
	SessionName string `json:"session_name" yaml:"session_name"`
}

// LaunchConfig configures start behavior.
type LaunchConfig struct {
	// StartDelay is the pause between launches in a batch start, e.g. "500ms".
	StartDelay string `json:"start_delay" yaml:"start_delay"`
	// AutoConfirm skips interactive confirmation before freeing occupied ports.
	AutoConfirm bool `json:"auto_confirm" yaml:"auto_confirm"`
	// PortWaitTimeout bounds how long a stop waits for a freed port, e.g. "10s".
	PortWaitTimeout string `json:"port_wait_timeout" yaml:"port_wait_timeout"`
}

// WatchConfig configures registry file watching.
type WatchConfig struct {
	Enabled  *bool  `json:"enabled" yaml:"enabled"`
	Debounce string `json:"debounce" yaml:"debounce"`
}

// EventsConfig configures event history.
type EventsConfig struct {
	MaxEvents int    `json:"max_events" yaml:"max_events"`
	MaxAge    string `json:"max_age" yaml:"max_age"`
}

// DashboardConfig configures static dashboard generation.
type DashboardConfig struct {
	OutputPath string `json:"output_path" yaml:"output_path"`
	Title      string `json:"title" yaml:"title"`
}

// UIConfig configures terminal output.
type UIConfig struct {
	// Color is "auto", "always" or "never".
	Color string `json:"color" yaml:"color"`
}

// AppConfig is one application descriptor in the registry.
type AppConfig struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	AppPath        string `json:"app_path" yaml:"app_path"`
	IndexPath      string `json:"index_path" yaml:"index_path"`
	Port           int    `json:"port" yaml:"port"`
	BasePath       string `json:"base_path" yaml:"base_path"`
	VenvPath       string `json:"venv_path" yaml:"venv_path"`
	PackageManager string `json:"package_manager" yaml:"package_manager"`
	CustomCommand  string `json:"custom_command" yaml:"custom_command"`
	Disabled       *bool  `json:"disabled" yaml:"disabled"`
}

// AppType returns the normalized framework type of this descriptor.
func (a *AppConfig) AppType() AppType {
	return ParseAppType(a.Type)
}

// IsSupported reports whether this descriptor is runnable: a recognized
// framework type, or a non-empty custom command.
func (a *AppConfig) IsSupported() bool {
	if a.AppType().IsFramework() {
		return true
	}
	return strings.TrimSpace(a.CustomCommand) != ""
}

// IsEnabled reports whether this descriptor participates in operations.
func (a *AppConfig) IsEnabled() bool {
	return a.Disabled == nil || !*a.Disabled
}

// HasPort reports whether liveness for this app is managed by a port.
// Port 0 (or absent) means unmanaged liveness.
func (a *AppConfig) HasPort() bool {
	return a.Port > 0
}

// ParseDuration parses a duration string, returning defaultVal if empty or invalid.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
