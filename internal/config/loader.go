// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no registry file can be located and no
// template exists to recover from.
var ErrConfigNotFound = fmt.Errorf("config file not found")

// TemplateName is the example registry shipped next to the real one.
// When the primary file is missing, Bootstrap copies this into place once.
const TemplateName = "arbor.example.hjson"

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path. HJSON and
// JSON files go through the hjson parser; .yaml/.yml files through yaml.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return &cfg, nil
	default:
		// Parse HJSON to intermediate map, then through JSON for type safety
		var raw map[string]interface{}
		if err := hjson.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse hjson: %w", err)
		}

		jsonData, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("convert to json: %w", err)
		}

		var cfg Config
		if err := json.Unmarshal(jsonData, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		return &cfg, nil
	}
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a registry file in the given directory.
// It looks for arbor.hjson first, then arbor.json, then arbor.yaml.
func (l *Loader) FindConfig(dir string) (string, error) {
	candidates := []string{
		"arbor.hjson",
		"arbor.json",
		"arbor.yaml",
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("%w in %s (looked for %s)", ErrConfigNotFound, dir, strings.Join(candidates, ", "))
}

// Bootstrap locates the registry file, recovering once from a missing file by
// copying the template into place. It returns the path and whether the
// template copy happened (so the caller can warn the user). A missing file
// with no template returns ErrConfigNotFound.
func (l *Loader) Bootstrap(dir string) (path string, copied bool, err error) {
	path, err = l.FindConfig(dir)
	if err == nil {
		return path, false, nil
	}

	template := filepath.Join(dir, TemplateName)
	data, terr := os.ReadFile(template)
	if terr != nil {
		return "", false, err
	}

	path = filepath.Join(dir, "arbor.hjson")
	if werr := os.WriteFile(path, data, 0644); werr != nil {
		return "", false, fmt.Errorf("copy template config: %w", werr)
	}
	return path, true, nil
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 2811
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	if cfg.Session.SessionName == "" {
		cfg.Session.SessionName = "arbor"
	}

	if cfg.Launch.StartDelay == "" {
		cfg.Launch.StartDelay = "500ms"
	}
	if cfg.Launch.PortWaitTimeout == "" {
		cfg.Launch.PortWaitTimeout = "10s"
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "250ms"
	}

	if cfg.Events.MaxEvents == 0 {
		cfg.Events.MaxEvents = 1000
	}
	if cfg.Events.MaxAge == "" {
		cfg.Events.MaxAge = "1h"
	}

	if cfg.Dashboard.OutputPath == "" {
		cfg.Dashboard.OutputPath = "dashboard.html"
	}
	if cfg.Dashboard.Title == "" {
		if cfg.Project.Name != "" {
			cfg.Dashboard.Title = cfg.Project.Name
		} else {
			cfg.Dashboard.Title = "Applications"
		}
	}

	if cfg.UI.Color == "" {
		cfg.UI.Color = "auto"
	}

	for i := range cfg.Apps {
		cfg.Apps[i].AppPath = ExpandPath(cfg.Apps[i].AppPath)
		cfg.Apps[i].VenvPath = ExpandPath(cfg.Apps[i].VenvPath)
	}
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
