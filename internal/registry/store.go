// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"

	"github.com/wingedpig/arbor/internal/config"
)

// Store persists registry edits. The registry file is loaded wholesale and
// rewritten wholesale; there is no partial update.
type Store struct {
	path   string
	loader *config.Loader
}

// NewStore creates a store for the registry file at path.
func NewStore(path string) *Store {
	return &Store{path: path, loader: config.NewLoader()}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full configuration from disk.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	return s.loader.LoadWithDefaults(ctx, s.path)
}

// Save writes the configuration back to disk atomically (write tmp + rename).
// HJSON comments in the original file are not preserved.
func (s *Store) Save(cfg *config.Config) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = hjson.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// AddApp appends a descriptor and saves. Adding a name that already exists
// (case-insensitively) is an error.
func (s *Store) AddApp(ctx context.Context, app config.AppConfig) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for _, existing := range cfg.Apps {
		if strings.EqualFold(existing.Name, app.Name) {
			return fmt.Errorf("app %q already exists", app.Name)
		}
	}

	cfg.Apps = append(cfg.Apps, app)
	return s.Save(cfg)
}

// UpdateApp replaces the descriptor with the given name and saves.
func (s *Store) UpdateApp(ctx context.Context, name string, app config.AppConfig) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for i, existing := range cfg.Apps {
		if strings.EqualFold(existing.Name, name) {
			cfg.Apps[i] = app
			return s.Save(cfg)
		}
	}
	return fmt.Errorf("app %q not found", name)
}

// RemoveApp deletes the descriptor with the given name and saves.
func (s *Store) RemoveApp(ctx context.Context, name string) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for i, existing := range cfg.Apps {
		if strings.EqualFold(existing.Name, name) {
			cfg.Apps = append(cfg.Apps[:i], cfg.Apps[i+1:]...)
			return s.Save(cfg)
		}
	}
	return fmt.Errorf("app %q not found", name)
}
