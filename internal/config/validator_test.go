// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Version: "1",
		Project: ProjectConfig{Name: "test"},
		Apps: []AppConfig{
			{Name: "sales", Type: "streamlit", AppPath: "/srv/sales", Port: 8501},
			{Name: "crm", Type: "django", AppPath: "/srv/crm", Port: 8000},
		},
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(validConfig()))
}

func fieldErrors(t *testing.T, cfg *Config) []FieldError {
	t.Helper()

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Errors
}

func hasField(errs []FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestValidator_AccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 99999
	cfg.Session.Backend = "screen"
	cfg.Apps[0].Name = ""
	cfg.Apps[1].BasePath = "crm"

	errs := fieldErrors(t, cfg)

	assert.True(t, hasField(errs, "server.port"))
	assert.True(t, hasField(errs, "session.backend"))
	assert.True(t, hasField(errs, "apps[0].name"))
	assert.True(t, hasField(errs, "apps[1].base_path"))
}

func TestValidator_DuplicateNamesCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Apps[1].Name = "SALES"

	errs := fieldErrors(t, cfg)
	assert.True(t, hasField(errs, "apps[1].name"))
}

func TestValidator_UnsupportedTypeNeedsCustomCommand(t *testing.T) {
	cfg := validConfig()
	cfg.Apps = append(cfg.Apps, AppConfig{Name: "worker", Type: "rails", AppPath: "/srv/worker"})

	errs := fieldErrors(t, cfg)
	assert.True(t, hasField(errs, "apps[2].type"))

	cfg.Apps[2].CustomCommand = "bin/rails s"
	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestValidator_FrameworkRequiresAppPath(t *testing.T) {
	cfg := validConfig()
	cfg.Apps[0].AppPath = ""

	errs := fieldErrors(t, cfg)
	assert.True(t, hasField(errs, "apps[0].app_path"))
}

func TestValidator_PackageManager(t *testing.T) {
	cfg := validConfig()
	cfg.Apps[0].PackageManager = "poetry"

	errs := fieldErrors(t, cfg)
	assert.True(t, hasField(errs, "apps[0].package_manager"))

	cfg.Apps[0].PackageManager = "uv"
	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestValidator_Durations(t *testing.T) {
	cfg := validConfig()
	cfg.Launch.StartDelay = "half a second"
	cfg.Watch.Debounce = "250ms"

	errs := fieldErrors(t, cfg)
	assert.True(t, hasField(errs, "launch.start_delay"))
	assert.False(t, hasField(errs, "watch.debounce"))
}
