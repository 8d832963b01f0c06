// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/arbor/internal/config"
)

func testApps() []config.AppConfig {
	return []config.AppConfig{
		{Name: "sales", Type: "streamlit", AppPath: "/srv/sales", Port: 8501},
		{Name: "crm", Type: "django", AppPath: "/srv/crm", Port: 8000},
		{Name: "board", Type: "dash", AppPath: "/srv/board", Port: 8050},
		{Name: "api", Type: "flask", AppPath: "/srv/api", Port: 5000},
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, dropped := Normalize(testApps())
	require.Empty(t, dropped)
	return reg
}

func TestNormalize_DropsUnsupported(t *testing.T) {
	apps := append(testApps(), config.AppConfig{Name: "legacy", Type: "rails", AppPath: "/srv/legacy"})

	reg, dropped := Normalize(apps)

	assert.Equal(t, 4, reg.Len())
	require.Len(t, dropped, 1)
	assert.Equal(t, "legacy", dropped[0].App.Name)
	assert.Contains(t, dropped[0].Reason, "unsupported type")
}

func TestNormalize_KeepsCustomCommandEntries(t *testing.T) {
	apps := []config.AppConfig{{Name: "worker", Type: "script", CustomCommand: "python worker.py"}}

	reg, dropped := Normalize(apps)

	assert.Empty(t, dropped)
	assert.Equal(t, 1, reg.Len())
}

func TestNormalize_DeduplicatesCaseInsensitive(t *testing.T) {
	apps := testApps()
	apps = append(apps, config.AppConfig{Name: "SALES", Type: "flask", AppPath: "/srv/other", Port: 5001})

	reg, dropped := Normalize(apps)

	assert.Equal(t, 4, reg.Len())
	require.Len(t, dropped, 1)
	assert.Contains(t, dropped[0].Reason, "duplicate name")

	// First occurrence wins
	app, ok := reg.Get("sales")
	require.True(t, ok)
	assert.Equal(t, 8501, app.Port)
}

func TestNormalize_DropsDisabled(t *testing.T) {
	disabled := true
	apps := testApps()
	apps[1].Disabled = &disabled

	reg, dropped := Normalize(apps)

	assert.Equal(t, 3, reg.Len())
	require.Len(t, dropped, 1)
	assert.Equal(t, "crm", dropped[0].App.Name)
	assert.Equal(t, "disabled", dropped[0].Reason)
}

func TestNormalize_PreservesOrder(t *testing.T) {
	reg := testRegistry(t)

	names := make([]string, 0, reg.Len())
	for _, app := range reg.Apps() {
		names = append(names, app.Name)
	}
	assert.Equal(t, []string{"sales", "crm", "board", "api"}, names)
}

func TestResolve_Index(t *testing.T) {
	reg := testRegistry(t)

	apps, err := reg.Resolve("2")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "crm", apps[0].Name)
}

func TestResolve_All(t *testing.T) {
	reg := testRegistry(t)

	for _, token := range []string{"all", "ALL", "0"} {
		apps, err := reg.Resolve(token)
		require.NoError(t, err)
		assert.Len(t, apps, 4, "token %q", token)
	}
}

func TestResolve_NameCaseInsensitive(t *testing.T) {
	reg := testRegistry(t)

	apps, err := reg.Resolve("Board")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "board", apps[0].Name)
}

func TestResolve_Misses(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Resolve("5")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = reg.Resolve("nope")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = reg.Resolve("")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveMany_MixedTokens(t *testing.T) {
	reg := testRegistry(t)

	apps, warnings := reg.ResolveMany("1, board")
	assert.Empty(t, warnings)
	require.Len(t, apps, 2)
	assert.Equal(t, "sales", apps[0].Name)
	assert.Equal(t, "board", apps[1].Name)
}

func TestResolveMany_Range(t *testing.T) {
	reg := testRegistry(t)

	apps, warnings := reg.ResolveMany("2-4")
	assert.Empty(t, warnings)
	require.Len(t, apps, 3)
	assert.Equal(t, "crm", apps[0].Name)
	assert.Equal(t, "api", apps[2].Name)
}

func TestResolveMany_MissWarnsAndContinues(t *testing.T) {
	reg := testRegistry(t)

	apps, warnings := reg.ResolveMany("sales, nope, 9")
	require.Len(t, apps, 1)
	assert.Equal(t, "sales", apps[0].Name)
	assert.Len(t, warnings, 2)
}

func TestResolveMany_CollapsesDuplicates(t *testing.T) {
	reg := testRegistry(t)

	apps, warnings := reg.ResolveMany("1 sales SALES")
	assert.Empty(t, warnings)
	assert.Len(t, apps, 1)
}
