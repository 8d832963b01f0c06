// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmulatorRunner records launches instead of starting processes.
type mockEmulatorRunner struct {
	installed []string
	started   [][]string
}

func (m *mockEmulatorRunner) LookPath(file string) (string, error) {
	for _, p := range m.installed {
		if p == file {
			return "/usr/bin/" + file, nil
		}
	}
	return "", errors.New("not found")
}

func (m *mockEmulatorRunner) Start(ctx context.Context, program string, args ...string) error {
	m.started = append(m.started, append([]string{program}, args...))
	return nil
}

func TestHaveEmulator(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin probes osascript")
	}

	assert.False(t, HaveEmulator(&mockEmulatorRunner{}))
	assert.True(t, HaveEmulator(&mockEmulatorRunner{installed: []string{"xterm"}}))
	assert.True(t, HaveEmulator(&mockEmulatorRunner{installed: []string{"gnome-terminal"}}))
}

func TestEmulatorBackend_OpenWindow_UsesFirstInstalled(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin uses osascript")
	}

	runner := &mockEmulatorRunner{installed: []string{"xfce4-terminal", "xterm"}}
	b := NewEmulatorBackend(runner)

	require.NoError(t, b.OpenWindow(context.Background(), "sales", "/srv/sales", "streamlit run app.py"))

	require.Len(t, runner.started, 1)
	argv := runner.started[0]
	assert.Equal(t, "xfce4-terminal", argv[0])
	assert.Contains(t, argv, "--title")
	assert.Contains(t, argv, "sales")
	assert.Contains(t, argv, "streamlit run app.py; exec bash")
}

func TestEmulatorBackend_OpenWindow_QuotesWorkdir(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin uses osascript")
	}

	runner := &mockEmulatorRunner{installed: []string{"xterm"}}
	b := NewEmulatorBackend(runner)

	require.NoError(t, b.OpenWindow(context.Background(), "sales", "/srv/my apps/sales", "streamlit run app.py"))

	require.Len(t, runner.started, 1)
	assert.Contains(t, runner.started[0], "cd '/srv/my apps/sales' && streamlit run app.py; exec sh")
}

func TestShellLine(t *testing.T) {
	assert.Equal(t, "cmd", shellLine("", "cmd"))
	assert.Equal(t, "cd '/srv/a b' && cmd", shellLine("/srv/a b", "cmd"))
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"cd '/srv' && echo \"hi\""`, appleScriptString(`cd '/srv' && echo "hi"`))
}

func TestEmulatorBackend_OpenWindow_NoEmulator(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin uses osascript")
	}

	b := NewEmulatorBackend(&mockEmulatorRunner{})
	err := b.OpenWindow(context.Background(), "sales", "/srv", "cmd")
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestEmulatorBackend_List(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin uses osascript")
	}

	runner := &mockEmulatorRunner{installed: []string{"xterm"}}
	b := NewEmulatorBackend(runner)
	ctx := context.Background()

	states, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	require.NoError(t, b.OpenWindow(ctx, "sales", "/srv", "cmd"))
	require.NoError(t, b.OpenWindow(ctx, "my crm", "/srv", "cmd"))

	states, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "my_crm", states[1].Name)
}

func TestEmulatorBackend_Unsupported(t *testing.T) {
	b := NewEmulatorBackend(&mockEmulatorRunner{})

	killed, err := b.Kill(context.Background(), "sales")
	assert.False(t, killed)
	assert.ErrorIs(t, err, ErrUnsupported)

	sent, err := b.SendInterrupt(context.Background(), "sales")
	assert.False(t, sent)
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Nil(t, b.AttachCommand())
}
