// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTmuxExecutor records tmux commands instead of running them.
type mockTmuxExecutor struct {
	sessions map[string]bool
	windows  map[string][]WindowInfo
	sent     []sentKeys
	killed   []string
	failNew  bool
}

type sentKeys struct {
	target  string
	keys    string
	literal bool
}

func newMockTmux() *mockTmuxExecutor {
	return &mockTmuxExecutor{
		sessions: make(map[string]bool),
		windows:  make(map[string][]WindowInfo),
	}
}

func (m *mockTmuxExecutor) HasSession(ctx context.Context, session string) bool {
	return m.sessions[session]
}

func (m *mockTmuxExecutor) NewSession(ctx context.Context, session, workdir string) error {
	if m.failNew {
		return errors.New("tmux new-session failed")
	}
	m.sessions[session] = true
	return nil
}

func (m *mockTmuxExecutor) NewWindow(ctx context.Context, session, window, workdir string) error {
	m.windows[session] = append(m.windows[session], WindowInfo{Index: len(m.windows[session]), Name: window})
	return nil
}

func (m *mockTmuxExecutor) KillWindow(ctx context.Context, session, window string) error {
	m.killed = append(m.killed, window)
	wins := m.windows[session][:0]
	for _, w := range m.windows[session] {
		if w.Name != window {
			wins = append(wins, w)
		}
	}
	m.windows[session] = wins
	return nil
}

func (m *mockTmuxExecutor) ListWindows(ctx context.Context, session string) ([]WindowInfo, error) {
	return m.windows[session], nil
}

func (m *mockTmuxExecutor) SendKeys(ctx context.Context, target, keys string, literal bool) error {
	m.sent = append(m.sent, sentKeys{target: target, keys: keys, literal: literal})
	return nil
}

func TestTmuxBackend_OpenWindow_CreatesSessionOnce(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)
	ctx := context.Background()

	require.NoError(t, b.OpenWindow(ctx, "sales", "/srv/sales", "streamlit run app.py"))
	require.NoError(t, b.OpenWindow(ctx, "crm", "/srv/crm", "python manage.py runserver"))

	assert.True(t, exec.sessions["arbor"])
	require.Len(t, exec.windows["arbor"], 2)
	assert.Equal(t, "sales", exec.windows["arbor"][0].Name)
}

func TestTmuxBackend_OpenWindow_DeliversCommandThenEnter(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)

	require.NoError(t, b.OpenWindow(context.Background(), "sales", "/srv/sales", "streamlit run app.py"))

	require.Len(t, exec.sent, 2)
	assert.Equal(t, sentKeys{target: "arbor:sales", keys: "streamlit run app.py", literal: true}, exec.sent[0])
	assert.Equal(t, sentKeys{target: "arbor:sales", keys: "Enter", literal: false}, exec.sent[1])
}

func TestTmuxBackend_OpenWindow_ReuseSkipsSessionCreation(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "outer", true)

	require.NoError(t, b.OpenWindow(context.Background(), "sales", "", "cmd"))
	assert.False(t, exec.sessions["outer"])
	assert.Len(t, exec.windows["outer"], 1)
}

func TestTmuxBackend_OpenWindow_SanitizesName(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)

	require.NoError(t, b.OpenWindow(context.Background(), "my app:v2.1", "", "cmd"))
	assert.Equal(t, "my_app_v2_1", exec.windows["arbor"][0].Name)
}

func TestTmuxBackend_OpenWindow_SessionFailure(t *testing.T) {
	exec := newMockTmux()
	exec.failNew = true
	b := NewTmuxBackend(exec, "arbor", false)

	err := b.OpenWindow(context.Background(), "sales", "", "cmd")
	assert.ErrorContains(t, err, "open session")
}

func TestTmuxBackend_List(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)
	ctx := context.Background()

	states, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	require.NoError(t, b.OpenWindow(ctx, "sales", "", "cmd"))
	states, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, WindowState{Name: "sales", Alive: true}, states[0])
}

func TestTmuxBackend_Kill(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)
	ctx := context.Background()

	require.NoError(t, b.OpenWindow(ctx, "sales", "", "cmd"))

	killed, err := b.Kill(ctx, "sales")
	require.NoError(t, err)
	assert.True(t, killed)

	// Killing a missing window is a no-op, not an error
	killed, err = b.Kill(ctx, "sales")
	require.NoError(t, err)
	assert.False(t, killed)
}

func TestTmuxBackend_SendInterrupt(t *testing.T) {
	exec := newMockTmux()
	b := NewTmuxBackend(exec, "arbor", false)
	ctx := context.Background()

	require.NoError(t, b.OpenWindow(ctx, "sales", "", "cmd"))
	exec.sent = nil

	sent, err := b.SendInterrupt(ctx, "sales")
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, exec.sent, 1)
	assert.Equal(t, "C-c", exec.sent[0].keys)
	assert.False(t, exec.sent[0].literal)
}

func TestTmuxBackend_AttachCommand(t *testing.T) {
	b := NewTmuxBackend(newMockTmux(), "arbor", false)
	assert.Equal(t, []string{"tmux", "attach-session", "-t", "arbor"}, b.AttachCommand())

	reused := NewTmuxBackend(newMockTmux(), "outer", true)
	assert.Nil(t, reused.AttachCommand())
}

func TestParseWindowList(t *testing.T) {
	out := "0: sales\n1: crm*\n\n2: board\n"

	windows := parseWindowList(out)
	require.Len(t, windows, 3)
	assert.Equal(t, WindowInfo{Index: 0, Name: "sales"}, windows[0])
	assert.Equal(t, WindowInfo{Index: 1, Name: "crm", Active: true}, windows[1])
	assert.Equal(t, WindowInfo{Index: 2, Name: "board"}, windows[2])
}

func TestFilterTMUXEnv(t *testing.T) {
	env := []string{"PATH=/usr/bin", "TMUX=/tmp/tmux-0/default,123,0", "HOME=/root"}
	assert.Equal(t, []string{"PATH=/usr/bin", "HOME=/root"}, filterTMUXEnv(env))
}

func TestSanitizeWindowName(t *testing.T) {
	assert.Equal(t, "my_app_v2_1", sanitizeWindowName("my app:v2.1"))
	assert.Equal(t, "plain", sanitizeWindowName("plain"))
}
