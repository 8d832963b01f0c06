// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/events"
	"github.com/wingedpig/arbor/internal/lifecycle"
	"github.com/wingedpig/arbor/internal/port"
	"github.com/wingedpig/arbor/internal/pyenv"
	"github.com/wingedpig/arbor/internal/registry"
	"github.com/wingedpig/arbor/internal/session"
)

// fakeBackend records opened windows.
type fakeBackend struct {
	opened []string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) OpenWindow(ctx context.Context, name, workdir, command string) error {
	b.opened = append(b.opened, name)
	return nil
}

func (b *fakeBackend) List(ctx context.Context) ([]session.WindowState, error) { return nil, nil }

func (b *fakeBackend) Kill(ctx context.Context, name string) (bool, error) { return false, nil }

func (b *fakeBackend) SendInterrupt(ctx context.Context, name string) (bool, error) {
	return false, session.ErrUnsupported
}

func (b *fakeBackend) AttachCommand() []string { return nil }

// probeExecutor simulates lsof with a fixed set of occupied ports.
type probeExecutor struct {
	occupied map[int]bool
}

func (e *probeExecutor) LookPath(file string) (string, error) {
	if file == "lsof" {
		return "/usr/bin/lsof", nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (e *probeExecutor) Output(ctx context.Context, name string, args ...string) (string, error) {
	for _, arg := range args {
		for p, occ := range e.occupied {
			if occ && strings.Contains(arg, ":"+strconv.Itoa(p)) {
				return "999999999\n", nil
			}
		}
	}
	return "", nil
}

func testManager(t *testing.T, occupied map[int]bool) *lifecycle.Manager {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("# app"), 0644))

	apps := []config.AppConfig{
		{Name: "sales", Type: "streamlit", AppPath: dir, IndexPath: "app.py", Port: 8501},
		{Name: "api", Type: "flask", AppPath: dir, IndexPath: "app.py", Port: 5000},
	}
	reg, dropped := registry.Normalize(apps)
	require.Empty(t, dropped)

	resolver := &pyenv.Resolver{LookPath: func(string) (string, error) {
		return "", errors.New("not installed")
	}}
	return lifecycle.NewManager(reg, &fakeBackend{}, port.NewProberWithExecutor(&probeExecutor{occupied: occupied}), resolver, nil, lifecycle.Options{
		StartDelay: time.Millisecond,
	})
}

func testRouter(manager *lifecycle.Manager) *mux.Router {
	r := mux.NewRouter()
	h := NewAppHandler(manager)
	r.HandleFunc("/api/v1/apps", h.List).Methods("GET")
	r.HandleFunc("/api/v1/apps/stop", h.StopAll).Methods("POST")
	r.HandleFunc("/api/v1/apps/{name}", h.Get).Methods("GET")
	r.HandleFunc("/api/v1/apps/{name}/start", h.Start).Methods("POST")
	r.HandleFunc("/api/v1/apps/{name}/stop", h.Stop).Methods("POST")
	r.HandleFunc("/api/v1/apps/{name}/restart", h.Restart).Methods("POST")
	return r
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()

	var wrapper struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorInfo      `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wrapper))
	require.Nil(t, wrapper.Error)
	require.NoError(t, json.Unmarshal(wrapper.Data, out))
}

func TestAppHandler_List(t *testing.T) {
	srv := httptest.NewServer(testRouter(testManager(t, map[int]bool{8501: true})))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/apps")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	decodeData(t, resp, &statuses)

	require.Len(t, statuses, 2)
	assert.Equal(t, "sales", statuses[0].Name)
	assert.Equal(t, "running", statuses[0].State)
	assert.Equal(t, "stopped", statuses[1].State)
}

func TestAppHandler_Get(t *testing.T) {
	srv := httptest.NewServer(testRouter(testManager(t, nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/apps/sales")
	require.NoError(t, err)

	var status struct {
		Name string `json:"name"`
		Port int    `json:"port"`
	}
	decodeData(t, resp, &status)
	assert.Equal(t, "sales", status.Name)
	assert.Equal(t, 8501, status.Port)
}

func TestAppHandler_Get_NotFound(t *testing.T) {
	srv := httptest.NewServer(testRouter(testManager(t, nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/apps/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var wrapper struct {
		Error *ErrorInfo `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wrapper))
	require.NotNil(t, wrapper.Error)
	assert.Equal(t, ErrNotFound, wrapper.Error.Code)
}

func TestAppHandler_StartStop(t *testing.T) {
	srv := httptest.NewServer(testRouter(testManager(t, nil)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/apps/sales/start", "application/json", nil)
	require.NoError(t, err)

	var result struct {
		App   string `json:"app"`
		Error string `json:"error"`
	}
	decodeData(t, resp, &result)
	assert.Equal(t, "sales", result.App)
	assert.Empty(t, result.Error)

	// Port still free from the prober's view: stop is an informational no-op
	resp, err = http.Post(srv.URL+"/api/v1/apps/sales/stop", "application/json", nil)
	require.NoError(t, err)

	var stopResult struct {
		Info string `json:"info"`
	}
	decodeData(t, resp, &stopResult)
	assert.Contains(t, stopResult.Info, "already stopped")
}

func TestAppHandler_StopAll(t *testing.T) {
	srv := httptest.NewServer(testRouter(testManager(t, nil)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/apps/stop", "application/json", nil)
	require.NoError(t, err)

	var results []struct {
		App string `json:"app"`
	}
	decodeData(t, resp, &results)
	assert.Len(t, results, 2)
}

func TestEventHandler_History(t *testing.T) {
	bus := events.NewMemoryEventBus(events.MemoryBusConfig{})
	defer bus.Close()

	for i := 0; i < 3; i++ {
		bus.Publish(context.Background(), events.Event{Type: events.EventAppStarted, App: "sales"})
	}

	r := mux.NewRouter()
	h := NewEventHandler(bus)
	r.HandleFunc("/api/v1/events", h.History).Methods("GET")
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/events?limit=2")
	require.NoError(t, err)

	var history []events.Event
	decodeData(t, resp, &history)
	assert.Len(t, history, 2)
}
