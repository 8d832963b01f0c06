// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// AppClient provides access to application lifecycle operations.
//
// Access this client through [Client.Apps]:
//
//	apps, err := c.Apps.List(ctx)
type AppClient struct {
	c *Client
}

// List returns every registered application with its derived status.
func (a *AppClient) List(ctx context.Context) ([]AppStatus, error) {
	data, err := a.c.get(ctx, "/api/v1/apps")
	if err != nil {
		return nil, err
	}

	var apps []AppStatus
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("failed to parse apps: %w", err)
	}
	return apps, nil
}

// Get returns the status of one application by name. The lookup is
// case-insensitive.
func (a *AppClient) Get(ctx context.Context, name string) (*AppStatus, error) {
	data, err := a.c.get(ctx, "/api/v1/apps/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}

	var app AppStatus
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("failed to parse app: %w", err)
	}
	return &app, nil
}

// Start launches one application in a terminal session on the server.
func (a *AppClient) Start(ctx context.Context, name string) (*OpResult, error) {
	return a.op(ctx, name, "start")
}

// Stop stops one application by freeing its port. Stopping an
// already-stopped application is a successful no-op.
func (a *AppClient) Stop(ctx context.Context, name string) (*OpResult, error) {
	return a.op(ctx, name, "stop")
}

// Restart stops then starts one application.
func (a *AppClient) Restart(ctx context.Context, name string) ([]OpResult, error) {
	data, err := a.c.post(ctx, "/api/v1/apps/"+url.PathEscape(name)+"/restart")
	if err != nil {
		return nil, err
	}

	var results []OpResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return results, nil
}

// StopAll stops every registered application, returning one result per app.
func (a *AppClient) StopAll(ctx context.Context) ([]OpResult, error) {
	data, err := a.c.post(ctx, "/api/v1/apps/stop")
	if err != nil {
		return nil, err
	}

	var results []OpResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return results, nil
}

func (a *AppClient) op(ctx context.Context, name, verb string) (*OpResult, error) {
	data, err := a.c.post(ctx, "/api/v1/apps/"+url.PathEscape(name)+"/"+verb)
	if err != nil {
		return nil, err
	}

	var result OpResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &result, nil
}
