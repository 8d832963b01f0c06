// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// EventClient provides access to the lifecycle event history.
//
// Access this client through [Client.Events]. For live events, connect a
// websocket client to /api/v1/events/ws instead.
type EventClient struct {
	c *Client
}

// History returns up to limit recent events, oldest first. A limit of 0
// returns the server's full retained history.
func (e *EventClient) History(ctx context.Context, limit int) ([]Event, error) {
	path := "/api/v1/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	data, err := e.c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return events, nil
}
