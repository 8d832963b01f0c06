// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client for the arbor status API.
//
// Arbor manages locally installed web applications and launches them in
// terminal sessions. When the status server is running ("arbor -serve"),
// this client gives typed access to its endpoints:
//
//	c := client.New("http://localhost:2811")
//
//	// List every registered application with derived status
//	apps, err := c.Apps.List(ctx)
//
//	// Start one application
//	res, err := c.Apps.Start(ctx, "sales-report")
//
//	// Recent lifecycle events
//	events, err := c.Events.History(ctx, 50)
//
// All methods accept a context.Context for cancellation and timeouts.
// API errors are returned as *APIError values carrying an error code and
// message.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an arbor API client. It is safe for concurrent use by multiple
// goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Apps provides access to application lifecycle operations.
	Apps *AppClient

	// Events provides access to the lifecycle event history.
	Events *EventClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a client for the arbor server at baseURL (e.g.
// "http://localhost:2811"). A trailing slash is removed. The default HTTP
// timeout is 30 seconds.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Apps = &AppClient{c: c}
	c.Events = &EventClient{c: c}

	return c
}

// WithHTTPClient sets a custom HTTP client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout for all requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiResponse is the standard API response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// APIError represents an error response from the arbor API, with a
// machine-readable Code ("NOT_FOUND", "APP_ERROR", ...) and a
// human-readable Message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// get performs a GET request to the given path.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path)
}

// post performs a POST request to the given path with no body.
func (c *Client) post(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path)
}

// do performs an HTTP request and parses the response envelope.
func (c *Client) do(ctx context.Context, method, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		// Non-envelope response (e.g. the dashboard page)
		return respBody, nil
	}

	if apiResp.Error != nil {
		return nil, apiResp.Error
	}

	return apiResp.Data, nil
}
