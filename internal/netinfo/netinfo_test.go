// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package netinfo

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testDetector(endpoint string) *Detector {
	return &Detector{
		client:           &http.Client{Timeout: time.Second},
		publicIPEndpoint: endpoint,
	}
}

func TestPublicPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	assert.Equal(t, "http://203.0.113.7", testDetector(srv.URL).PublicPrefix())
}

func TestPublicPrefix_FallsBackOnGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an ip</html>"))
	}))
	defer srv.Close()

	assert.Equal(t, FallbackPrefix, testDetector(srv.URL).PublicPrefix())
}

func TestPublicPrefix_FallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Equal(t, FallbackPrefix, testDetector(srv.URL).PublicPrefix())

	// Unreachable endpoint also degrades, never errors
	assert.Equal(t, FallbackPrefix, testDetector("http://127.0.0.1:1").PublicPrefix())
}

func TestLocalPrefix_AlwaysHTTPPrefixed(t *testing.T) {
	prefix := NewDetector().LocalPrefix()
	assert.True(t, strings.HasPrefix(prefix, "http://"), "got %q", prefix)
}

func TestHostnamePrefix_AlwaysHTTPPrefixed(t *testing.T) {
	prefix := NewDetector().HostnamePrefix()
	assert.True(t, strings.HasPrefix(prefix, "http://"), "got %q", prefix)
}
