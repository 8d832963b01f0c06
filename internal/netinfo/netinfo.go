// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package netinfo detects URL prefixes for display. Every function degrades
// to a loopback/default fallback on detection failure; none of them return
// errors.
package netinfo

import (
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// FallbackPrefix is returned when detection fails.
const FallbackPrefix = "http://127.0.0.1"

// Detector resolves the URL prefixes shown on the dashboard and in status
// output. The zero value is not usable; use NewDetector.
type Detector struct {
	client *http.Client
	// publicIPEndpoint returns the caller's public IP as plain text.
	publicIPEndpoint string
}

// NewDetector creates a detector with a short-timeout HTTP client.
func NewDetector() *Detector {
	return &Detector{
		client:           &http.Client{Timeout: 3 * time.Second},
		publicIPEndpoint: "https://api.ipify.org",
	}
}

// LocalPrefix returns the LAN-reachable http:// prefix, or the loopback
// fallback.
func (d *Detector) LocalPrefix() string {
	// A UDP dial never sends packets; it just resolves the outbound
	// interface address.
	conn, err := net.Dial("udp", "192.0.2.1:80")
	if err != nil {
		return FallbackPrefix
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsLoopback() {
		return FallbackPrefix
	}
	return "http://" + addr.IP.String()
}

// PublicPrefix returns the externally visible http:// prefix, or the
// loopback fallback when the lookup fails.
func (d *Detector) PublicPrefix() string {
	resp, err := d.client.Get(d.publicIPEndpoint)
	if err != nil {
		return FallbackPrefix
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FallbackPrefix
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return FallbackPrefix
	}

	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return FallbackPrefix
	}
	return "http://" + ip
}

// HostnamePrefix returns an http:// prefix built from the machine hostname,
// or the loopback fallback.
func (d *Detector) HostnamePrefix() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return FallbackPrefix
	}
	return "http://" + hostname
}
