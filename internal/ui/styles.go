// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ui holds terminal output styling for the interactive CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorMode controls whether styled output is emitted.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Styles groups the render styles used by the CLI.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Running lipgloss.Style
	Stopped lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Prompt  lipgloss.Style
}

// NewStyles builds the style set for the given color mode. In never
// mode (or auto mode without a terminal) all styles render plain text.
func NewStyles(mode ColorMode) Styles {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorNever:
		enabled = false
	default:
		enabled = term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}

	if !enabled {
		plain := lipgloss.NewStyle()
		return Styles{
			Title: plain, Header: plain, Running: plain, Stopped: plain,
			Warn: plain, Error: plain, Muted: plain, Prompt: plain,
		}
	}

	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Stopped: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	}
}

// State renders an application state string with its matching style.
func (s Styles) State(state string) string {
	switch state {
	case "running":
		return s.Running.Render(state)
	case "stopped":
		return s.Stopped.Render(state)
	default:
		return s.Muted.Render(state)
	}
}
