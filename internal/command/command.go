// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package command synthesizes run commands for registered applications.
//
// A synthesized command is a structured value: program, ordered argument
// list, environment overrides, working directory and an optional activation
// prefix. It is serialized to a single shell string only at the session
// backend boundary, which keeps quoting in one place.
package command

import (
	"strings"
)

// EnvVar is a single environment override. Order is preserved.
type EnvVar struct {
	Name  string
	Value string
}

// Command is a synthesized, structured run command.
type Command struct {
	// Program and Args form the invocation. Empty Program with a non-empty
	// Raw means the command runs verbatim.
	Program string
	Args    []string
	// Raw is a verbatim shell command (custom apps). Mutually exclusive
	// with Program.
	Raw string
	// Env overrides are exported ahead of the invocation.
	Env []EnvVar
	// Dir is the working directory the session backend opens in.
	Dir string
	// ActivateScript, when set, is sourced before the invocation
	// (virtualenv activation for pip-managed apps).
	ActivateScript string
	// UVWrapped prefixes the invocation with "uv run" instead of a
	// virtualenv activation.
	UVWrapped bool
}

// Shell serializes the command to a single invocable string. The working
// directory is intentionally excluded: backends set it when opening the
// session.
func (c *Command) Shell() string {
	var parts []string

	for _, ev := range c.Env {
		parts = append(parts, "export "+ev.Name+"="+shellQuote(ev.Value)+" &&")
	}

	if c.ActivateScript != "" {
		parts = append(parts, "source "+shellQuote(c.ActivateScript), "&&")
	}

	var invocation []string
	if c.UVWrapped {
		invocation = append(invocation, "uv", "run")
	}
	if c.Raw != "" {
		invocation = append(invocation, c.Raw)
	} else {
		invocation = append(invocation, shellQuote(c.Program))
		for _, arg := range c.Args {
			invocation = append(invocation, shellQuote(arg))
		}
	}

	parts = append(parts, strings.Join(invocation, " "))
	return strings.Join(parts, " ")
}

// shellQuote quotes s for POSIX shells when it contains characters that
// would otherwise be interpreted, plus path separators so filesystem
// arguments always appear quoted. Plain words pass through untouched.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$&|;<>()*?[]#~%{}\\!/") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
