// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
)

// escapeHJSONValue escapes a string for safe inclusion in an HJSON
// double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// GenerateTemplate produces a commented arbor.hjson document for the given
// project and apps. Used by "arbor init" and for the shipped example file.
func GenerateTemplate(projectName string, apps []AppConfig) string {
	var sb strings.Builder

	sb.WriteString(`{
  // ===========================================================================
  // Arbor Configuration
  // ===========================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).
  // Arbor also accepts arbor.json and arbor.yaml.

  version: "1"

  project: {
`)
	sb.WriteString(fmt.Sprintf("    name: \"%s\"\n", escapeHJSONValue(projectName)))
	sb.WriteString(`  }

  // Optional status server ("arbor -serve"). Serves the dashboard and a
  // JSON API for the registered applications.
  server: {
    host: "127.0.0.1"
    port: 2811
  }

  // Terminal session backend. Leave backend empty to auto-detect:
  // tmux first, then zellij, then a graphical terminal emulator.
  session: {
    backend: ""
    session_name: "arbor"
  }

  launch: {
    // Pause between launches when starting several apps at once.
    start_delay: "500ms"
    // Skip the confirmation prompt before freeing an occupied port.
    auto_confirm: false
    // How long a stop waits for a freed port to actually release.
    port_wait_timeout: "10s"
  }

  // Registered applications. Supported types: streamlit, django, dash,
  // flask. Entries with any other type need a custom_command.
  apps: [
`)

	for _, app := range apps {
		sb.WriteString("    {\n")
		sb.WriteString(fmt.Sprintf("      name: \"%s\"\n", escapeHJSONValue(app.Name)))
		if app.Type != "" {
			sb.WriteString(fmt.Sprintf("      type: \"%s\"\n", escapeHJSONValue(app.Type)))
		}
		if app.AppPath != "" {
			sb.WriteString(fmt.Sprintf("      app_path: \"%s\"\n", escapeHJSONValue(app.AppPath)))
		}
		if app.IndexPath != "" {
			sb.WriteString(fmt.Sprintf("      index_path: \"%s\"\n", escapeHJSONValue(app.IndexPath)))
		}
		if app.Port != 0 {
			sb.WriteString(fmt.Sprintf("      port: %d\n", app.Port))
		}
		if app.BasePath != "" {
			sb.WriteString(fmt.Sprintf("      base_path: \"%s\"\n", escapeHJSONValue(app.BasePath)))
		}
		if app.CustomCommand != "" {
			sb.WriteString(fmt.Sprintf("      custom_command: \"%s\"\n", escapeHJSONValue(app.CustomCommand)))
		}
		sb.WriteString("    }\n")
	}

	if len(apps) == 0 {
		sb.WriteString(`    // {
    //   name: "demo"
    //   type: "streamlit"
    //   app_path: "/home/user/apps/demo"
    //   index_path: "app.py"
    //   port: 8501
    // }
`)
	}

	sb.WriteString(`  ]
}
`)

	return sb.String()
}
