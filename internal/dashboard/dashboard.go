// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package dashboard renders a static HTML status document from the
// normalized registry plus detected URL prefixes.
package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/lifecycle"
)

// Prefixes are the three URL prefixes an app may be reachable under.
type Prefixes struct {
	Local    string
	Public   string
	Hostname string
}

// Page is the template input.
type Page struct {
	Title    string
	Prefixes Prefixes
	Apps     []AppRow
}

// AppRow is one application on the dashboard.
type AppRow struct {
	Name        string
	Type        string
	State       string
	LocalURL    string
	PublicURL   string
	HostnameURL string
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, sans-serif; margin: 2rem; background: #fafafa; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; width: 100%; background: #fff; }
  th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #e0e0e0; }
  th { background: #f0f0f0; }
  .state-running { color: #1a7f37; font-weight: 600; }
  .state-stopped { color: #b35900; }
  .state-unknown { color: #888; font-style: italic; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><th>Application</th><th>Type</th><th>State</th><th>Local</th><th>Network</th><th>Hostname</th></tr>
{{range .Apps}}<tr>
<td>{{.Name}}</td>
<td>{{.Type}}</td>
<td class="state-{{.State}}">{{.State}}</td>
<td>{{if .LocalURL}}<a href="{{.LocalURL}}">{{.LocalURL}}</a>{{else}}&mdash;{{end}}</td>
<td>{{if .PublicURL}}<a href="{{.PublicURL}}">{{.PublicURL}}</a>{{else}}&mdash;{{end}}</td>
<td>{{if .HostnameURL}}<a href="{{.HostnameURL}}">{{.HostnameURL}}</a>{{else}}&mdash;{{end}}</td>
</tr>{{end}}
</table>
</body>
</html>
`))

// Renderer produces the dashboard document.
type Renderer struct {
	title string
}

// NewRenderer creates a renderer with the given page title.
func NewRenderer(title string) *Renderer {
	if title == "" {
		title = "Applications"
	}
	return &Renderer{title: title}
}

// Render writes the dashboard HTML for the given apps and statuses.
func (r *Renderer) Render(w io.Writer, apps []config.AppConfig, statuses []lifecycle.AppStatus, prefixes Prefixes) error {
	states := make(map[string]string, len(statuses))
	for _, st := range statuses {
		states[st.Name] = st.State.String()
	}

	page := Page{Title: r.title, Prefixes: prefixes}
	for _, app := range apps {
		row := AppRow{
			Name:  app.Name,
			Type:  string(app.AppType()),
			State: states[app.Name],
		}
		if row.State == "" {
			row.State = lifecycle.StateUnknown.String()
		}
		if app.HasPort() {
			row.LocalURL = appURL(prefixes.Local, app)
			row.PublicURL = appURL(prefixes.Public, app)
			row.HostnameURL = appURL(prefixes.Hostname, app)
		}
		page.Apps = append(page.Apps, row)
	}

	return pageTemplate.Execute(w, page)
}

// WriteFile renders the dashboard to path atomically.
func (r *Renderer) WriteFile(path string, apps []config.AppConfig, statuses []lifecycle.AppStatus, prefixes Prefixes) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}

	if err := r.Render(f, apps, statuses, prefixes); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("render dashboard: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write dashboard: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename dashboard: %w", err)
	}
	return nil
}

// appURL joins a detected prefix with the app's port and base path.
func appURL(prefix string, app config.AppConfig) string {
	if prefix == "" {
		return ""
	}
	url := prefix + ":" + strconv.Itoa(app.Port)
	if app.BasePath != "" {
		url += app.BasePath
	}
	return url
}
