// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wingedpig/arbor/internal/config"
	"github.com/wingedpig/arbor/internal/pyenv"
)

// ErrUnsupportedType is returned when a descriptor has neither a recognized
// framework type nor a usable custom command.
var ErrUnsupportedType = errors.New("unsupported application type")

// djangoManageScript is the conventional Django management entry point.
const djangoManageScript = "manage.py"

// ScriptFinder locates conventional entry scripts under an app directory.
// *pyenv.Resolver satisfies it.
type ScriptFinder interface {
	FindEntryScript(dir, name string) (string, error)
}

// Synthesizer builds run commands from descriptors and resolved environments.
type Synthesizer struct {
	finder ScriptFinder
}

// NewSynthesizer creates a synthesizer using the given script finder.
func NewSynthesizer(finder ScriptFinder) *Synthesizer {
	return &Synthesizer{finder: finder}
}

// Synthesize maps a descriptor plus its resolved environment to a run
// command. The activation/runner prefix is orthogonal to the per-type rules:
// it is applied once at the end, to whichever branch produced the base
// command.
func (s *Synthesizer) Synthesize(app config.AppConfig, env pyenv.Env) (*Command, error) {
	var cmd *Command
	var err error

	switch app.AppType() {
	case config.TypeStreamlit:
		cmd = s.streamlit(app)
	case config.TypeDjango:
		cmd, err = s.django(app)
	case config.TypeDash:
		cmd = s.dash(app)
	case config.TypeFlask:
		cmd = s.flask(app)
	case config.TypeCustom:
		cmd, err = s.custom(app)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedType, app.Type)
	}
	if err != nil {
		return nil, err
	}

	cmd.Dir = app.AppPath

	switch env.PackageManager {
	case pyenv.ManagerUV:
		cmd.UVWrapped = true
	default:
		if env.VenvPath != "" {
			cmd.ActivateScript = env.VenvPath + "/bin/activate"
		}
	}

	return cmd, nil
}

func (s *Synthesizer) streamlit(app config.AppConfig) *Command {
	args := []string{"run", app.IndexPath}
	if app.HasPort() {
		args = append(args, "--server.port", strconv.Itoa(app.Port))
	}
	if app.BasePath != "" {
		args = append(args, "--server.baseUrlPath", app.BasePath)
	}
	return &Command{Program: "streamlit", Args: args}
}

func (s *Synthesizer) django(app config.AppConfig) (*Command, error) {
	manage, err := s.finder.FindEntryScript(app.AppPath, djangoManageScript)
	if err != nil {
		return nil, fmt.Errorf("locate %s under %s: %w", djangoManageScript, app.AppPath, err)
	}

	args := []string{manage}
	if custom := strings.TrimSpace(app.CustomCommand); custom != "" {
		args = append(args, strings.Fields(custom)...)
	} else {
		args = append(args, "runserver")
		if app.HasPort() {
			args = append(args, "0.0.0.0:"+strconv.Itoa(app.Port))
		}
	}
	return &Command{Program: "python", Args: args}, nil
}

func (s *Synthesizer) dash(app config.AppConfig) *Command {
	args := []string{app.IndexPath}
	if app.HasPort() {
		args = append(args, "--server.port", strconv.Itoa(app.Port))
	}
	return &Command{Program: "python", Args: args}
}

func (s *Synthesizer) flask(app config.AppConfig) *Command {
	args := []string{"run"}
	if app.HasPort() {
		args = append(args, "--host=0.0.0.0", "--port", strconv.Itoa(app.Port))
	}
	return &Command{
		Program: "flask",
		Args:    args,
		Env: []EnvVar{
			{Name: "FLASK_APP", Value: app.IndexPath},
			{Name: "FLASK_ENV", Value: "development"},
		},
	}
}

// custom handles descriptors with no recognized framework type. When a
// Django management script is discoverable the custom command is treated as
// a management sub-command; otherwise it runs verbatim.
func (s *Synthesizer) custom(app config.AppConfig) (*Command, error) {
	raw := strings.TrimSpace(app.CustomCommand)
	if raw == "" {
		return nil, fmt.Errorf("%w: %q and no custom command", ErrUnsupportedType, app.Type)
	}

	if app.AppPath != "" {
		if manage, err := s.finder.FindEntryScript(app.AppPath, djangoManageScript); err == nil {
			args := append([]string{manage}, strings.Fields(raw)...)
			return &Command{Program: "python", Args: args}, nil
		}
	}

	return &Command{Raw: raw}, nil
}
