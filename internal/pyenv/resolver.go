// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pyenv locates the interpreter environment for an application
// directory: which package manager to use, where its virtualenv lives, and
// where conventional entry scripts are.
package pyenv

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// ErrNotFound is returned when no environment artifact could be located.
var ErrNotFound = errors.New("not found")

// Package managers.
const (
	ManagerPip = "pip"
	ManagerUV  = "uv"
)

// Conventional virtualenv directory names, checked in order before any
// recursive search.
var venvDirNames = []string{".venv", "venv", "env", ".env"}

// Depth bounds for the recursive fallback searches. Deep scans are expensive
// and conventional projects keep these artifacts shallow.
const (
	venvSearchDepth   = 3
	scriptSearchDepth = 2
)

// Resolver resolves environment details for application directories.
// LookPath is swappable for tests; it defaults to exec.LookPath.
type Resolver struct {
	LookPath func(file string) (string, error)
}

// NewResolver creates a resolver using the real PATH lookup.
func NewResolver() *Resolver {
	return &Resolver{LookPath: exec.LookPath}
}

// Env is the resolved runtime environment for one application directory.
type Env struct {
	PackageManager string
	// VenvPath is the virtualenv root, empty if none was found.
	VenvPath string
}

// Resolve determines the package manager and virtualenv for dir. The
// explicit descriptor values win when set; otherwise both are auto-detected.
// A missing virtualenv is not an error (uv does not need one, and custom
// commands may not either).
func (r *Resolver) Resolve(dir, explicitManager, explicitVenv string) Env {
	env := Env{PackageManager: explicitManager, VenvPath: explicitVenv}

	if env.PackageManager == "" {
		env.PackageManager = r.ResolvePackageManager(dir)
	}

	if env.VenvPath == "" && env.PackageManager == ManagerPip {
		if venv, err := r.FindVirtualenv(dir); err == nil {
			env.VenvPath = venv
		}
	}

	return env
}

// ResolvePackageManager returns "uv" only when dir contains a pyproject.toml
// AND the uv tool is callable. Both conditions are required: absence of the
// tool always demotes to pip even with a manifest present.
func (r *Resolver) ResolvePackageManager(dir string) string {
	if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err != nil {
		return ManagerPip
	}
	if _, err := r.lookPath("uv"); err != nil {
		return ManagerPip
	}
	return ManagerUV
}

// FindVirtualenv locates a virtualenv under dir. Conventional directory
// names are checked first; failing that, a bounded-depth recursive search
// looks for a bin/activate marker and returns its parent-of-parent.
func (r *Resolver) FindVirtualenv(dir string) (string, error) {
	for _, name := range venvDirNames {
		candidate := filepath.Join(dir, name)
		if isVirtualenv(candidate) {
			return candidate, nil
		}
	}

	marker, err := searchFile(dir, func(rel string) bool {
		return filepath.Base(rel) == "activate" && filepath.Base(filepath.Dir(rel)) == "bin"
	}, venvSearchDepth)
	if err != nil {
		return "", err
	}

	// marker is <venv>/bin/activate; the venv root is two levels up
	return filepath.Dir(filepath.Dir(filepath.Join(dir, marker))), nil
}

// FindEntryScript locates a conventionally named script (e.g. manage.py)
// under dir, returning a path relative to dir. The directory root is checked
// first, then a bounded-depth recursive search.
func (r *Resolver) FindEntryScript(dir, name string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
		return name, nil
	}

	return searchFile(dir, func(rel string) bool {
		return filepath.Base(rel) == name
	}, scriptSearchDepth)
}

func (r *Resolver) lookPath(file string) (string, error) {
	if r.LookPath != nil {
		return r.LookPath(file)
	}
	return exec.LookPath(file)
}

// isVirtualenv reports whether dir looks like a virtualenv root.
func isVirtualenv(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, "bin", "activate"))
	return err == nil
}

// searchFile walks dir up to maxDepth levels looking for files whose
// dir-relative path satisfies match. Of all matches the lexically smallest
// (and therefore shallowest-stable) relative path is returned, keeping
// results deterministic under fastwalk's parallel traversal.
func searchFile(dir string, match func(rel string) bool, maxDepth int) (string, error) {
	var mu sync.Mutex
	var best string

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil || rel == "." {
			return nil
		}

		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if d.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if depth <= maxDepth && match(rel) {
			mu.Lock()
			if best == "" || rel < best {
				best = rel
			}
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if best == "" {
		return "", ErrNotFound
	}
	return best, nil
}
