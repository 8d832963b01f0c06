// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package pyenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uvFound(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func uvMissing(string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#"), 0644))
}

func TestResolvePackageManager_UVNeedsManifestAndTool(t *testing.T) {
	dir := t.TempDir()

	// No manifest: pip even with uv installed
	r := &Resolver{LookPath: uvFound}
	assert.Equal(t, ManagerPip, r.ResolvePackageManager(dir))

	writeFile(t, filepath.Join(dir, "pyproject.toml"))

	// Manifest plus tool: uv
	assert.Equal(t, ManagerUV, r.ResolvePackageManager(dir))

	// Manifest without tool: pip
	r = &Resolver{LookPath: uvMissing}
	assert.Equal(t, ManagerPip, r.ResolvePackageManager(dir))
}

func TestFindVirtualenv_ConventionalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "venv", "bin", "activate"))
	writeFile(t, filepath.Join(dir, ".venv", "bin", "activate"))

	r := &Resolver{LookPath: uvMissing}
	venv, err := r.FindVirtualenv(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".venv"), venv)
}

func TestFindVirtualenv_IgnoresPlainDirectories(t *testing.T) {
	dir := t.TempDir()
	// "env" without bin/activate is not a virtualenv
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "env"), 0755))
	writeFile(t, filepath.Join(dir, "venv", "bin", "activate"))

	r := &Resolver{LookPath: uvMissing}
	venv, err := r.FindVirtualenv(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "venv"), venv)
}

func TestFindVirtualenv_RecursiveFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "myenv", "bin", "activate"))

	r := &Resolver{LookPath: uvMissing}
	venv, err := r.FindVirtualenv(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "myenv"), venv)
}

func TestFindVirtualenv_DepthBound(t *testing.T) {
	dir := t.TempDir()
	// bin/activate ends up at depth 5, past the bound
	writeFile(t, filepath.Join(dir, "a", "b", "c", "deepenv", "bin", "activate"))

	r := &Resolver{LookPath: uvMissing}
	_, err := r.FindVirtualenv(dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindEntryScript_RootFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manage.py"))
	writeFile(t, filepath.Join(dir, "src", "manage.py"))

	r := &Resolver{LookPath: uvMissing}
	path, err := r.FindEntryScript(dir, "manage.py")
	require.NoError(t, err)
	assert.Equal(t, "manage.py", path)
}

func TestFindEntryScript_Nested(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "manage.py"))

	r := &Resolver{LookPath: uvMissing}
	path, err := r.FindEntryScript(dir, "manage.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "manage.py"), path)
}

func TestFindEntryScript_NotFound(t *testing.T) {
	r := &Resolver{LookPath: uvMissing}
	_, err := r.FindEntryScript(t.TempDir(), "manage.py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_ExplicitValuesWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"))
	writeFile(t, filepath.Join(dir, ".venv", "bin", "activate"))

	r := &Resolver{LookPath: uvFound}
	env := r.Resolve(dir, ManagerPip, "/custom/venv")

	assert.Equal(t, ManagerPip, env.PackageManager)
	assert.Equal(t, "/custom/venv", env.VenvPath)
}

func TestResolve_AutoDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".venv", "bin", "activate"))

	r := &Resolver{LookPath: uvMissing}
	env := r.Resolve(dir, "", "")

	assert.Equal(t, ManagerPip, env.PackageManager)
	assert.Equal(t, filepath.Join(dir, ".venv"), env.VenvPath)
}

func TestResolve_UVSkipsVenvSearch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"))
	writeFile(t, filepath.Join(dir, ".venv", "bin", "activate"))

	r := &Resolver{LookPath: uvFound}
	env := r.Resolve(dir, "", "")

	assert.Equal(t, ManagerUV, env.PackageManager)
	assert.Empty(t, env.VenvPath)
}
