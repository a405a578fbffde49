// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFolderPlugin(t *testing.T, pluginsRoot, category, basename, code string) {
	t.Helper()
	dir := filepath.Join(pluginsRoot, category)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, basename+".js"), []byte(code), 0o644))
}

func TestLibraryNewDiscoversFolderPlugins(t *testing.T) {
	dataDir := t.TempDir()
	pluginsRoot := t.TempDir()
	writeFolderPlugin(t, pluginsRoot, "utilities", "bracket-to-dot", `
traverse({ MemberExpression(path) {} });
`)

	lib, err := New(dataDir, pluginsRoot)
	require.NoError(t, err)

	plugins := lib.FolderPlugins()
	require.Len(t, plugins, 1)
	assert.Equal(t, "utilities-bracket-to-dot", plugins[0].ID)
	assert.Equal(t, "Bracket To Dot", plugins[0].Name)

	code, err := lib.LookupPluginCode("utilities-bracket-to-dot")
	require.NoError(t, err)
	assert.Contains(t, code, "MemberExpression")

	cats := lib.Categories()
	require.Len(t, cats, 1)
	assert.Equal(t, "utilities", cats[0].ID)
	assert.Equal(t, 1, cats[0].Count)
}

func TestLibraryReloadSwapsFolderCatalogue(t *testing.T) {
	dataDir := t.TempDir()
	pluginsRoot := t.TempDir()

	lib, err := New(dataDir, pluginsRoot)
	require.NoError(t, err)
	assert.Empty(t, lib.FolderPlugins())

	writeFolderPlugin(t, pluginsRoot, "strings", "decode", "function transform(root, config) {}")
	require.NoError(t, lib.Reload())
	assert.Len(t, lib.FolderPlugins(), 1)
}

func TestBlobCollectionCreateRejectsInvalidCode(t *testing.T) {
	dataDir := t.TempDir()
	lib, err := New(dataDir, t.TempDir())
	require.NoError(t, err)

	_, err = lib.Plugins.Create(PluginImport{Name: "broken", Code: "var x = ;"})
	assert.Error(t, err)
}

func TestBlobCollectionCreateGetUpdateDelete(t *testing.T) {
	dataDir := t.TempDir()
	lib, err := New(dataDir, t.TempDir())
	require.NoError(t, err)

	created, err := lib.Plugins.Create(PluginImport{Name: "n", Description: "d", Code: "1;"})
	require.NoError(t, err)
	assert.Equal(t, "user-saved", created.Category)

	fetched, err := lib.Plugins.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", fetched.Name)

	updated, err := lib.Plugins.Update(created.ID, PluginImport{Name: "n2", Code: "2;"})
	require.NoError(t, err)
	assert.Equal(t, "n2", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	code, err := lib.LookupPluginCode(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2;", code)

	require.NoError(t, lib.Plugins.Delete(created.ID))
	_, err = lib.Plugins.Get(created.ID)
	assert.Error(t, err)
}

func TestScriptIDsArePrefixed(t *testing.T) {
	dataDir := t.TempDir()
	lib, err := New(dataDir, t.TempDir())
	require.NoError(t, err)

	blob, err := lib.Scripts.Create(PluginImport{Name: "s", Code: "1;"})
	require.NoError(t, err)
	assert.Contains(t, blob.ID, "script-")

	code, err := lib.LookupScriptCode(blob.ID)
	require.NoError(t, err)
	assert.Equal(t, "1;", code)
}

func TestLookupPluginCodeReturnsNotFoundForUnknownID(t *testing.T) {
	lib, err := New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	_, err = lib.LookupPluginCode("does-not-exist")
	require.Error(t, err)
	_, ok := err.(*NotFoundError)
	assert.True(t, ok)
}
