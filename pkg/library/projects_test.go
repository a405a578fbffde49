// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCollectionCreateListGet(t *testing.T) {
	lib, err := New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	recipe, _ := json.Marshal([]map[string]any{{"type": "builtin", "transform": "constantFolding", "enabled": true}})
	created, err := lib.Projects.Create(ProjectImport{
		Name: "My Project", InputCode: "var x = 1+1;", Recipe: recipe,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	all, err := lib.Projects.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)

	fetched, err := lib.Projects.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "var x = 1+1;", fetched.InputCode)
}

func TestProjectCollectionDuplicateCopiesFieldsUnderNewID(t *testing.T) {
	lib, err := New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	original, err := lib.Projects.Create(ProjectImport{Name: "Base", InputCode: "1;"})
	require.NoError(t, err)

	dup, err := lib.Projects.Duplicate(original.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, dup.ID)
	assert.Equal(t, "Base (copy)", dup.Name)
	assert.Equal(t, original.InputCode, dup.InputCode)
}

func TestProjectCollectionUpdatePreservesID(t *testing.T) {
	lib, err := New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	created, err := lib.Projects.Create(ProjectImport{Name: "A", InputCode: "1;"})
	require.NoError(t, err)

	updated, err := lib.Projects.Update(created.ID, ProjectImport{Name: "B", InputCode: "2;"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "2;", updated.InputCode)
}

func TestProjectCollectionDeleteThenGetNotFound(t *testing.T) {
	lib, err := New(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	created, err := lib.Projects.Create(ProjectImport{Name: "A", InputCode: "1;"})
	require.NoError(t, err)

	require.NoError(t, lib.Projects.Delete(created.ID))
	_, err = lib.Projects.Get(created.ID)
	require.Error(t, err)
	_, ok := err.(*NotFoundError)
	assert.True(t, ok)
}
