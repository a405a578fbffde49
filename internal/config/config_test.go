// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxNestDepthDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, DefaultMaxNestDepth, MaxNestDepth())
}

func TestMaxNestDepthHonorsEnvOverride(t *testing.T) {
	t.Setenv("JSDEOB_MAX_NEST_DEPTH", "1200")
	assert.Equal(t, 1200, MaxNestDepth())
}

func TestMaxNestDepthIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("JSDEOB_MAX_NEST_DEPTH", "not-a-number")
	assert.Equal(t, DefaultMaxNestDepth, MaxNestDepth())
}

func TestPortPrefersGenericPORTOverNamespacedOverride(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("JSDEOB_PORT", "9091")
	assert.Equal(t, 8081, Port())
}

func TestPortFallsBackToNamespacedOverride(t *testing.T) {
	t.Setenv("JSDEOB_PORT", "9091")
	assert.Equal(t, 9091, Port())
}

func TestAllowEvalDefaultsFalse(t *testing.T) {
	assert.False(t, AllowEval())
}

func TestAllowEvalHonorsEnvOverride(t *testing.T) {
	t.Setenv("JSDEOB_ALLOW_EVAL", "true")
	assert.True(t, AllowEval())
}

func TestLoadProjectReturnsZeroValueWhenMissing(t *testing.T) {
	p, err := LoadProject(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Project{}, p)
}

func TestSaveProjectThenLoadProjectRoundTrips(t *testing.T) {
	dir := t.TempDir()
	original := &Project{DataDir: "custom/data", DefaultRecipe: "recipe.json", AllowEval: true}
	require.NoError(t, SaveProject(dir, original))

	loaded, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}
