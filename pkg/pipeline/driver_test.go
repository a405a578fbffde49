// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

func noLookup(StepKind, string) (string, error) { return "", nil }

func TestRunAppliesBuiltinStep(t *testing.T) {
	d := NewDriver(txruntime.NewRuntime(nil, false), nil)
	recipe := Recipe{
		{Type: StepBuiltin, TransformID: "simplifyLiterals", Enabled: true},
	}
	report, err := d.Run(context.Background(), []byte("var x = !0;"), recipe, noLookup)
	require.NoError(t, err)
	require.True(t, report.Success)
	require.NotNil(t, report.FinalCode)
	assert.Contains(t, *report.FinalCode, "true")
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Success)
}

func TestRunSkipsDisabledStep(t *testing.T) {
	d := NewDriver(txruntime.NewRuntime(nil, false), nil)
	recipe := Recipe{
		{Type: StepBuiltin, TransformID: "simplifyLiterals", Enabled: false},
	}
	report, err := d.Run(context.Background(), []byte("var x = !0;"), recipe, noLookup)
	require.NoError(t, err)
	require.True(t, report.Success)
	assert.Empty(t, report.Results)
	assert.Contains(t, *report.FinalCode, "!0")
}

func TestRunStopsAtFirstFailingStep(t *testing.T) {
	d := NewDriver(txruntime.NewRuntime(nil, false), nil)
	recipe := Recipe{
		{Type: StepPlugin, TransformID: "does-not-exist", Enabled: true},
	}
	lookup := func(kind StepKind, id string) (string, error) {
		return "", assertErr{}
	}
	report, err := d.Run(context.Background(), []byte("1;"), recipe, lookup)
	require.NoError(t, err)
	assert.False(t, report.Success)
	require.NotNil(t, report.FailedAt)
	assert.Equal(t, 0, *report.FailedAt)
	assert.NotEmpty(t, report.Error)
}

type assertErr struct{}

func (assertErr) Error() string { return "lookup failed" }

func TestRecipeValidateRejectsNestedLoops(t *testing.T) {
	recipe := Recipe{
		{Type: StepLoop, Iterations: 2, Children: []RecipeStep{
			{Type: StepLoop, Iterations: 2, Enabled: true},
		}},
	}
	err := recipe.Validate()
	require.Error(t, err)
	_, ok := err.(*UnsupportedError)
	assert.True(t, ok)
}

func TestRecipeValidateRejectsOutOfRangeIterations(t *testing.T) {
	recipe := Recipe{
		{Type: StepLoop, Iterations: 20000, Children: []RecipeStep{
			{Type: StepBuiltin, TransformID: "simplifyLiterals", Enabled: true},
		}},
	}
	err := recipe.Validate()
	require.Error(t, err)
}

func TestFlattenExpandsLoopIterationsAndChildren(t *testing.T) {
	recipe := Recipe{
		{Type: StepLoop, Iterations: 2, Children: []RecipeStep{
			{Type: StepBuiltin, TransformID: "a", Enabled: true},
			{Type: StepBuiltin, TransformID: "b", Enabled: false},
		}},
	}
	steps := flatten(recipe)
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].step.TransformID)
	assert.Equal(t, "0.0", steps[0].origin)
	assert.Equal(t, "0.0#1.0", steps[1].origin)
}

func TestRunStepResumesFromMaterializedCode(t *testing.T) {
	d := NewDriver(txruntime.NewRuntime(nil, false), nil)
	recipe := Recipe{
		{Type: StepBuiltin, TransformID: "simplifyLiterals", Enabled: true},
	}
	result, err := d.RunStep(context.Background(), []byte("var x = !0;"), recipe, 0, noLookup)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Code)
	assert.Contains(t, *result.Code, "true")
}
