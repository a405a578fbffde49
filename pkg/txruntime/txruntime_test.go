// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package txruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTransformTraverseMutatesAST(t *testing.T) {
	r := NewRuntime(nil, false)
	code := `
traverse({
  NumericLiteral(path) {
    if (path.node.value === 1) {
      path.replaceWith(t.numericLiteral(99));
    }
  }
});
`
	out, err := r.RunTransform(context.Background(), []byte("var x = 1;"), nil, code, map[string]any{}, Options{})
	require.NoError(t, err)
	require.NotNil(t, out.Code)
	assert.True(t, out.Modified)
	assert.Equal(t, "var x = 99;", *out.Code)
}

func TestRunTransformCapturesConsoleAndStats(t *testing.T) {
	r := NewRuntime(nil, false)
	code := `
console.log("hello", 1);
stats.seen = 1;
`
	out, err := r.RunTransform(context.Background(), []byte("1;"), nil, code, map[string]any{}, Options{})
	require.NoError(t, err)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "log", out.Logs[0].Type)
	assert.Equal(t, int64(1), out.Stats["seen"])
}

func TestRunTransformThrowReturnsRuntimeError(t *testing.T) {
	r := NewRuntime(nil, false)
	_, err := r.RunTransform(context.Background(), []byte("1;"), nil, `throw new Error("boom");`, map[string]any{}, Options{})
	require.Error(t, err)
	_, ok := err.(*RuntimeError)
	assert.True(t, ok)
}

func TestRunDisabledByPolicy(t *testing.T) {
	r := NewRuntime(nil, false)
	out, err := r.RunTransform(context.Background(), []byte("1;"), nil, `run("1+1");`, map[string]any{}, Options{})
	require.NoError(t, err)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "error", out.Logs[0].Type)
}

func TestValidateRejectsSyntaxError(t *testing.T) {
	r := NewRuntime(nil, false)
	valid, errMsg := r.Validate("function( {")
	assert.False(t, valid)
	assert.NotEmpty(t, errMsg)
}

func TestModuleExportsVisitorIdiom(t *testing.T) {
	r := NewRuntime(nil, false)
	code := `
module.exports = {
  StringLiteral(path) {
    path.replaceWith(t.stringLiteral("rewritten"));
  }
};
`
	out, err := r.RunTransform(context.Background(), []byte(`var x = "hi";`), nil, code, map[string]any{}, Options{})
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Contains(t, *out.Code, "rewritten")
}
