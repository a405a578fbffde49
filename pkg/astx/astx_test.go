// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerateRoundTrip(t *testing.T) {
	source := "var x = 0x10 + 0x20;"
	ast, err := Parse([]byte(source), ParseOptions{})
	require.NoError(t, err)
	require.NotNil(t, ast.Root)
	assert.Equal(t, "Program", ast.Root.Type)

	code, err := Generate(ast, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, source, code)
}

func TestFormatIsFixedPoint(t *testing.T) {
	source := "if (true) { console.log(1); }"
	once, err := Format([]byte(source))
	require.NoError(t, err)
	assert.Equal(t, source, once)

	twice, err := Format([]byte(once))
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNestingDepthCap(t *testing.T) {
	deep := ""
	for i := 0; i < 600; i++ {
		deep += "["
	}
	depth := NestingDepth([]byte(deep), 500)
	assert.Greater(t, depth, 500)
}

func TestNestingDepthWithinCap(t *testing.T) {
	depth := NestingDepth([]byte("var a = [1, [2, [3]]];"), 500)
	assert.Equal(t, 3, depth)
}

func TestBuildersSynthesize(t *testing.T) {
	expr := ExpressionStatement(BinaryExpression("+", NumericLiteral(1), NumericLiteral(2)))
	prog := Program([]*Node{expr})
	ast := &AST{Root: prog}
	code, err := Generate(ast, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "(1 + 2);", code)
}

func TestCloneNodeDeep(t *testing.T) {
	original := BinaryExpression("+", NumericLiteral(1), NumericLiteral(2))
	clone := CloneNode(original, true)
	clone.Get("left").Set("value", 99.0)

	orig, _ := original.Get("left").GetFloat("value")
	cloned, _ := clone.Get("left").GetFloat("value")
	assert.Equal(t, 1.0, orig)
	assert.Equal(t, 99.0, cloned)
}
