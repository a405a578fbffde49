// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
)

func generate(t *testing.T, ast *astx.AST) string {
	t.Helper()
	code, err := astx.Generate(ast, astx.GenerateOptions{})
	require.NoError(t, err)
	return code
}

func TestConstantFoldingFoldsArithmetic(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = 1 + 2 * 3;"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := ConstantFolding(ast.Root, nil)
	assert.Equal(t, 1, stats["changes"])
	assert.Contains(t, generate(t, ast), "6")
}

func TestConstantFoldingSkipsDivisionByZero(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = 1 / 0;"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := ConstantFolding(ast.Root, nil)
	assert.Equal(t, 0, stats["changes"])
}

func TestOpaquePredicateRemovesDeadElse(t *testing.T) {
	ast, err := astx.Parse([]byte("if (true) { foo(); } else { bar(); }"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := OpaquePredicateRemoval(ast.Root, nil)
	assert.Equal(t, 1, stats["ifStatementsRemoved"])
	code := generate(t, ast)
	assert.Contains(t, code, "foo()")
	assert.NotContains(t, code, "bar()")
}

func TestOpaquePredicateKeepsElseWhenConditionUnknown(t *testing.T) {
	ast, err := astx.Parse([]byte("if (x) { foo(); } else { bar(); }"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := OpaquePredicateRemoval(ast.Root, nil)
	assert.Equal(t, 0, stats["changes"])
}

func TestOpaquePredicateFoldsTernary(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = false ? 1 : 2;"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := OpaquePredicateRemoval(ast.Root, nil)
	assert.Equal(t, 1, stats["ternariesFolded"])
	code := generate(t, ast)
	assert.Contains(t, code, "2")
	assert.NotContains(t, code, "? 1 : 2")
}

func TestOpaquePredicateFoldsLogical(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = 0 || 5;"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := OpaquePredicateRemoval(ast.Root, nil)
	assert.Equal(t, 1, stats["logicalsFolded"])
	assert.Contains(t, generate(t, ast), "5")
}

func TestRemoveUnusedCodeDropsUnreferencedVariable(t *testing.T) {
	ast, err := astx.Parse([]byte("var unused = 1; var used = 2; console.log(used);"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := RemoveUnusedCode(ast.Root, nil)
	assert.Equal(t, 1, stats["variablesRemoved"])
	code := generate(t, ast)
	assert.NotContains(t, code, "unused")
	assert.Contains(t, code, "used")
}

func TestRemoveUnusedCodeKeepsSideEffectingInit(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = sideEffect();"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := RemoveUnusedCode(ast.Root, nil)
	assert.Equal(t, 0, stats["variablesRemoved"])
	assert.Contains(t, generate(t, ast), "sideEffect()")
}

func TestRemoveUnusedCodeDropsUnreferencedFunction(t *testing.T) {
	ast, err := astx.Parse([]byte("function dead() { return 1; } function live() { return 2; } live();"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := RemoveUnusedCode(ast.Root, nil)
	assert.Equal(t, 1, stats["functionsRemoved"])
	code := generate(t, ast)
	assert.NotContains(t, code, "dead")
	assert.Contains(t, code, "live")
}

func TestRemoveUnusedCodeMultiPassChain(t *testing.T) {
	// `b` is only referenced by `a`'s initializer; once `a` is removed,
	// `b` becomes unreferenced too and must fall in a later pass.
	ast, err := astx.Parse([]byte("var b = 1; var a = b; console.log(\"done\");"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := RemoveUnusedCode(ast.Root, nil)
	assert.Equal(t, 2, stats["variablesRemoved"])
	assert.GreaterOrEqual(t, stats["passes"], 2)
	code := generate(t, ast)
	assert.NotContains(t, code, "var a")
	assert.NotContains(t, code, "var b")
}

func TestDecodeStringsHexEscapes(t *testing.T) {
	ast, err := astx.Parse([]byte(`var x = "\x48\x69";`), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, map[string]any{"hex": true})
	assert.Equal(t, 1, stats["hexEscapesDecoded"])
	assert.Contains(t, generate(t, ast), "Hi")
}

func TestDecodeStringsDefaultOff(t *testing.T) {
	ast, err := astx.Parse([]byte(`var x = "\x48\x69";`), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, nil)
	assert.Equal(t, 0, stats["changes"])
}

func TestDecodeStringsFromCharCode(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = String.fromCharCode(72, 105);"), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, map[string]any{"fromCharCode": true})
	assert.Equal(t, 1, stats["fromCharCodeInlined"])
	assert.Contains(t, generate(t, ast), "\"Hi\"")
}

func TestDecodeStringsAtob(t *testing.T) {
	ast, err := astx.Parse([]byte(`var x = atob("SGk=");`), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, map[string]any{"atob": true})
	assert.Equal(t, 1, stats["atobInlined"])
	assert.Contains(t, generate(t, ast), "\"Hi\"")
}

func TestDecodeStringsSplitReverseJoin(t *testing.T) {
	ast, err := astx.Parse([]byte(`var x = "cba".split("").reverse().join("");`), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, map[string]any{"splitReverseJoin": true})
	assert.Equal(t, 1, stats["splitReverseJoined"])
	assert.Contains(t, generate(t, ast), "\"abc\"")
}

func TestDecodeStringsAllFlag(t *testing.T) {
	ast, err := astx.Parse([]byte(`var x = "hello".charAt(1);`), astx.ParseOptions{})
	require.NoError(t, err)

	stats := DecodeStrings(ast.Root, map[string]any{"all": true})
	assert.Equal(t, 1, stats["charAccessInlined"])
	assert.Contains(t, generate(t, ast), "\"e\"")
}
