// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package visit

import (
	"testing"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraverseCountsIdentifiers(t *testing.T) {
	ast, err := astx.Parse([]byte("var a = 1; var b = a + a;"), astx.ParseOptions{})
	require.NoError(t, err)

	count := 0
	v := NewVisitor().On("Identifier", func(p *Path) { count++ }, nil)
	Traverse(ast.Root, v)

	assert.Equal(t, 4, count) // a (decl), b (decl), a, a (two refs)
}

func TestReplaceWithRewritesParentField(t *testing.T) {
	ast, err := astx.Parse([]byte("var x = 1 + 2;"), astx.ParseOptions{})
	require.NoError(t, err)

	v := NewVisitor().On("BinaryExpression", func(p *Path) {
		result := p.Evaluate()
		require.True(t, result.Confident)
		p.ReplaceWith(astx.NumericLiteral(result.Value.(float64)))
	}, nil)
	Traverse(ast.Root, v)

	code, err := astx.Generate(ast, astx.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "var x = 3;", code)
}

func TestRemoveStatementFromBlock(t *testing.T) {
	ast, err := astx.Parse([]byte("{ 1; 2; 3; }"), astx.ParseOptions{})
	require.NoError(t, err)

	seen := []float64{}
	v := NewVisitor().On("ExpressionStatement", func(p *Path) {
		expr := p.Node.Get("expression")
		if val, ok := expr.GetFloat("value"); ok {
			seen = append(seen, val)
			if val == 2 {
				p.Remove()
			}
		}
	}, nil)
	Traverse(ast.Root, v)

	assert.Equal(t, []float64{1, 2, 3}, seen)
	code, err := astx.Generate(ast, astx.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "{\n1;\n3;\n}", code)
}

func TestScopeRename(t *testing.T) {
	ast, err := astx.Parse([]byte("var a = 1; var b = a;"), astx.ParseOptions{})
	require.NoError(t, err)

	var progScope *Scope
	v := NewVisitor().On("Program", func(p *Path) { progScope = p.Scope }, nil)
	Traverse(ast.Root, v)

	require.NotNil(t, progScope)
	assert.True(t, progScope.HasBinding("a"))
	progScope.Rename("a", "_renamed")
	assert.False(t, progScope.HasBinding("a"))
	assert.True(t, progScope.HasBinding("_renamed"))
}

func TestGenerateUidAvoidsCollision(t *testing.T) {
	s := newScope(nil, nil)
	s.declare("_tmp", BindingVar, nil)
	uid := s.GenerateUid("tmp")
	assert.Equal(t, "_tmp2", uid)
}

func TestEvaluateLogicalShortCircuit(t *testing.T) {
	ast, err := astx.Parse([]byte("0 || 5;"), astx.ParseOptions{})
	require.NoError(t, err)
	expr := ast.Root.Children()[0].Get("expression")
	result := evaluate(expr)
	require.True(t, result.Confident)
	assert.Equal(t, 5.0, result.Value)
}
