// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package visit

import (
	"testing"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlScopeBuildsChildTree(t *testing.T) {
	ast, err := astx.Parse([]byte("var a = 1; function f(x) { return x + a; }"), astx.ParseOptions{})
	require.NoError(t, err)

	root := CrawlScope(ast.Root)
	require.NotNil(t, root)
	assert.Equal(t, "Program", root.Node.Type)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "FunctionDeclaration", root.Children[0].Node.Type)
	assert.True(t, root.Children[0].Parent == root)
}

func TestCrawlScopeBindingsExposesReferenceNodes(t *testing.T) {
	ast, err := astx.Parse([]byte("var a = 1; var b = a + a;"), astx.ParseOptions{})
	require.NoError(t, err)

	root := CrawlScope(ast.Root)
	bindings := root.Bindings()
	require.Contains(t, bindings, "a")

	a := bindings["a"]
	assert.Equal(t, BindingVar, a.Kind)
	require.Len(t, a.ReferenceNodes, 2)
	for _, node := range a.ReferenceNodes {
		assert.Equal(t, "Identifier", node.Type)
		assert.Equal(t, "a", node.GetString("name"))
	}
}
