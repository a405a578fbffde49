// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// RemoveUnusedCode implements §4.3.3: re-crawl the Program scope before
// each pass, remove a binding with zero references when its initializer
// (for variables) is side-effect-free, stop when a pass removes nothing.
// Grounded on CheckpointManager's loop-until-no-progress shape
// (pkg/ingestion/checkpoint.go), adapted from ingestion retry semantics to
// AST fixed-point semantics.
func RemoveUnusedCode(root *astx.Node, config map[string]any) map[string]any {
	maxPasses := intOpt(config, "maxPasses", 10)
	removeVariables := boolOpt(config, "removeVariables", true)
	removeFunctions := boolOpt(config, "removeFunctions", true)
	removeClasses := boolOpt(config, "removeClasses", true)
	removeImports := boolOpt(config, "removeImports", true)

	stats := map[string]any{
		"variablesRemoved": 0,
		"functionsRemoved": 0,
		"classesRemoved":   0,
		"importsRemoved":   0,
		"passes":           0,
	}

	for pass := 0; pass < maxPasses; pass++ {
		scope := visit.CrawlScope(root)
		removedThisPass := 0

		v := visit.NewVisitor()

		v.On("VariableDeclaration", func(p *visit.Path) {
			if !removeVariables {
				return
			}
			declarators := p.Node.Children()
			kept := make([]*astx.Node, 0, len(declarators))
			for _, decl := range declarators {
				id := decl.Get("name")
				if id == nil {
					kept = append(kept, decl)
					continue
				}
				b := scope.GetBinding(id.GetString("name"))
				if b == nil || len(b.ReferencePaths) > 0 || !isSideEffectFreeInit(decl.Get("value")) {
					kept = append(kept, decl)
					continue
				}
				removedThisPass++
				stats["variablesRemoved"] = stats["variablesRemoved"].(int) + 1
			}
			if len(kept) == len(declarators) {
				return
			}
			if len(kept) == 0 {
				p.Remove()
				return
			}
			p.Node.Set("children", kept)
		}, nil)

		v.On("FunctionDeclaration", func(p *visit.Path) {
			if !removeFunctions {
				return
			}
			id := p.Node.Get("name")
			if id == nil {
				return
			}
			if b := scope.GetBinding(id.GetString("name")); b != nil && len(b.ReferencePaths) == 0 {
				p.Remove()
				removedThisPass++
				stats["functionsRemoved"] = stats["functionsRemoved"].(int) + 1
			}
		}, nil)

		v.On("ClassDeclaration", func(p *visit.Path) {
			if !removeClasses {
				return
			}
			id := p.Node.Get("name")
			if id == nil {
				return
			}
			if b := scope.GetBinding(id.GetString("name")); b != nil && len(b.ReferencePaths) == 0 {
				p.Remove()
				removedThisPass++
				stats["classesRemoved"] = stats["classesRemoved"].(int) + 1
			}
		}, nil)

		v.On("ImportDeclaration", func(p *visit.Path) {
			if !removeImports {
				return
			}
			if removeUnusedImport(p, scope) {
				removedThisPass++
				stats["importsRemoved"] = stats["importsRemoved"].(int) + 1
			}
		}, nil)

		visit.Traverse(root, v)
		stats["passes"] = pass + 1
		if removedThisPass == 0 {
			break
		}
	}

	total := stats["variablesRemoved"].(int) + stats["functionsRemoved"].(int) +
		stats["classesRemoved"].(int) + stats["importsRemoved"].(int)
	stats["changes"] = total
	return stats
}

// removeUnusedImport removes an ImportDeclaration only when every bound
// identifier it introduces has zero references. Side-effect-only imports
// (`import "x"`, no bound identifiers) are always kept. This is a
// simplification of §4.3.3's "partially-used import lists are pruned"
// requirement: named-specifier-level pruning would need a richer
// ImportClause shape than the generic parse currently preserves, so this
// pass treats an import as one all-or-nothing unit.
func removeUnusedImport(p *visit.Path, scope *visit.Scope) bool {
	ids := collectImportedIdentifiers(p.Node)
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if b := scope.GetBinding(id); b != nil && len(b.ReferencePaths) > 0 {
			return false
		}
	}
	p.Remove()
	return true
}

func collectImportedIdentifiers(n *astx.Node) []string {
	var names []string
	var walk func(*astx.Node)
	walk = func(cur *astx.Node) {
		if cur == nil {
			return
		}
		if cur.Type == "Identifier" {
			names = append(names, cur.GetString("name"))
		}
		for key, v := range cur.Fields {
			if key == "source" {
				continue // the module specifier string, not a binding
			}
			switch val := v.(type) {
			case *astx.Node:
				walk(val)
			case []*astx.Node:
				for _, child := range val {
					walk(child)
				}
			}
		}
	}
	for key, v := range n.Fields {
		if key == "source" {
			continue
		}
		switch val := v.(type) {
		case *astx.Node:
			walk(val)
		case []*astx.Node:
			for _, child := range val {
				walk(child)
			}
		}
	}
	return names
}

// isSideEffectFreeInit reports whether an initializer expression has no
// observable side effects, per §4.3.3: literal, identifier, unreferenced
// function/class expression, or a pure composition of such.
func isSideEffectFreeInit(n *astx.Node) bool {
	if n == nil {
		return true
	}
	switch n.Type {
	case "NumericLiteral", "StringLiteral", "BooleanLiteral", "NullLiteral",
		"Identifier", "FunctionExpression", "ArrowFunctionExpression", "ClassExpression":
		return true
	case "BinaryExpression", "LogicalExpression":
		return isSideEffectFreeInit(n.Get("left")) && isSideEffectFreeInit(n.Get("right"))
	case "UnaryExpression":
		return isSideEffectFreeInit(n.Get("argument"))
	case "ConditionalExpression":
		return isSideEffectFreeInit(n.Get("condition")) &&
			isSideEffectFreeInit(n.Get("consequence")) &&
			isSideEffectFreeInit(n.Get("alternative"))
	case "TemplateLiteral":
		for _, child := range n.Children() {
			if !isSideEffectFreeInit(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
