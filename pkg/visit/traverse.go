// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package visit

import (
	"sort"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
)

// fieldOrder fixes a deterministic visiting order for the common named
// slots; any field not listed here is visited afterward in sorted order,
// so that two traversals of the same tree always enter nodes in the same
// sequence (map iteration order is not otherwise guaranteed).
var fieldOrder = []string{
	"id", "condition", "test", "left", "right", "object", "property",
	"argument", "expression", "function", "callee", "key", "value",
	"consequence", "consequent", "alternative", "alternate", "init",
	"update", "body", "name",
}

// Traverse walks the tree rooted at root, crawling scope once up front and
// dispatching v's enter/exit callbacks in document order (spec.md §3/§4.2's
// `traverse(ast, visitor)`). Mutations performed by enter callbacks
// (replaceWith/insertBefore/insertAfter/remove) are reflected immediately:
// the driver re-reads the parent's child list after each visit rather than
// snapshotting it up front.
func Traverse(root *astx.Node, v *Visitor) {
	if root == nil || v == nil {
		return
	}
	rootScope := crawl(root, nil)
	p := newPath(root, nil, nil, rootScope, "", -1)
	walk(p, v)
}

// TraverseWithScope is used by nested re-entries (Path.Traverse) and by
// pass implementations that already hold a Scope to extend rather than
// recompute from scratch.
func TraverseWithScope(root *astx.Node, scope *Scope, v *Visitor) {
	if root == nil || v == nil {
		return
	}
	p := newPath(root, nil, nil, scope, "", -1)
	walk(p, v)
}

func walk(p *Path, v *Visitor) bool {
	if p.Node == nil {
		return false
	}
	v.dispatchEnter(p)
	if p.stopped {
		return true
	}
	if p.removed || len(p.replacement) > 0 {
		// Node was replaced/removed by its own enter callback; the new
		// subtree is not auto-descended into. A pass that wants its
		// replacement visited re-enters explicitly via Path.Traverse.
		return false
	}
	if !p.skipped {
		if stop := walkChildren(p, v); stop {
			return true
		}
	}
	v.dispatchExit(p)
	return p.stopped
}

func walkChildren(parent *Path, v *Visitor) bool {
	node := parent.Node
	childScope := parent.Scope
	if isScopeBoundary(node) && parent.ParentPath != nil {
		childScope = crawl(node, parent.Scope)
	}

	visited := map[string]bool{}
	for _, key := range fieldOrder {
		val, ok := node.Fields[key]
		if !ok {
			continue
		}
		visited[key] = true
		if stop := visitFieldValue(parent, childScope, key, val, v); stop {
			return true
		}
	}

	var rest []string
	for key := range node.Fields {
		if !visited[key] && key != "children" {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if stop := visitFieldValue(parent, childScope, key, node.Fields[key], v); stop {
			return true
		}
	}

	if stop := visitList(parent, childScope, "children", v); stop {
		return true
	}
	return false
}

func visitFieldValue(parent *Path, scope *Scope, key string, val any, v *Visitor) bool {
	switch child := val.(type) {
	case *astx.Node:
		cp := newPath(child, parent.Node, parent, scope, key, -1)
		return walk(cp, v)
	case []*astx.Node:
		return visitList(parent, scope, key, v)
	}
	return false
}

func visitList(parent *Path, scope *Scope, key string, v *Visitor) bool {
	i := 0
	for {
		list := parent.Node.GetList(key)
		if i >= len(list) {
			return false
		}
		child := list[i]
		cp := newPath(child, parent.Node, parent, scope, key, i)
		if stop := walk(cp, v); stop {
			return true
		}
		if cp.removed {
			continue // list shrank in place; i now points at the next element
		}
		if len(cp.replacement) > 0 {
			i += len(cp.replacement)
			continue
		}
		i++
	}
}
