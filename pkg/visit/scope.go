// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package visit

import (
	"fmt"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
)

// BindingKind classifies how a name entered a scope (spec.md §3/GLOSSARY).
type BindingKind string

const (
	BindingVar       BindingKind = "var"
	BindingLet       BindingKind = "let"
	BindingConst     BindingKind = "const"
	BindingParam     BindingKind = "param"
	BindingFunction  BindingKind = "function"
	BindingClass     BindingKind = "class"
	BindingImport    BindingKind = "import"
	BindingCatchParam BindingKind = "catch-param"
)

// Binding records one declared name: its kind, every path that reads it,
// and whether every read sees the same, never-reassigned value.
type Binding struct {
	Name           string
	Kind           BindingKind
	Identifier     *astx.Node
	ReferencePaths []*Path
	// ReferenceNodes parallels ReferencePaths with the referencing
	// Identifier node itself, for callers (e.g. the analyze-scope API
	// response) that need a reference's source location rather than its
	// traversal Path, which a scope-only crawl() never threads.
	ReferenceNodes []*astx.Node
	Constant       bool
}

// Scope is the name→Binding map for one lexical scope (function or block),
// chained to its parent via Scope.Parent. Grounded on the same crawl-then-
// query shape spec.md §3 describes for Babel's own @babel/traverse scope.
type Scope struct {
	Parent   *Scope
	Node     *astx.Node
	Children []*Scope
	bindings map[string]*Binding
	uidSeq   map[string]int
}

func newScope(parent *Scope, node *astx.Node) *Scope {
	s := &Scope{Parent: parent, Node: node, bindings: map[string]*Binding{}, uidSeq: map[string]int{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Bindings returns every name declared directly in this scope (not
// ancestors), for callers that need to enumerate rather than look up by
// name (e.g. the analyze-scope API response).
func (s *Scope) Bindings() map[string]*Binding {
	return s.bindings
}

// HasBinding reports whether name is bound in this scope or an ancestor.
func (s *Scope) HasBinding(name string) bool {
	return s.GetBinding(name) != nil
}

// GetBinding walks up the scope chain looking for name.
func (s *Scope) GetBinding(name string) *Binding {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Rename changes a binding's declared name and every recorded reference,
// per spec.md §3's `rename(oldName, newName)`.
func (s *Scope) Rename(oldName, newName string) {
	b := s.GetBinding(oldName)
	if b == nil {
		return
	}
	owner := s.owningScope(oldName)
	if owner == nil {
		return
	}
	delete(owner.bindings, oldName)
	b.Name = newName
	owner.bindings[newName] = b
	if b.Identifier != nil {
		b.Identifier.Set("name", newName)
	}
	for _, ref := range b.ReferencePaths {
		if ref.Node != nil {
			ref.Node.Set("name", newName)
		}
	}
}

func (s *Scope) owningScope(name string) *Scope {
	for sc := s; sc != nil; sc = sc.Parent {
		if _, ok := sc.bindings[name]; ok {
			return sc
		}
	}
	return nil
}

// GenerateUid produces a name not currently bound anywhere up the chain,
// derived from hint the way spec.md §3 describes ("_hint", "_hint2", ...).
func (s *Scope) GenerateUid(hint string) string {
	if hint == "" {
		hint = "ref"
	}
	candidate := "_" + hint
	n := 1
	for s.HasBinding(candidate) {
		n++
		candidate = fmt.Sprintf("_%s%d", hint, n)
	}
	return candidate
}

// declare registers a new binding in this scope, overwriting any existing
// one of the same name (later declarations shadow earlier crawl passes).
func (s *Scope) declare(name string, kind BindingKind, identifier *astx.Node) *Binding {
	b := &Binding{Name: name, Kind: kind, Identifier: identifier, Constant: kind == BindingConst}
	s.bindings[name] = b
	return b
}

// addReference records p (and, when known, the referencing node itself) as
// a read of the binding it resolves to, and marks the binding non-constant
// on any assignment target.
func (s *Scope) addReference(name string, p *Path, isAssignmentTarget bool) {
	s.addReferenceNode(name, p, nil, isAssignmentTarget)
}

func (s *Scope) addReferenceNode(name string, p *Path, node *astx.Node, isAssignmentTarget bool) {
	b := s.GetBinding(name)
	if b == nil {
		return
	}
	b.ReferencePaths = append(b.ReferencePaths, p)
	if node != nil {
		b.ReferenceNodes = append(b.ReferenceNodes, node)
	}
	if isAssignmentTarget && b.Kind != BindingConst {
		b.Constant = false
	}
}

// CrawlScope (re)computes bindings for node and its descendants, per
// spec.md §3's `crawl()`. Built-in passes that need bindings without
// running a full traversal (e.g. removeUnusedCode's re-crawl-per-pass
// loop) call this directly instead of Traverse.
func CrawlScope(node *astx.Node) *Scope {
	return crawl(node, nil)
}

// crawl walks the subtree rooted at node, creating a Scope per function/
// program boundary and a Binding per declaration it finds, then a second
// pass to link every Identifier read back to its Binding's ReferencePaths.
// Grounded on spec.md §3's `crawl()`: "(re)computes bindings for this scope
// and its descendants".
func crawl(node *astx.Node, parent *Scope) *Scope {
	scope := newScope(parent, node)
	collectDeclarations(node, scope)
	collectReferences(node, scope)
	return scope
}

func isScopeBoundary(n *astx.Node) bool {
	switch n.Type {
	case "Program", "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		return true
	}
	return false
}

// declarationIdentifierKey names the field holding a binding's own
// identifier for node types collectReferences must NOT treat as a read —
// the declared name itself is not a use of the binding.
func declarationIdentifierKey(nodeType string) string {
	switch nodeType {
	case "FunctionDeclaration", "ClassDeclaration":
		return "name"
	case "VariableDeclarator":
		return "name"
	}
	return ""
}

func collectDeclarations(n *astx.Node, scope *Scope) {
	walkFields(n, func(child *astx.Node) {
		if child == nil {
			return
		}
		switch child.Type {
		case "VariableDeclaration":
			kind := BindingKind(child.GetString("kind"))
			if kind == "" {
				kind = BindingVar
			}
			for _, decl := range child.Children() {
				if id := decl.Get("name"); id != nil && id.Type == "Identifier" {
					scope.declare(id.GetString("name"), kind, id)
				}
			}
		case "FunctionDeclaration":
			if id := child.Get("name"); id != nil {
				scope.declare(id.GetString("name"), BindingFunction, id)
			}
		case "ClassDeclaration":
			if id := child.Get("name"); id != nil {
				scope.declare(id.GetString("name"), BindingClass, id)
			}
		}
		if !isScopeBoundary(child) {
			collectDeclarations(child, scope)
		}
	})
}

// collectReferences walks n's subtree recording every Identifier read as a
// reference, skipping the binding-position identifier of declarations
// (VariableDeclarator.name, FunctionDeclaration.name, ClassDeclaration.name)
// so a declaration's own name token doesn't count as a use of itself.
func collectReferences(n *astx.Node, scope *Scope) {
	skip := declarationIdentifierKey(n.Type)
	for key, v := range n.Fields {
		if key == skip {
			continue
		}
		switch val := v.(type) {
		case *astx.Node:
			visitReferenceChild(val, scope)
		case []*astx.Node:
			for _, child := range val {
				visitReferenceChild(child, scope)
			}
		}
	}
}

func visitReferenceChild(child *astx.Node, scope *Scope) {
	if child == nil {
		return
	}
	if child.Type == "Identifier" {
		scope.addReferenceNode(child.GetString("name"), nil, child, false)
	}
	if !isScopeBoundary(child) {
		collectReferences(child, scope)
	} else {
		crawl(child, scope)
	}
}

// walkFields invokes fn for every *Node reachable from n's Fields, whether
// stored as a scalar field or inside a []*Node slot.
func walkFields(n *astx.Node, fn func(*astx.Node)) {
	if n == nil {
		return
	}
	for _, v := range n.Fields {
		switch val := v.(type) {
		case *astx.Node:
			fn(val)
		case []*astx.Node:
			for _, child := range val {
				fn(child)
			}
		}
	}
}
