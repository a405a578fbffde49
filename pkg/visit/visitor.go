// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package visit implements spec.md §3's Visitor/Path/Scope/Binding triad and
// the `traverse` engine described in §4.2/§9: a mutable, in-place borrow of
// the AST for the duration of one traversal, where replaceWith/remove/
// insertBefore/insertAfter re-locate siblings and avoid double-visiting a
// replaced subtree unless the visitor explicitly re-enters via
// `path.Traverse`.
package visit

// HandlerPair is the enter/exit callback pair a Visitor may register per
// node-type discriminant (spec.md §3: "a mapping from node-type discriminant
// to one or two callbacks (enter/exit)").
type HandlerPair struct {
	Enter func(p *Path)
	Exit  func(p *Path)
}

// Visitor is a dispatch table keyed by node type, plus a generic Enter
// invoked for every node regardless of type (spec.md §3/GLOSSARY).
type Visitor struct {
	ByType  map[string]HandlerPair
	Enter   func(p *Path)
	Exit    func(p *Path)
}

// NewVisitor builds an empty Visitor ready for On() registration.
func NewVisitor() *Visitor {
	return &Visitor{ByType: map[string]HandlerPair{}}
}

// On registers an enter/exit pair for a node type. Passing a nil exit is
// fine; only enter fires.
func (v *Visitor) On(nodeType string, enter, exit func(p *Path)) *Visitor {
	v.ByType[nodeType] = HandlerPair{Enter: enter, Exit: exit}
	return v
}

func (v *Visitor) dispatchEnter(p *Path) {
	if v.Enter != nil {
		v.Enter(p)
	}
	if h, ok := v.ByType[p.Node.Type]; ok && h.Enter != nil {
		h.Enter(p)
	}
}

func (v *Visitor) dispatchExit(p *Path) {
	if h, ok := v.ByType[p.Node.Type]; ok && h.Exit != nil {
		h.Exit(p)
	}
	if v.Exit != nil {
		v.Exit(p)
	}
}
