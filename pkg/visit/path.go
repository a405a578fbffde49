// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package visit

import (
	"math"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
)

// Path is a cursor owning a borrow on a node, its parent chain, and its
// lexical scope (spec.md §3/GLOSSARY). container/key locate Node inside its
// parent so mutators can rewrite the parent's Fields map in place.
type Path struct {
	Node       *astx.Node
	Parent     *astx.Node
	ParentPath *Path
	Scope      *Scope
	Type       string

	container     *astx.Node // set when Node lives in a []*Node slot
	key           string     // Fields key (or list key) Node lives under
	index         int        // index within the list, or -1 for a scalar field
	removed       bool
	stopped       bool
	skipped       bool
	replacement   []*astx.Node // set by replaceWith/replaceWithMultiple
}

func newPath(node, parent *astx.Node, parentPath *Path, scope *Scope, key string, index int) *Path {
	p := &Path{
		Node:       node,
		Parent:     parent,
		ParentPath: parentPath,
		Scope:      scope,
		key:        key,
		index:      index,
	}
	if node != nil {
		p.Type = node.Type
	}
	return p
}

// Get returns a child Path for a named field, per spec.md §3's `get(key)`.
func (p *Path) Get(key string) *Path {
	child := p.Node.Get(key)
	if child == nil {
		return nil
	}
	return newPath(child, p.Node, p, p.Scope, key, -1)
}

// ReplaceWith swaps the current node for a new one in its parent slot.
func (p *Path) ReplaceWith(node *astx.Node) {
	p.replaceInParent([]*astx.Node{node})
	p.Node = node
	p.replacement = []*astx.Node{node}
}

// ReplaceWithMultiple splices several nodes in place of the current one.
// Only valid when the current node lives in a list slot (a statement in a
// block, an element in an array, ...); spec.md §3.
func (p *Path) ReplaceWithMultiple(nodes []*astx.Node) {
	p.replaceInParent(nodes)
	if len(nodes) > 0 {
		p.Node = nodes[0]
	} else {
		p.Node = nil
	}
	p.replacement = nodes
}

// Remove deletes the current node from its parent.
func (p *Path) Remove() {
	p.replaceInParent(nil)
	p.removed = true
}

// InsertBefore splices nodes immediately before the current node. Requires
// a list container.
func (p *Path) InsertBefore(nodes ...*astx.Node) {
	p.spliceInParent(0, nodes)
}

// InsertAfter splices nodes immediately after the current node.
func (p *Path) InsertAfter(nodes ...*astx.Node) {
	p.spliceInParent(1, nodes)
}

// InList reports whether Node lives in a list slot (a statement in a
// block, an element in an array, ...) rather than a scalar field — only
// list slots support ReplaceWithMultiple/InsertBefore/InsertAfter.
func (p *Path) InList() bool { return p.index >= 0 }

// Skip prevents the traversal engine from descending into this node's
// children.
func (p *Path) Skip() { p.skipped = true }

// Stop halts the entire traversal after the current node finishes.
func (p *Path) Stop() { p.stopped = true }

// Traverse runs a nested traversal rooted at this path's node, the
// "explicit re-entry" spec.md §9 calls out for visitor-object-as-plugin and
// for any pass that wants to revisit a subtree it just built.
func (p *Path) Traverse(v *Visitor) {
	Traverse(p.Node, v)
}

// replaceInParent finds where Node lives in its parent and swaps in
// replacement nodes (nil/empty deletes). Marking just the immediate parent
// dirty is enough: astx.Generate's subtreeDirty walk propagates dirtiness
// up through every ancestor above it, so callers never need to walk
// p.ParentPath themselves.
func (p *Path) replaceInParent(nodes []*astx.Node) {
	if p.Parent == nil {
		return
	}
	p.Parent.Dirty = true
	if p.index < 0 {
		// scalar field slot
		if len(nodes) == 0 {
			delete(p.Parent.Fields, p.key)
		} else {
			p.Parent.Fields[p.key] = nodes[0]
		}
		return
	}
	list := p.Parent.GetList(p.key)
	if list == nil {
		return
	}
	out := make([]*astx.Node, 0, len(list)+len(nodes))
	out = append(out, list[:p.index]...)
	out = append(out, nodes...)
	if p.index+1 <= len(list) {
		out = append(out, list[p.index+1:]...)
	}
	p.Parent.Fields[p.key] = out
}

// spliceInParent inserts nodes at offset (0 = before, 1 = after) the
// current index within a list container.
func (p *Path) spliceInParent(offset int, nodes []*astx.Node) {
	if p.Parent == nil || p.index < 0 {
		return
	}
	p.Parent.Dirty = true
	list := p.Parent.GetList(p.key)
	if list == nil {
		return
	}
	at := p.index + offset
	out := make([]*astx.Node, 0, len(list)+len(nodes))
	out = append(out, list[:at]...)
	out = append(out, nodes...)
	out = append(out, list[at:]...)
	p.Parent.Fields[p.key] = out
}

// --- predicates ---

func (p *Path) IsNode(typ string) bool { return astx.Is(p.Node, typ) }
func (p *Path) IsIdentifier() bool     { return astx.IsIdentifier(p.Node) }
func (p *Path) IsNumericLiteral() bool { return astx.IsNumericLiteral(p.Node) }
func (p *Path) IsStringLiteral() bool  { return astx.IsStringLiteral(p.Node) }
func (p *Path) IsIfStatement() bool    { return astx.IsIfStatement(p.Node) }
func (p *Path) IsBinaryExpression() bool      { return astx.IsBinaryExpression(p.Node) }
func (p *Path) IsLogicalExpression() bool     { return astx.IsLogicalExpression(p.Node) }
func (p *Path) IsConditionalExpression() bool { return astx.IsConditionalExpression(p.Node) }
func (p *Path) IsCallExpression() bool        { return astx.IsCallExpression(p.Node) }
func (p *Path) IsMemberExpression() bool      { return astx.IsMemberExpression(p.Node) }

// EvalResult is the `{confident, value}` shape `evaluate()` returns
// (spec.md §3/§9/GLOSSARY).
type EvalResult struct {
	Confident bool
	Value     any
}

// Evaluate conservatively constant-folds the subtree rooted at p, per §9:
// confident only when there are no free identifiers except undefined/NaN/
// Infinity, and only the operations enumerated in §4.3.2/§4.3.6 are used.
// Any call or unresolved identifier yields {Confident: false}.
func (p *Path) Evaluate() EvalResult {
	return evaluate(p.Node)
}

// EvaluateNode runs the same conservative constant folder Path.Evaluate
// uses, for callers (built-in passes) that have a bare node rather than a
// Path — e.g. a condition subtree read out of an IfStatement.
func EvaluateNode(n *astx.Node) EvalResult {
	return evaluate(n)
}

func evaluate(n *astx.Node) EvalResult {
	if n == nil {
		return EvalResult{}
	}
	switch n.Type {
	case "NumericLiteral":
		v, _ := n.GetFloat("value")
		return EvalResult{true, v}
	case "StringLiteral":
		v, _ := n.Fields["value"].(string)
		return EvalResult{true, v}
	case "BooleanLiteral":
		return EvalResult{true, n.GetBool("value")}
	case "NullLiteral":
		return EvalResult{true, nil}
	case "Identifier":
		switch n.GetString("name") {
		case "undefined":
			return EvalResult{true, nil}
		case "NaN":
			return EvalResult{true, math.NaN()}
		case "Infinity":
			return EvalResult{true, math.Inf(1)}
		}
		return EvalResult{}
	case "UnaryExpression":
		arg := evaluate(n.Get("argument"))
		if !arg.Confident {
			return EvalResult{}
		}
		return evalUnary(n.GetString("operator"), arg.Value)
	case "BinaryExpression":
		left := evaluate(n.Get("left"))
		right := evaluate(n.Get("right"))
		if !left.Confident || !right.Confident {
			return EvalResult{}
		}
		return evalBinary(n.GetString("operator"), left.Value, right.Value)
	case "LogicalExpression":
		left := evaluate(n.Get("left"))
		if !left.Confident {
			return EvalResult{}
		}
		op := n.GetString("operator")
		leftTruthy := truthy(left.Value)
		switch op {
		case "&&":
			if !leftTruthy {
				return left
			}
			return evaluate(n.Get("right"))
		case "||":
			if leftTruthy {
				return left
			}
			return evaluate(n.Get("right"))
		case "??":
			if left.Value != nil {
				return left
			}
			return evaluate(n.Get("right"))
		}
		return EvalResult{}
	case "ConditionalExpression":
		test := evaluate(n.Get("condition"))
		if !test.Confident {
			return EvalResult{}
		}
		if truthy(test.Value) {
			return evaluate(n.Get("consequence"))
		}
		return evaluate(n.Get("alternative"))
	default:
		return EvalResult{}
	}
}

func evalUnary(op string, v any) EvalResult {
	switch op {
	case "!":
		return EvalResult{true, !truthy(v)}
	case "-":
		if f, ok := v.(float64); ok {
			return EvalResult{true, -f}
		}
	case "+":
		if f, ok := v.(float64); ok {
			return EvalResult{true, f}
		}
	case "typeof":
		return EvalResult{true, typeOf(v)}
	case "void":
		return EvalResult{true, nil}
	}
	return EvalResult{}
}

func evalBinary(op string, l, r any) EvalResult {
	lf, lok := l.(float64)
	rf, rok := r.(float64)
	if lok && rok {
		switch op {
		case "+":
			return EvalResult{true, lf + rf}
		case "-":
			return EvalResult{true, lf - rf}
		case "*":
			return EvalResult{true, lf * rf}
		case "/":
			return EvalResult{true, lf / rf}
		}
	}
	return EvalResult{}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	default:
		return true
	}
}

func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return "object"
	}
}
