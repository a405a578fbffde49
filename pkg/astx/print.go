// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

import (
	"strconv"
	"strings"
)

// GenerateOptions mirrors `generate(ast) → { code }` (§4.1) and the
// Transform Runtime's `generate(node, opts?)` (§4.2). Compact is unused by
// the default printer (span-preserving output is already minimal-diff) but
// is kept so callers can request it without a signature change later.
type GenerateOptions struct {
	Compact bool
}

// Generate prints ast back to source text. Untouched subtrees are emitted
// by slicing the original source span (the fast path that gives §8's
// `format(source) = generate(parse(source))` idempotence for free); any
// subtree containing a dirty node (constructed by builders, or mutated by a
// transform) is synthesized node-by-node. Dirtiness is computed bottom-up
// over the whole tree once per call (see subtreeDirty) rather than read
// off n.Dirty alone, so a mutation on a node nested arbitrarily deep below
// Program defeats the fast path all the way up without callers having to
// mark every ancestor on the way there themselves.
func Generate(ast *AST, opts GenerateOptions) (string, error) {
	if ast == nil || ast.Root == nil {
		return "", nil
	}
	dirty := make(map[*Node]bool)
	var sb strings.Builder
	printNode(&sb, ast.Root, ast.Source, dirty)
	return sb.String(), nil
}

// subtreeDirty reports whether n or any node reachable from it is Dirty,
// memoizing per node so Generate's walk stays linear in tree size.
func subtreeDirty(n *Node, memo map[*Node]bool) bool {
	if n == nil {
		return false
	}
	if v, ok := memo[n]; ok {
		return v
	}
	d := n.Dirty
	for _, v := range n.Fields {
		switch val := v.(type) {
		case *Node:
			if subtreeDirty(val, memo) {
				d = true
			}
		case []*Node:
			for _, c := range val {
				if subtreeDirty(c, memo) {
					d = true
				}
			}
		}
	}
	memo[n] = d
	return d
}

func printNode(sb *strings.Builder, n *Node, source []byte, dirty map[*Node]bool) {
	if n == nil {
		return
	}
	if !subtreeDirty(n, dirty) && n.Loc != nil && source != nil {
		sb.Write(source[n.Loc.StartByte:n.Loc.EndByte])
		return
	}
	synthesize(sb, n, source, dirty)
}

func printList(sb *strings.Builder, nodes []*Node, source []byte, sep string, dirty map[*Node]bool) {
	for i, child := range nodes {
		if i > 0 {
			sb.WriteString(sep)
		}
		printNode(sb, child, source, dirty)
	}
}

// synthesize renders a constructed/mutated node. It covers the node types
// the built-in passes (pkg/passes) and builders (builders.go) actually
// produce; anything else falls back to a best-effort reconstruction from
// Fields so traversal-only mutations never panic the printer.
func synthesize(sb *strings.Builder, n *Node, source []byte, dirty map[*Node]bool) {
	switch n.Type {
	case "Program":
		printList(sb, n.Children(), source, "\n", dirty)

	case "ExpressionStatement":
		printNode(sb, n.Get("expression"), source, dirty)
		sb.WriteString(";")

	case "BlockStatement":
		sb.WriteString("{\n")
		for _, stmt := range n.Children() {
			printNode(sb, stmt, source, dirty)
			sb.WriteString("\n")
		}
		sb.WriteString("}")

	case "EmptyStatement":
		sb.WriteString(";")

	case "VariableDeclaration":
		kind := n.GetString("kind")
		if kind == "" {
			kind = "var"
		}
		sb.WriteString(kind)
		sb.WriteString(" ")
		printList(sb, n.Children(), source, ", ", dirty)
		sb.WriteString(";")

	case "VariableDeclarator":
		printNode(sb, n.Get("name"), source, dirty)
		if init := n.Get("value"); init != nil {
			sb.WriteString(" = ")
			printNode(sb, init, source, dirty)
		}

	case "IfStatement":
		sb.WriteString("if (")
		printNode(sb, n.Get("condition"), source, dirty)
		sb.WriteString(") ")
		printNode(sb, n.Get("consequence"), source, dirty)
		if alt := n.Get("alternative"); alt != nil {
			sb.WriteString(" else ")
			printNode(sb, alt, source, dirty)
		}

	case "ReturnStatement":
		sb.WriteString("return")
		if arg := n.Get("argument"); arg != nil {
			sb.WriteString(" ")
			printNode(sb, arg, source, dirty)
		}
		sb.WriteString(";")

	case "ConditionalExpression":
		sb.WriteString("(")
		printNode(sb, n.Get("condition"), source, dirty)
		sb.WriteString(" ? ")
		printNode(sb, n.Get("consequence"), source, dirty)
		sb.WriteString(" : ")
		printNode(sb, n.Get("alternative"), source, dirty)
		sb.WriteString(")")

	case "BinaryExpression", "LogicalExpression":
		sb.WriteString("(")
		printNode(sb, n.Get("left"), source, dirty)
		sb.WriteString(" ")
		sb.WriteString(n.GetString("operator"))
		sb.WriteString(" ")
		printNode(sb, n.Get("right"), source, dirty)
		sb.WriteString(")")

	case "UnaryExpression":
		op := n.GetString("operator")
		sb.WriteString(op)
		if wordUnaryOperators[op] {
			sb.WriteString(" ")
		}
		printNode(sb, n.Get("argument"), source, dirty)

	case "CallExpression":
		printNode(sb, n.Get("function"), source, dirty)
		sb.WriteString("(")
		printList(sb, n.GetList("arguments"), source, ", ", dirty)
		sb.WriteString(")")

	case "MemberExpression":
		printNode(sb, n.Get("object"), source, dirty)
		if n.GetBool("computed") {
			sb.WriteString("[")
			printNode(sb, n.Get("property"), source, dirty)
			sb.WriteString("]")
		} else {
			sb.WriteString(".")
			printNode(sb, n.Get("property"), source, dirty)
		}

	case "ArrayExpression":
		sb.WriteString("[")
		printList(sb, n.Children(), source, ", ", dirty)
		sb.WriteString("]")

	case "ObjectExpression":
		sb.WriteString("{")
		printList(sb, n.Children(), source, ", ", dirty)
		sb.WriteString("}")

	case "ObjectProperty":
		printNode(sb, n.Get("key"), source, dirty)
		sb.WriteString(": ")
		printNode(sb, n.Get("value"), source, dirty)

	case "Identifier":
		sb.WriteString(n.GetString("name"))

	case "NumericLiteral":
		if n.Raw != "" {
			sb.WriteString(n.Raw)
			return
		}
		f, _ := n.GetFloat("value")
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))

	case "StringLiteral":
		v, _ := n.Fields["value"].(string)
		sb.WriteString(strconv.Quote(v))

	case "BooleanLiteral":
		if n.GetBool("value") {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}

	case "NullLiteral":
		sb.WriteString("null")

	default:
		// Best-effort fallback for node types synthesize doesn't special-
		// case: print Raw if we have it, else concatenate any "children".
		if n.Raw != "" {
			sb.WriteString(n.Raw)
			return
		}
		printList(sb, n.Children(), source, " ", dirty)
	}
}
