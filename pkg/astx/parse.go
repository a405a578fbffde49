// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar selects which tree-sitter grammar parses a source buffer.
// The driver (pkg/pipeline) and Transform Runtime's `parser.parse` both
// funnel through ParseOptions so a sub-parse of an extracted snippet can
// request module-vs-script handling the same way the top-level parse does.
type Grammar int

const (
	// GrammarAuto sniffs JSX/TS syntax and picks the richest grammar that
	// still parses cleanly, mirroring parser_interface.go's ParserModeAuto.
	GrammarAuto Grammar = iota
	GrammarJavaScript
	GrammarTypeScript
	GrammarTSX
)

// ParseOptions mirrors the options implied by spec.md §4.1/§4.2 (`parser.parse`
// defaults `allowReturnOutsideFunction` to true; grammar selection is a
// pre-parse concern, not an error condition).
type ParseOptions struct {
	Grammar                    Grammar
	AllowReturnOutsideFunction bool
}

func sitterLanguageFor(g Grammar) *sitter.Language {
	switch g {
	case GrammarTypeScript:
		return typescript.GetLanguage()
	case GrammarTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// sniffGrammar is the cheap heuristic parser_interface.go's ParserModeAuto
// documents as "uses Tree-sitter if available" generalized to grammar choice:
// obfuscated/minified JS almost never uses JSX or TS type syntax, so we only
// pay for the richer grammars when the source plausibly needs them.
func sniffGrammar(source []byte) Grammar {
	s := string(source)
	looksJSX := strings.Contains(s, "</") || strings.Contains(s, "/>")
	looksTS := strings.Contains(s, ": ") && (strings.Contains(s, "interface ") ||
		strings.Contains(s, ": string") || strings.Contains(s, ": number") ||
		strings.Contains(s, "): ") || strings.Contains(s, "<T>") || strings.Contains(s, "as const"))
	switch {
	case looksJSX:
		return GrammarTSX
	case looksTS:
		return GrammarTypeScript
	default:
		return GrammarJavaScript
	}
}

// Parse builds an AST from source, per spec.md §4.1: `parse(source) → AST |
// ParseError`. Grammar selection defaults to Auto; a caller that knows the
// source is plain JS/TS/TSX may pin Grammar to skip the sniff.
func Parse(source []byte, opts ParseOptions) (*AST, error) {
	g := opts.Grammar
	if g == GrammarAuto {
		g = sniffGrammar(source)
	}

	tree, err := parseWithGrammar(source, g)
	if err != nil {
		return nil, NewParseError(err.Error())
	}
	root := tree.RootNode()
	if root == nil {
		return nil, NewParseError("empty parse tree")
	}
	if root.HasError() {
		return nil, NewParseError("syntax error")
	}

	ast := &AST{Source: source}
	ast.Root = fromSitter(root, source)
	return ast, nil
}

func parseWithGrammar(source []byte, g Grammar) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(sitterLanguageFor(g))
	return parser.ParseCtx(context.Background(), nil, source)
}

// fromSitter converts a tree-sitter CST node into our mutable, Babel-style
// Node tree. Every child slot that the grammar names (node.FieldNameForChild)
// becomes a named Fields entry; every other named child is appended, in
// order, to the synthetic "children" slot. To match the builders' shapes,
// the operand of an expression/return statement goes under "expression"/
// "argument", a unary operator under "operator", and an if statement's
// parenthesized condition and else clause are unwrapped to the bare
// expression and statement. This generalizes the teacher's
// hand-walked ChildByFieldName accessors (parser_typescript.go,
// parser_go.go) into one grammar-agnostic conversion instead of one walker
// function per node type.
func fromSitter(n *sitter.Node, content []byte) *Node {
	if n == nil {
		return nil
	}

	tsType := n.Type()
	operator := ""
	if tsType == "binary_expression" || tsType == "augmented_assignment_expression" || tsType == "unary_expression" {
		if opNode := n.ChildByFieldName("operator"); opNode != nil {
			operator = string(content[opNode.StartByte():opNode.EndByte()])
		}
	}

	node := &Node{
		Type: babelType(tsType, operator),
		Loc: &SourceLocation{
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			StartLine: int(n.StartPoint().Row) + 1,
			StartCol:  int(n.StartPoint().Column) + 1,
			EndLine:   int(n.EndPoint().Row) + 1,
			EndCol:    int(n.EndPoint().Column) + 1,
		},
		Fields: map[string]Value{},
	}

	if isLiteralTSType(tsType) {
		node.Raw = string(content[n.StartByte():n.EndByte()])
		if v, ok := literalValue(tsType, node.Raw); ok {
			node.Fields["value"] = v
		}
	}
	if operator != "" {
		node.Fields["operator"] = operator
	}
	if tsType == "identifier" || tsType == "property_identifier" || tsType == "shorthand_property_identifier" || tsType == "shorthand_property_identifier_pattern" {
		node.Fields["name"] = string(content[n.StartByte():n.EndByte()])
	}
	// subscript_expression (a[b]) is computed member access; the grammar
	// names its index field "index" where member_expression (a.b) names
	// its property field "property". Normalize both to MemberExpression's
	// {object, property, computed} shape.
	if tsType == "subscript_expression" {
		node.Fields["computed"] = true
	} else if tsType == "member_expression" {
		node.Fields["computed"] = false
	}

	var children []*Node
	childCount := int(n.ChildCount())
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		converted := fromSitter(child, content)
		fieldName := n.FieldNameForChild(i)
		if tsType == "subscript_expression" && fieldName == "index" {
			fieldName = "property"
		}
		if tsType == "if_statement" && (fieldName == "condition" || fieldName == "alternative") {
			if inner := converted.Children(); len(inner) == 1 {
				converted = inner[0]
			}
		}
		if fieldName == "" && child.IsNamed() && child.Type() != "comment" {
			switch tsType {
			case "expression_statement":
				fieldName = "expression"
			case "return_statement":
				fieldName = "argument"
			}
		}
		switch {
		case fieldName == "arguments" && child.Type() == "arguments":
			// call_expression's "arguments" field is itself a list node in
			// the grammar; flatten it to a []*Node like every other
			// unnamed-children slot so CallExpression builders and the
			// parser produce the same shape.
			node.Fields["arguments"] = converted.Children()
		case fieldName != "" && fieldName != "operator":
			node.Fields[fieldName] = converted
		case child.IsNamed():
			children = append(children, converted)
		}
	}
	if len(children) > 0 {
		node.Fields["children"] = children
	}

	return node
}

// literalValue computes the evaluated `value` field for a literal node
// from its preserved raw lexeme: the numeric/string/boolean counterpart to
// `Raw`, used by evaluate() and by user transforms reading `node.value`
// directly rather than re-parsing `node.raw` themselves.
func literalValue(tsType, raw string) (Value, bool) {
	switch tsType {
	case "number":
		if n, err := strconv.ParseInt(raw, 0, 64); err == nil {
			return float64(n), true
		}
		if n, err := strconv.ParseUint(raw, 0, 64); err == nil {
			return float64(n), true
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, true
		}
		return nil, false
	case "string":
		return unquoteJSString(raw), true
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return nil, false
	}
}

// unquoteJSString strips the surrounding quote characters and resolves the
// handful of escape sequences decodeStrings (§4.3.4) doesn't itself treat
// as an opt-in operation: the quote escape and common control escapes
// every string literal needs just to have a sane default `value`.
func unquoteJSString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i == len(inner)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '\'', '"', '`':
			sb.WriteByte(inner[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(inner[i])
		}
	}
	return sb.String()
}
