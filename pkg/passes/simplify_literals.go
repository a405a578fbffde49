// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"strings"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// SimplifyLiterals implements §4.3.6: idempotent rewrites of common
// obfuscation idioms (!0/!1, void <literal>, typeof <literal>, the three
// division-by-zero identities, and hex/binary/octal numeric lexeme
// normalization). `convertToIdentifier` controls whether booleans are
// emitted as BooleanLiteral nodes (default) or as `true`/`false`
// identifiers, matching §4.3.6's "may emit either boolean literals or
// identifier placeholders".
func SimplifyLiterals(root *astx.Node, config map[string]any) map[string]any {
	convertToIdentifier := boolOpt(config, "convertToIdentifier", false)

	stats := map[string]any{
		"negationsSimplified":    0,
		"voidSimplified":         0,
		"typeofSimplified":       0,
		"divisionIdentities":     0,
		"numericLexemesNormalized": 0,
	}
	bump := func(key string) { stats[key] = stats[key].(int) + 1 }

	boolNode := func(v bool) *astx.Node {
		if convertToIdentifier {
			if v {
				return astx.Identifier("true")
			}
			return astx.Identifier("false")
		}
		return astx.BooleanLiteral(v)
	}
	undefinedNode := func() *astx.Node { return astx.Identifier("undefined") }

	v := visit.NewVisitor()

	v.On("UnaryExpression", func(p *visit.Path) {
		op := p.Node.GetString("operator")
		arg := p.Node.Get("argument")

		switch op {
		case "!":
			// !!x (double negation) is handled by the outer UnaryExpression
			// wrapping a UnaryExpression("!", ...) — detect and fold
			// against the inner argument's truthiness directly.
			if astx.IsUnaryExpression(arg) && arg.GetString("operator") == "!" {
				inner := arg.Get("argument")
				res := visit.EvaluateNode(inner)
				if res.Confident {
					p.ReplaceWith(boolNode(truthyValue(res.Value)))
					bump("negationsSimplified")
				}
				return
			}
			res := visit.EvaluateNode(arg)
			if !res.Confident {
				return
			}
			p.ReplaceWith(boolNode(!truthyValue(res.Value)))
			bump("negationsSimplified")

		case "void":
			if !astx.IsLiteral(arg) && !astx.IsArrayExpression(arg) && !astx.IsObjectExpression(arg) {
				return
			}
			p.ReplaceWith(undefinedNode())
			bump("voidSimplified")

		case "typeof":
			result, ok := typeofLiteral(arg)
			if !ok {
				return
			}
			p.ReplaceWith(astx.StringLiteral(result))
			bump("typeofSimplified")
		}
	}, nil)

	v.On("BinaryExpression", func(p *visit.Path) {
		if p.Node.GetString("operator") != "/" {
			return
		}
		left := visit.EvaluateNode(p.Node.Get("left"))
		right := visit.EvaluateNode(p.Node.Get("right"))
		if !left.Confident || !right.Confident {
			return
		}
		lf, lok := left.Value.(float64)
		rf, rok := right.Value.(float64)
		if !lok || !rok || rf != 0 {
			return
		}
		switch {
		case lf == 0:
			p.ReplaceWith(astx.Identifier("NaN"))
		case lf > 0:
			p.ReplaceWith(astx.Identifier("Infinity"))
		default:
			p.ReplaceWith(astx.UnaryExpression("-", astx.Identifier("Infinity"), true))
		}
		bump("divisionIdentities")
	}, nil)

	v.On("NumericLiteral", func(p *visit.Path) {
		raw := p.Node.Raw
		if raw == "" || len(raw) < 2 || raw[0] != '0' {
			return
		}
		switch raw[1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
		default:
			return
		}
		p.Node.Raw = ""
		p.Node.MarkDirty()
		bump("numericLexemesNormalized")
	}, nil)

	visit.Traverse(root, v)

	total := 0
	for _, n := range stats {
		total += n.(int)
	}
	stats["changes"] = total
	return stats
}

// typeofLiteral implements §4.3.6's `typeof <literal>` table, including the
// well-known `typeof null === "object"` and `typeof []/{} === "object"`
// quirks and `typeof function… === "function"`.
func typeofLiteral(n *astx.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type {
	case "StringLiteral":
		return "string", true
	case "NumericLiteral":
		return "number", true
	case "BooleanLiteral":
		return "boolean", true
	case "NullLiteral", "ArrayExpression", "ObjectExpression":
		return "object", true
	case "FunctionExpression", "FunctionDeclaration", "ArrowFunctionExpression":
		return "function", true
	case "Identifier":
		if strings.EqualFold(n.GetString("name"), "undefined") {
			return "undefined", true
		}
	}
	return "", false
}
