// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"math"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// ConstantFolding implements §4.3.1: fold `BinaryExpression`s where both
// operands are NumericLiteral for + - * /. Non-finite results abort the
// rewrite; the driver is responsible for repeating the pass across
// multiple iterations to fold transitively.
func ConstantFolding(root *astx.Node, config map[string]any) map[string]any {
	folded := 0
	v := visit.NewVisitor().On("BinaryExpression", func(p *visit.Path) {
		left := p.Node.Get("left")
		right := p.Node.Get("right")
		if !astx.IsNumericLiteral(left) || !astx.IsNumericLiteral(right) {
			return
		}
		op := p.Node.GetString("operator")
		lv, _ := left.GetFloat("value")
		rv, _ := right.GetFloat("value")
		var result float64
		switch op {
		case "+":
			result = lv + rv
		case "-":
			result = lv - rv
		case "*":
			result = lv * rv
		case "/":
			result = lv / rv
		default:
			return
		}
		if math.IsInf(result, 0) || math.IsNaN(result) {
			return
		}
		p.ReplaceWith(astx.NumericLiteral(result))
		folded++
	}, nil)
	visit.Traverse(root, v)
	return map[string]any{"folded": folded, "changes": folded}
}
