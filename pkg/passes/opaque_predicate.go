// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// OpaquePredicateRemoval implements §4.3.2: walk IfStatement,
// ConditionalExpression, and LogicalExpression, using the conservative
// evaluator to statically determine the test and collapse dead branches.
// Only acts on `confident` results.
func OpaquePredicateRemoval(root *astx.Node, config map[string]any) map[string]any {
	removeDeadElse := boolOpt(config, "removeDeadElse", true)
	removeDeadIf := boolOpt(config, "removeDeadIf", true)
	foldTernary := boolOpt(config, "foldTernary", true)
	foldLogical := boolOpt(config, "foldLogical", true)
	unwrapBlocks := boolOpt(config, "unwrapBlocks", true)

	stats := map[string]any{
		"ifStatementsRemoved": 0,
		"elseBlocksRemoved":   0,
		"ternariesFolded":     0,
		"logicalsFolded":      0,
	}

	v := visit.NewVisitor()
	v.On("IfStatement", func(p *visit.Path) {
		cond := p.Node.Get("condition")
		result := visit.EvaluateNode(cond)
		if !result.Confident {
			return
		}
		truthy, ok := result.Value.(bool)
		if !ok {
			truthy = truthyValue(result.Value)
		}
		if truthy {
			if !removeDeadIf {
				return
			}
			replaceWithBranch(p, p.Node.Get("consequence"), unwrapBlocks)
			stats["ifStatementsRemoved"] = stats["ifStatementsRemoved"].(int) + 1
			return
		}
		if !removeDeadElse {
			return
		}
		alt := p.Node.Get("alternative")
		if alt == nil {
			p.Remove()
		} else {
			replaceWithBranch(p, alt, unwrapBlocks)
		}
		stats["elseBlocksRemoved"] = stats["elseBlocksRemoved"].(int) + 1
	}, nil)

	v.On("ConditionalExpression", func(p *visit.Path) {
		if !foldTernary {
			return
		}
		result := visit.EvaluateNode(p.Node.Get("condition"))
		if !result.Confident {
			return
		}
		if truthyValue(result.Value) {
			p.ReplaceWith(p.Node.Get("consequence"))
		} else {
			p.ReplaceWith(p.Node.Get("alternative"))
		}
		stats["ternariesFolded"] = stats["ternariesFolded"].(int) + 1
	}, nil)

	v.On("LogicalExpression", func(p *visit.Path) {
		if !foldLogical {
			return
		}
		left := p.Node.Get("left")
		result := visit.EvaluateNode(left)
		if !result.Confident {
			return
		}
		op := p.Node.GetString("operator")
		var takeLeft bool
		switch op {
		case "&&":
			takeLeft = !truthyValue(result.Value)
		case "||":
			takeLeft = truthyValue(result.Value)
		case "??":
			takeLeft = result.Value != nil
		default:
			return
		}
		if takeLeft {
			p.ReplaceWith(left)
		} else {
			p.ReplaceWith(p.Node.Get("right"))
		}
		stats["logicalsFolded"] = stats["logicalsFolded"].(int) + 1
	}, nil)

	visit.Traverse(root, v)

	total := stats["ifStatementsRemoved"].(int) + stats["elseBlocksRemoved"].(int) +
		stats["ternariesFolded"].(int) + stats["logicalsFolded"].(int)
	stats["changes"] = total
	return stats
}

func truthyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// replaceWithBranch unwraps a BlockStatement's body into the parent's
// statement list when the parent accepts multiple statements (the parent
// lives in a list slot); otherwise keeps the block to preserve scoping, or
// wraps a single non-declaration statement directly per §4.3.2's "safe to
// unwrap" rule.
func replaceWithBranch(p *visit.Path, branch *astx.Node, unwrapBlocks bool) {
	if branch == nil {
		p.Remove()
		return
	}
	if unwrapBlocks && astx.IsBlockStatement(branch) && p.InList() {
		body := branch.Children()
		if len(body) == 0 {
			p.Remove()
			return
		}
		p.ReplaceWithMultiple(body)
		return
	}
	p.ReplaceWith(branch)
}
