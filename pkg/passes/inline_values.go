// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"regexp"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// mutatorMethods is the set of Array.prototype methods that mutate their
// receiver in place; a candidate array bound to a name seen as the object
// of one of these calls is never inlined (§4.3.5(A)).
var mutatorMethods = map[string]bool{
	"push": true, "pop": true, "shift": true, "unshift": true,
	"splice": true, "reverse": true, "sort": true, "fill": true,
}

type inlineCandidate struct {
	node     *astx.Node // the ArrayExpression/ObjectExpression initializer
	isArray  bool
	declNode *astx.Node // the VariableDeclarator, for post-hoc removal
}

// InlineArrayValues implements §4.3.5(A): inline `var name = [lit, ...]` /
// `var name = {key: lit, ...}` declarations that are never reassigned or
// mutated through an Array.prototype mutator, replacing `name[n]` /
// `name.key` / `name["key"]` with the literal. `removeArray` drops the
// declaration once every reference has been inlined.
func InlineArrayValues(root *astx.Node, config map[string]any) map[string]any {
	removeArray := boolOpt(config, "removeArray", false)

	stats := map[string]any{
		"arrayIndicesInlined": 0,
		"objectPropsInlined":  0,
		"declarationsRemoved": 0,
	}

	candidates := collectInlineCandidates(root, func(init *astx.Node) bool {
		return allChildrenLiteral(init)
	})
	if len(candidates) == 0 {
		return stats
	}

	v := visit.NewVisitor()
	v.On("MemberExpression", func(p *visit.Path) {
		obj := p.Node.Get("object")
		if obj == nil || obj.Type != "Identifier" {
			return
		}
		cand, ok := candidates[obj.GetString("name")]
		if !ok {
			return
		}
		if cand.isArray {
			if inlineArrayAccess(p, cand.node) {
				stats["arrayIndicesInlined"] = stats["arrayIndicesInlined"].(int) + 1
			}
			return
		}
		if inlineObjectAccess(p, cand.node) {
			stats["objectPropsInlined"] = stats["objectPropsInlined"].(int) + 1
		}
	}, nil)
	visit.Traverse(root, v)

	if removeArray {
		stats["declarationsRemoved"] = removeDrainedCandidates(root, candidates)
	}

	total := stats["arrayIndicesInlined"].(int) + stats["objectPropsInlined"].(int) + stats["declarationsRemoved"].(int)
	stats["changes"] = total
	return stats
}

var defaultObfuscatedPattern = regexp.MustCompile(`^_0x[0-9a-fA-F]+$`)

// InlineStringArray implements §4.3.5(B): the obfuscated-string-array
// variant of the same inlining, tailored to hex-like identifiers (_0x…)
// holding string-literal-only arrays, with indices allowed to be any
// constant-foldable expression (not just a bare NumericLiteral).
func InlineStringArray(root *astx.Node, config map[string]any) map[string]any {
	removeArray := boolOpt(config, "removeArray", true)
	pattern := defaultObfuscatedPattern
	if raw := stringOpt(config, "pattern", ""); raw != "" {
		if compiled, err := regexp.Compile(raw); err == nil {
			pattern = compiled
		}
	}

	stats := map[string]any{
		"stringsInlined":      0,
		"declarationsRemoved": 0,
	}

	candidates := collectInlineCandidates(root, func(init *astx.Node) bool {
		return init.Type == "ArrayExpression" && allChildrenStringLiteral(init)
	})
	for name := range candidates {
		if !pattern.MatchString(name) {
			delete(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return stats
	}

	v := visit.NewVisitor()
	v.On("MemberExpression", func(p *visit.Path) {
		obj := p.Node.Get("object")
		if obj == nil || obj.Type != "Identifier" {
			return
		}
		cand, ok := candidates[obj.GetString("name")]
		if !ok || !cand.isArray {
			return
		}
		prop := p.Node.Get("property")
		if !p.Node.GetBool("computed") {
			return
		}
		idx := visit.EvaluateNode(prop)
		idxF, ok := idx.Value.(float64)
		if !idx.Confident || !ok {
			return
		}
		elems := cand.node.Children()
		i := int(idxF)
		if i < 0 || i >= len(elems) || !astx.IsStringLiteral(elems[i]) {
			return
		}
		p.ReplaceWith(astx.CloneNode(elems[i], true))
		stats["stringsInlined"] = stats["stringsInlined"].(int) + 1
	}, nil)
	visit.Traverse(root, v)

	if removeArray {
		stats["declarationsRemoved"] = removeDrainedCandidates(root, candidates)
	}

	total := stats["stringsInlined"].(int) + stats["declarationsRemoved"].(int)
	stats["changes"] = total
	return stats
}

// collectInlineCandidates finds every `var name = <ArrayExpression |
// ObjectExpression>` declarator whose initializer satisfies accept and
// whose name is never reassigned or passed to an Array mutator method.
func collectInlineCandidates(root *astx.Node, accept func(init *astx.Node) bool) map[string]*inlineCandidate {
	candidates := map[string]*inlineCandidate{}
	v := visit.NewVisitor()
	v.On("VariableDeclarator", func(p *visit.Path) {
		id := p.Node.Get("name")
		init := p.Node.Get("value")
		if id == nil || id.Type != "Identifier" || init == nil {
			return
		}
		if init.Type != "ArrayExpression" && init.Type != "ObjectExpression" {
			return
		}
		if !accept(init) {
			return
		}
		name := id.GetString("name")
		if isNameMutated(root, name) {
			return
		}
		candidates[name] = &inlineCandidate{node: init, isArray: init.Type == "ArrayExpression", declNode: p.Node}
	}, nil)
	visit.Traverse(root, v)
	return candidates
}

func allChildrenLiteral(init *astx.Node) bool {
	if init.Type == "ArrayExpression" {
		for _, el := range init.Children() {
			if !astx.IsLiteral(el) {
				return false
			}
		}
		return true
	}
	for _, prop := range init.Children() {
		if prop.Type != "ObjectProperty" || !astx.IsLiteral(prop.Get("value")) {
			return false
		}
	}
	return true
}

func allChildrenStringLiteral(init *astx.Node) bool {
	for _, el := range init.Children() {
		if !astx.IsStringLiteral(el) {
			return false
		}
	}
	return true
}

func inlineArrayAccess(p *visit.Path, arr *astx.Node) bool {
	if !p.Node.GetBool("computed") {
		return false
	}
	res := visit.EvaluateNode(p.Node.Get("property"))
	idx, ok := res.Value.(float64)
	if !res.Confident || !ok {
		return false
	}
	elems := arr.Children()
	i := int(idx)
	if i < 0 || i >= len(elems) {
		return false
	}
	p.ReplaceWith(astx.CloneNode(elems[i], true))
	return true
}

func inlineObjectAccess(p *visit.Path, obj *astx.Node) bool {
	prop := p.Node.Get("property")
	var key string
	if p.Node.GetBool("computed") {
		if !astx.IsStringLiteral(prop) {
			return false
		}
		key, _ = prop.Fields["value"].(string)
	} else {
		if prop == nil || prop.Type != "Identifier" {
			return false
		}
		key = prop.GetString("name")
	}
	val := objectPropValue(obj, key)
	if val == nil {
		return false
	}
	p.ReplaceWith(astx.CloneNode(val, true))
	return true
}

func objectPropValue(obj *astx.Node, key string) *astx.Node {
	for _, prop := range obj.Children() {
		if prop.Type != "ObjectProperty" {
			continue
		}
		k := prop.Get("key")
		if k == nil {
			continue
		}
		var name string
		switch k.Type {
		case "Identifier":
			name = k.GetString("name")
		case "StringLiteral":
			name, _ = k.Fields["value"].(string)
		default:
			continue
		}
		if name == key {
			return prop.Get("value")
		}
	}
	return nil
}

// removeDrainedCandidates re-crawls scope after inlining and removes each
// candidate's VariableDeclarator once it has zero remaining references,
// per §4.3.5(A)'s `removeArray` option; a candidate whose references
// weren't all inlineable (out-of-range index, non-literal element, ...)
// keeps its declaration since the binding is still read.
func removeDrainedCandidates(root *astx.Node, candidates map[string]*inlineCandidate) int {
	if len(candidates) == 0 {
		return 0
	}
	scope := visit.CrawlScope(root)
	removed := 0
	v := visit.NewVisitor()
	v.On("VariableDeclaration", func(p *visit.Path) {
		declarators := p.Node.Children()
		kept := make([]*astx.Node, 0, len(declarators))
		for _, decl := range declarators {
			id := decl.Get("name")
			if id == nil {
				kept = append(kept, decl)
				continue
			}
			_, isCandidate := candidates[id.GetString("name")]
			if !isCandidate {
				kept = append(kept, decl)
				continue
			}
			b := scope.GetBinding(id.GetString("name"))
			if b != nil && len(b.ReferencePaths) > 0 {
				kept = append(kept, decl)
				continue
			}
			removed++
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
	visit.Traverse(root, v)
	return removed
}

// isNameMutated reports whether name is ever reassigned or passed to an
// Array.prototype mutator method anywhere in root, disqualifying it from
// inlining per §8's `a.push(1)` example.
func isNameMutated(root *astx.Node, name string) bool {
	mutated := false
	var walk func(*astx.Node)
	walk = func(n *astx.Node) {
		if n == nil || mutated {
			return
		}
		switch n.Type {
		case "AssignmentExpression":
			if left := n.Get("left"); left != nil && left.Type == "Identifier" && left.GetString("name") == name {
				mutated = true
				return
			}
		case "CallExpression":
			callee := n.Get("function")
			if astx.IsMemberExpression(callee) {
				obj := callee.Get("object")
				prop := callee.Get("property")
				if obj != nil && obj.Type == "Identifier" && obj.GetString("name") == name &&
					prop != nil && prop.Type == "Identifier" && mutatorMethods[prop.GetString("name")] {
					mutated = true
					return
				}
			}
		}
		for _, v := range n.Fields {
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
	walk(root)
	return mutated
}
