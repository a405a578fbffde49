// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// DecodeStrings implements §4.3.4. Every operation is opt-in: each is
// enabled individually, or all of them via `config.all`. String.fromCharCode
// and atob results longer than maxStringLength (default 50,000) are left
// un-inlined; the other operations do not check the length.
func DecodeStrings(root *astx.Node, config map[string]any) map[string]any {
	all := boolOpt(config, "all", false)
	enable := func(key string) bool { return all || boolOpt(config, key, false) }
	maxLen := intOpt(config, "maxStringLength", 50000)

	stats := map[string]any{
		"hexEscapesDecoded":     0,
		"unicodeEscapesDecoded": 0,
		"fromCharCodeInlined":   0,
		"atobInlined":           0,
		"charAccessInlined":     0,
		"splitReverseJoined":    0,
		"literalReplaced":       0,
	}
	bump := func(key string) { stats[key] = stats[key].(int) + 1 }

	v := visit.NewVisitor()

	if enable("hex") || enable("unicode") {
		v.On("StringLiteral", func(p *visit.Path) {
			raw := p.Node.Raw
			if raw == "" {
				return
			}
			decoded := raw
			if enable("hex") {
				if next, changed := decodeHexEscapes(decoded); changed {
					decoded = next
					bump("hexEscapesDecoded")
				}
			}
			if enable("unicode") {
				if next, changed := decodeUnicodeEscapes(decoded); changed {
					decoded = next
					bump("unicodeEscapesDecoded")
				}
			}
			if decoded != raw {
				p.Node.Raw = decoded
				p.Node.Set("value", unquoteJSStringLocal(decoded))
			}
		}, nil)
	}

	v.On("CallExpression", func(p *visit.Path) {
		callee := p.Node.Get("function")

		if enable("fromCharCode") && isMemberCall(callee, "String", "fromCharCode") {
			args := p.Node.GetList("arguments")
			var sb strings.Builder
			allLiteral := len(args) > 0
			for _, a := range args {
				if !astx.IsNumericLiteral(a) {
					allLiteral = false
					break
				}
				n, _ := a.GetFloat("value")
				sb.WriteRune(rune(int(n)))
			}
			if allLiteral && sb.Len() <= maxLen {
				p.ReplaceWith(astx.StringLiteral(sb.String()))
				bump("fromCharCodeInlined")
			}
			return
		}

		if enable("atob") && isIdentifierCall(callee, "atob") {
			args := p.Node.GetList("arguments")
			if len(args) == 1 && astx.IsStringLiteral(args[0]) {
				lit, _ := args[0].Fields["value"].(string)
				if decoded, err := base64.StdEncoding.DecodeString(lit); err == nil && len(decoded) <= maxLen {
					p.ReplaceWith(astx.StringLiteral(string(decoded)))
					bump("atobInlined")
				}
			}
			return
		}

		if enable("charAccess") {
			if tryInlineCharAccess(p, callee) {
				bump("charAccessInlined")
				return
			}
		}

		if enable("splitReverseJoin") && tryInlineSplitReverseJoin(p) {
			bump("splitReverseJoined")
			return
		}

		if enable("replace") && tryInlineReplace(p, callee) {
			bump("literalReplaced")
		}
	}, nil)

	if enable("charAccess") {
		v.On("MemberExpression", func(p *visit.Path) {
			if !p.Node.GetBool("computed") {
				return
			}
			obj := p.Node.Get("object")
			idx := p.Node.Get("property")
			if !astx.IsStringLiteral(obj) || !astx.IsNumericLiteral(idx) {
				return
			}
			str, _ := obj.Fields["value"].(string)
			n, _ := idx.GetFloat("value")
			i := int(n)
			runes := []rune(str)
			if i < 0 || i >= len(runes) {
				return
			}
			p.ReplaceWith(astx.StringLiteral(string(runes[i])))
			bump("charAccessInlined")
		}, nil)
	}

	visit.Traverse(root, v)

	total := 0
	for _, v := range stats {
		total += v.(int)
	}
	stats["changes"] = total
	return stats
}

func isMemberCall(callee *astx.Node, objectName, propertyName string) bool {
	if !astx.IsMemberExpression(callee) {
		return false
	}
	obj := callee.Get("object")
	prop := callee.Get("property")
	return astx.IsIdentifier(obj) && obj.GetString("name") == objectName &&
		astx.IsIdentifier(prop) && prop.GetString("name") == propertyName
}

func isIdentifierCall(callee *astx.Node, name string) bool {
	return astx.IsIdentifier(callee) && callee.GetString("name") == name
}

// tryInlineCharAccess handles `lit.charAt(n)` / `lit.charCodeAt(n)`.
func tryInlineCharAccess(p *visit.Path, callee *astx.Node) bool {
	if !astx.IsMemberExpression(callee) {
		return false
	}
	obj := callee.Get("object")
	prop := callee.Get("property")
	if !astx.IsStringLiteral(obj) || !astx.IsIdentifier(prop) {
		return false
	}
	args := p.Node.GetList("arguments")
	if len(args) != 1 || !astx.IsNumericLiteral(args[0]) {
		return false
	}
	str, _ := obj.Fields["value"].(string)
	n, _ := args[0].GetFloat("value")
	i := int(n)
	runes := []rune(str)
	if i < 0 || i >= len(runes) {
		return false
	}
	switch prop.GetString("name") {
	case "charAt":
		p.ReplaceWith(astx.StringLiteral(string(runes[i])))
		return true
	case "charCodeAt":
		p.ReplaceWith(astx.NumericLiteral(float64(runes[i])))
		return true
	}
	return false
}

// tryInlineSplitReverseJoin handles `lit.split(d1).reverse().join(d2)`.
func tryInlineSplitReverseJoin(p *visit.Path) bool {
	joinCallee := p.Node.Get("function")
	if !astx.IsMemberExpression(joinCallee) || joinCallee.Get("property").GetString("name") != "join" {
		return false
	}
	reverseExpr := joinCallee.Get("object")
	if !astx.IsCallExpression(reverseExpr) {
		return false
	}
	reverseCallee := reverseExpr.Get("function")
	if !astx.IsMemberExpression(reverseCallee) || reverseCallee.Get("property").GetString("name") != "reverse" {
		return false
	}
	splitExpr := reverseCallee.Get("object")
	if !astx.IsCallExpression(splitExpr) {
		return false
	}
	splitCallee := splitExpr.Get("function")
	if !astx.IsMemberExpression(splitCallee) || splitCallee.Get("property").GetString("name") != "split" {
		return false
	}
	lit := splitCallee.Get("object")
	if !astx.IsStringLiteral(lit) {
		return false
	}
	splitArgs := splitExpr.GetList("arguments")
	joinArgs := p.Node.GetList("arguments")
	if len(splitArgs) != 1 || !astx.IsStringLiteral(splitArgs[0]) {
		return false
	}
	d1, _ := splitArgs[0].Fields["value"].(string)
	d2 := ""
	if len(joinArgs) == 1 {
		if !astx.IsStringLiteral(joinArgs[0]) {
			return false
		}
		d2, _ = joinArgs[0].Fields["value"].(string)
	}
	str, _ := lit.Fields["value"].(string)
	parts := strings.Split(str, d1)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	p.ReplaceWith(astx.StringLiteral(strings.Join(parts, d2)))
	return true
}

// tryInlineReplace handles `lit.replace(pattern, literal)` where pattern
// is a literal string (regex-literal patterns are out of scope: the
// parser doesn't expose RegExpLiteral's decomposed flags/source here).
func tryInlineReplace(p *visit.Path, callee *astx.Node) bool {
	if !astx.IsMemberExpression(callee) || callee.Get("property").GetString("name") != "replace" {
		return false
	}
	lit := callee.Get("object")
	if !astx.IsStringLiteral(lit) {
		return false
	}
	args := p.Node.GetList("arguments")
	if len(args) != 2 || !astx.IsStringLiteral(args[0]) || !astx.IsStringLiteral(args[1]) {
		return false
	}
	str, _ := lit.Fields["value"].(string)
	pattern, _ := args[0].Fields["value"].(string)
	replacement, _ := args[1].Fields["value"].(string)
	p.ReplaceWith(astx.StringLiteral(strings.Replace(str, pattern, replacement, 1)))
	return true
}

func decodeHexEscapes(raw string) (string, bool) {
	changed := false
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+3 < len(raw) && raw[i+1] == 'x' {
			if n, err := strconv.ParseUint(raw[i+2:i+4], 16, 8); err == nil {
				sb.WriteByte(byte(n))
				i += 3
				changed = true
				continue
			}
		}
		sb.WriteByte(raw[i])
	}
	return sb.String(), changed
}

func decodeUnicodeEscapes(raw string) (string, bool) {
	changed := false
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+5 < len(raw) && raw[i+1] == 'u' {
			if n, err := strconv.ParseUint(raw[i+2:i+6], 16, 32); err == nil {
				sb.WriteRune(rune(n))
				i += 5
				changed = true
				continue
			}
		}
		sb.WriteByte(raw[i])
	}
	return sb.String(), changed
}

// unquoteJSStringLocal strips the outer quote characters from the
// re-decoded Raw lexeme; unlike astx's unexported unquoteJSString it
// resolves no escape sequences.
func unquoteJSStringLocal(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	return raw[1 : len(raw)-1]
}
