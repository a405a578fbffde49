// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

// Builders construct detached (Dirty) nodes, mirroring spec.md §3/§9's `t`/
// `types` module: "one builder per variant". Built-in passes (pkg/passes)
// and user transforms (via pkg/txruntime's `t`/`types` capability) use
// these instead of hand-assembling Fields maps.

func Identifier(name string) *Node {
	return NewNode("Identifier", map[string]Value{"name": name})
}

func NumericLiteral(value float64) *Node {
	n := NewNode("NumericLiteral", map[string]Value{"value": value})
	return n
}

func StringLiteral(value string) *Node {
	return NewNode("StringLiteral", map[string]Value{"value": value})
}

func BooleanLiteral(value bool) *Node {
	return NewNode("BooleanLiteral", map[string]Value{"value": value})
}

func NullLiteral() *Node {
	return NewNode("NullLiteral", nil)
}

func BinaryExpression(operator string, left, right *Node) *Node {
	return NewNode("BinaryExpression", map[string]Value{
		"operator": operator, "left": left, "right": right,
	})
}

func LogicalExpression(operator string, left, right *Node) *Node {
	return NewNode("LogicalExpression", map[string]Value{
		"operator": operator, "left": left, "right": right,
	})
}

func UnaryExpression(operator string, argument *Node, prefix bool) *Node {
	return NewNode("UnaryExpression", map[string]Value{
		"operator": operator, "argument": argument, "prefix": prefix,
	})
}

func ConditionalExpression(test, consequent, alternate *Node) *Node {
	return NewNode("ConditionalExpression", map[string]Value{
		"condition": test, "consequence": consequent, "alternative": alternate,
	})
}

func CallExpression(callee *Node, args []*Node) *Node {
	return NewNode("CallExpression", map[string]Value{
		"function": callee, "arguments": args,
	})
}

func MemberExpression(object, property *Node, computed bool) *Node {
	return NewNode("MemberExpression", map[string]Value{
		"object": object, "property": property, "computed": computed,
	})
}

func ArrayExpression(elements []*Node) *Node {
	n := NewNode("ArrayExpression", nil)
	n.Fields["children"] = elements
	return n
}

func ObjectProperty(key, value *Node) *Node {
	return NewNode("ObjectProperty", map[string]Value{"key": key, "value": value})
}

func ObjectExpression(properties []*Node) *Node {
	n := NewNode("ObjectExpression", nil)
	n.Fields["children"] = properties
	return n
}

func ExpressionStatement(expr *Node) *Node {
	return NewNode("ExpressionStatement", map[string]Value{"expression": expr})
}

func BlockStatement(body []*Node) *Node {
	n := NewNode("BlockStatement", nil)
	n.Fields["children"] = body
	return n
}

func IfStatement(test, consequent, alternate *Node) *Node {
	fields := map[string]Value{"condition": test, "consequence": consequent}
	if alternate != nil {
		fields["alternative"] = alternate
	}
	return NewNode("IfStatement", fields)
}

func ReturnStatement(argument *Node) *Node {
	fields := map[string]Value{}
	if argument != nil {
		fields["argument"] = argument
	}
	return NewNode("ReturnStatement", fields)
}

func VariableDeclarator(name string, init *Node) *Node {
	fields := map[string]Value{"name": Identifier(name)}
	if init != nil {
		fields["value"] = init
	}
	return NewNode("VariableDeclarator", fields)
}

func VariableDeclaration(kind string, declarators ...*Node) *Node {
	n := NewNode("VariableDeclaration", map[string]Value{"kind": kind})
	n.Fields["children"] = declarators
	return n
}

func Program(body []*Node) *Node {
	n := NewNode("Program", nil)
	n.Fields["children"] = body
	return n
}

// NumericLiteralFromLexeme preserves a raw numeric lexeme (e.g. "0x10")
// while also recording the evaluated value, so a pass that only changes the
// lexeme (§4.3.6's hex/binary/octal-to-decimal normalization) can drop Raw
// without fabricating a new value.
func NumericLiteralFromLexeme(raw string) *Node {
	n := NumericLiteral(0)
	n.Raw = raw
	if v, ok := literalValue("number", raw); ok {
		n.Fields["value"] = v
	}
	return n
}
