// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

// Tree-sitter's JS/TS/TSX grammars use snake_case node type names
// ("if_statement", "binary_expression", ...). spec.md's Node/Visitor/Path
// API is specified Babel-style (PascalCase discriminants: "IfStatement",
// "BinaryExpression", ...). tsTypeToBabel translates between the two so the
// rest of the codebase — traversal, predicates, builders, user transforms —
// only ever sees the Babel-style vocabulary, while parsing itself stays
// grounded on the teacher's tree-sitter binding.
var tsTypeToBabel = map[string]string{
	"program":                  "Program",
	"expression_statement":     "ExpressionStatement",
	"statement_block":          "BlockStatement",
	"variable_declaration":     "VariableDeclaration",
	"lexical_declaration":      "VariableDeclaration",
	"variable_declarator":      "VariableDeclarator",
	"if_statement":             "IfStatement",
	"else_clause":              "ElseClause",
	"for_statement":            "ForStatement",
	"for_in_statement":         "ForInStatement",
	"while_statement":          "WhileStatement",
	"do_statement":             "DoWhileStatement",
	"return_statement":         "ReturnStatement",
	"break_statement":          "BreakStatement",
	"continue_statement":       "ContinueStatement",
	"throw_statement":          "ThrowStatement",
	"try_statement":            "TryStatement",
	"switch_statement":         "SwitchStatement",
	"switch_case":              "SwitchCase",
	"labeled_statement":        "LabeledStatement",
	"empty_statement":          "EmptyStatement",
	"function_declaration":     "FunctionDeclaration",
	"generator_function":       "FunctionDeclaration",
	"function":                 "FunctionExpression",
	"function_expression":      "FunctionExpression",
	"arrow_function":           "ArrowFunctionExpression",
	"class_declaration":        "ClassDeclaration",
	"class":                    "ClassExpression",
	"method_definition":        "ClassMethod",
	"import_statement":         "ImportDeclaration",
	"import_clause":            "ImportClause",
	"export_statement":         "ExportDeclaration",
	"binary_expression":        "BinaryExpression", // re-split into LogicalExpression by operator, see babelType
	"unary_expression":         "UnaryExpression",
	"update_expression":        "UpdateExpression",
	"assignment_expression":    "AssignmentExpression",
	"augmented_assignment_expression": "AssignmentExpression",
	"ternary_expression":       "ConditionalExpression",
	"call_expression":          "CallExpression",
	"new_expression":           "NewExpression",
	"member_expression":        "MemberExpression",
	"subscript_expression":     "MemberExpression",
	"parenthesized_expression": "ParenthesizedExpression",
	"sequence_expression":      "SequenceExpression",
	"spread_element":           "SpreadElement",
	"rest_pattern":             "RestElement",
	"array":                    "ArrayExpression",
	"array_pattern":            "ArrayPattern",
	"object":                   "ObjectExpression",
	"object_pattern":           "ObjectPattern",
	"pair":                     "ObjectProperty",
	"shorthand_property_identifier": "ObjectProperty",
	"identifier":               "Identifier",
	"property_identifier":      "Identifier",
	"shorthand_property_identifier_pattern": "Identifier",
	"this":                     "ThisExpression",
	"super":                    "Super",
	"number":                   "NumericLiteral",
	"string":                   "StringLiteral",
	"string_fragment":          "StringFragment",
	"template_string":          "TemplateLiteral",
	"template_substitution":    "TemplateSubstitution",
	"regex":                    "RegExpLiteral",
	"true":                     "BooleanLiteral",
	"false":                    "BooleanLiteral",
	"null":                     "NullLiteral",
	"undefined":                "Identifier",
	"comment":                  "CommentLine",
	// TypeScript
	"interface_declaration":  "TSInterfaceDeclaration",
	"type_alias_declaration": "TSTypeAliasDeclaration",
	"method_signature":       "TSMethodSignature",
	"function_signature":     "TSFunctionSignature",
	// JSX
	"jsx_element":       "JSXElement",
	"jsx_self_closing_element": "JSXElement",
	"jsx_fragment":      "JSXFragment",
}

// logicalOperators is the operator set that splits a tree-sitter
// "binary_expression" into spec.md's LogicalExpression discriminant
// (§4.3.2: `&&`, `||`, `??` short-circuit).
var logicalOperators = map[string]bool{
	"&&": true,
	"||": true,
	"??": true,
}

// wordUnaryOperators need a separating space from their operand when
// synthesized ("typeof x", not "typeofx").
var wordUnaryOperators = map[string]bool{
	"typeof": true,
	"void":   true,
	"delete": true,
}

func babelType(tsType, operator string) string {
	mapped, ok := tsTypeToBabel[tsType]
	if !ok {
		return tsType
	}
	if mapped == "BinaryExpression" && logicalOperators[operator] {
		return "LogicalExpression"
	}
	return mapped
}

func isLiteralTSType(tsType string) bool {
	switch tsType {
	case "number", "string", "true", "false", "null", "regex", "template_string":
		return true
	}
	return false
}
