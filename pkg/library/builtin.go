// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package library implements spec.md §4.5: discovery and storage for
// built-in passes, folder-based plugin packs, and blob-per-id saved
// plugins/scripts/projects.
package library

import (
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/confighints"
	"github.com/kraklabs/jsdeobfuscator/pkg/passes"
)

// BuiltinFunc is the pure `func(ast, config) stats` shape every pass in
// pkg/passes implements (§4.3).
type BuiltinFunc func(root *astx.Node, config map[string]any) map[string]any

// BuiltinMeta is §4.5's built-in catalogue entry: `{ name, description,
// category, configSchema }` plus the function itself and the bookkeeping
// needed to serve its canonical source text.
type BuiltinMeta struct {
	ID            string                        `json:"id"`
	Name          string                        `json:"name"`
	Description   string                        `json:"description"`
	Category      string                        `json:"category"`
	ConfigSchema  map[string]confighints.Hint    `json:"configSchema"`
	ExampleCode   string                         `json:"exampleCode"`
	Fn            BuiltinFunc                    `json:"-"`
	sourceFile    string
	sourceFunc    string
}

// Builtins is the stable-id catalogue §4.5 requires be "enumerated in
// code". Ids match the `id`s named throughout spec.md §4.3.
var Builtins = map[string]BuiltinMeta{
	"constantFolding": {
		ID: "constantFolding", Name: "Constant Folding",
		Description: "Folds arithmetic between two numeric literals (+ - * /), skipping results that overflow to Infinity/NaN.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{},
		ExampleCode:  "var x = 1 + 2 + 3; // with iterations: 2 -> var x = 6;",
		Fn:           passes.ConstantFolding,
		sourceFile:   "constant_folding.go", sourceFunc: "ConstantFolding",
	},
	"opaquePredicateRemoval": {
		ID: "opaquePredicateRemoval", Name: "Opaque Predicate Removal",
		Description: "Collapses if/conditional/logical expressions whose test is confidently evaluable, dropping the dead branch.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{
			"removeDeadElse": {Type: "boolean", Default: true, Description: "Collapse an if whose test is confidently falsy to its else branch (or remove it when there is none)"},
			"removeDeadIf":   {Type: "boolean", Default: true, Description: "Collapse an if whose test is confidently truthy to its consequent"},
			"foldTernary":    {Type: "boolean", Default: true, Description: "Fold a ConditionalExpression with a confident test"},
			"foldLogical":    {Type: "boolean", Default: true, Description: "Fold && / || / ?? with a confident left operand"},
			"unwrapBlocks":   {Type: "boolean", Default: true, Description: "Unwrap a taken branch's block into its parent statement list"},
		},
		ExampleCode: "if (true) { a(); } else { b(); } // -> a();",
		Fn:          passes.OpaquePredicateRemoval,
		sourceFile:  "opaque_predicate.go", sourceFunc: "OpaquePredicateRemoval",
	},
	"removeUnusedCode": {
		ID: "removeUnusedCode", Name: "Remove Unused Code",
		Description: "Loop-until-no-progress removal of variable/function/class/import declarations with no remaining references.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{},
		ExampleCode:  "var unused = 1; var used = 2; f(used); // -> var used = 2; f(used);",
		Fn:           passes.RemoveUnusedCode,
		sourceFile:   "remove_unused.go", sourceFunc: "RemoveUnusedCode",
	},
	"decodeStrings": {
		ID: "decodeStrings", Name: "Decode Strings",
		Description: "Decodes hex/unicode string escapes and inlines String.fromCharCode, atob, char-access, split/reverse/join, and literal replace calls. Every operation is opt-in.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{
			"all":             {Type: "boolean", Default: false, Description: "Enable every decode operation"},
			"hex":             {Type: "boolean", Default: false, Description: "Decode \\xNN escapes"},
			"unicode":         {Type: "boolean", Default: false, Description: "Decode \\uNNNN escapes"},
			"fromCharCode":    {Type: "boolean", Default: false, Description: "Inline String.fromCharCode(...) of literal args"},
			"atob":            {Type: "boolean", Default: false, Description: "Inline atob(\"...\") of a literal base64 string"},
			"charAccess":      {Type: "boolean", Default: false, Description: "Inline literal.charAt/charCodeAt(n) and literal[n]"},
			"splitReverseJoin": {Type: "boolean", Default: false, Description: "Inline literal.split(d1).reverse().join(d2)"},
			"replace":         {Type: "boolean", Default: false, Description: "Inline literal.replace(pattern, replacement) for literal patterns"},
			"maxStringLength": {Type: "number", Default: 50000, Description: "Skip inlining a decode result longer than this many bytes"},
		},
		ExampleCode: `String.fromCharCode(72,105); // with all:true -> "Hi"`,
		Fn:          passes.DecodeStrings,
		sourceFile:  "decode_strings.go", sourceFunc: "DecodeStrings",
	},
	"inlineArrayValues": {
		ID: "inlineArrayValues", Name: "Inline Array/Object Values",
		Description: "Inlines literal-only array/object declarations into their index/property read sites, when the name is never reassigned or mutated.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{
			"removeArray": {Type: "boolean", Default: false, Description: "Delete the declaration once every reference is inlined"},
		},
		ExampleCode: `var a=["x","y"]; f(a[0]); // with removeArray:true -> f("x");`,
		Fn:          passes.InlineArrayValues,
		sourceFile:  "inline_values.go", sourceFunc: "InlineArrayValues",
	},
	"inlineStringArray": {
		ID: "inlineStringArray", Name: "Inline Obfuscated String Array",
		Description: "The obfuscated-string-array variant of inlineArrayValues: targets hex-like (_0x...) names by default and allows any constant-foldable index expression.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{
			"removeArray": {Type: "boolean", Default: true, Description: "Delete the declaration once every reference is inlined"},
			"pattern":     {Type: "string", Default: "^_0x[0-9a-fA-F]+$", Description: "Regular expression the array's identifier must match"},
		},
		ExampleCode: `var _0x1a2b=["Hi"]; f(_0x1a2b[0]); // -> f("Hi");`,
		Fn:          passes.InlineStringArray,
		sourceFile:  "inline_values.go", sourceFunc: "InlineStringArray",
	},
	"simplifyLiterals": {
		ID: "simplifyLiterals", Name: "Simplify Literals",
		Description: "Idempotent rewrites of !0/!1, void <literal>, typeof <literal>, x/0 identities, and hex/binary/octal numeric lexeme normalization.",
		Category:    "builtin",
		ConfigSchema: map[string]confighints.Hint{
			"convertToIdentifier": {Type: "boolean", Default: false, Description: "Emit true/false identifiers instead of BooleanLiteral nodes"},
		},
		ExampleCode: `!0; void 0; typeof "x"; 0/0; // -> true; undefined; "string"; NaN;`,
		Fn:          passes.SimplifyLiterals,
		sourceFile:  "simplify_literals.go", sourceFunc: "SimplifyLiterals",
	},
}

// BuiltinSource serves §6's GET /api/transform/builtin-source/:id.
func BuiltinSource(id string) (string, error) {
	meta, ok := Builtins[id]
	if !ok {
		return "", &NotFoundError{Kind: "builtin", ID: id}
	}
	return passes.Source(meta.sourceFile, meta.sourceFunc)
}
