// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package txruntime

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// LogEntry is one `console.*` call captured during a transform invocation.
type LogEntry struct {
	Type string   `json:"type"`
	Args []string `json:"args"`
}

// invocation holds the mutable, per-run state the capability object closes
// over: whether any traverse call happened (`modified`), the stats object,
// and captured console output.
type invocation struct {
	br        *bridge
	ast       *astx.Node
	modified  bool
	statsObj  *goja.Object
	logs      []LogEntry
	allowEval bool
}

// buildCapabilities installs the exact namespace spec.md §4.2 enumerates
// into vm's global object: ast, traverse, t/types, config, stats, console,
// parser, generate, run, module/exports.
func (r *Runtime) buildCapabilities(vm *goja.Runtime, inv *invocation, config map[string]any) *goja.Object {
	_ = vm.Set("ast", inv.br.wrapNode(inv.ast))

	_ = vm.Set("traverse", func(call goja.FunctionCall) goja.Value {
		var root *astx.Node
		var visitorArg goja.Value
		if len(call.Arguments) == 1 {
			root = inv.ast
			visitorArg = call.Argument(0)
		} else if len(call.Arguments) >= 2 {
			astLike := call.Argument(0)
			if obj, ok := astLike.(*goja.Object); ok {
				if n, ok := inv.br.jsToNode[obj]; ok {
					root = n
				}
			}
			visitorArg = call.Argument(1)
		}
		visitorObj, ok := visitorArg.(*goja.Object)
		if !ok || root == nil {
			panic(vm.NewTypeError("traverse requires (visitor) or (ast, visitor) where ast has a type field"))
		}
		v := inv.br.jsVisitorToGo(visitorObj)
		visit.Traverse(root, v)
		inv.modified = true
		return goja.Undefined()
	})

	_ = vm.Set("t", r.buildTypesModule(vm, inv.br))
	_ = vm.Set("types", r.buildTypesModule(vm, inv.br))

	_ = vm.Set("config", vm.ToValue(config))

	inv.statsObj = vm.NewObject()
	_ = vm.Set("stats", inv.statsObj)

	_ = vm.Set("console", r.buildConsole(vm, inv))

	_ = vm.Set("parser", r.buildParser(vm, inv.br))

	_ = vm.Set("generate", func(call goja.FunctionCall) goja.Value {
		n, _ := inv.br.toGoValue(call.Argument(0)).(*astx.Node)
		code, err := astx.Generate(&astx.AST{Root: n}, astx.GenerateOptions{})
		out := vm.NewObject()
		if err != nil {
			_ = out.Set("error", err.Error())
			return out
		}
		_ = out.Set("code", code)
		return out
	})

	_ = vm.Set("run", func(call goja.FunctionCall) goja.Value {
		if !inv.allowEval {
			inv.logs = append(inv.logs, LogEntry{Type: "error", Args: []string{"run() disabled by policy"}})
			return goja.Undefined()
		}
		code := call.Argument(0).String()
		result, err := vm.RunString(code)
		if err != nil {
			inv.logs = append(inv.logs, LogEntry{Type: "error", Args: []string{err.Error()}})
			return goja.Undefined()
		}
		return result
	})

	module := vm.NewObject()
	exports := vm.NewObject()
	_ = module.Set("exports", exports)
	_ = vm.Set("module", module)
	_ = vm.Set("exports", exports)

	return module
}

func (r *Runtime) buildConsole(vm *goja.Runtime, inv *invocation) *goja.Object {
	obj := vm.NewObject()
	logFn := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.String()
			}
			inv.logs = append(inv.logs, LogEntry{Type: level, Args: args})
			return goja.Undefined()
		}
	}
	_ = obj.Set("log", logFn("log"))
	_ = obj.Set("info", logFn("info"))
	_ = obj.Set("warn", logFn("warn"))
	_ = obj.Set("error", logFn("error"))
	return obj
}

func (r *Runtime) buildParser(vm *goja.Runtime, br *bridge) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("parse", func(call goja.FunctionCall) goja.Value {
		code := call.Argument(0).String()
		opts := astx.ParseOptions{AllowReturnOutsideFunction: true}
		ast, err := astx.Parse([]byte(code), opts)
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("parser.parse: %w", err)))
		}
		return br.wrapNode(ast.Root)
	})
	return obj
}

// buildTypesModule exposes astx's predicates and builders as goja-callable
// functions under a single `t`/`types` object (spec.md §4.2).
func (r *Runtime) buildTypesModule(vm *goja.Runtime, br *bridge) *goja.Object {
	obj := vm.NewObject()

	predicate := func(fn func(*astx.Node) bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			n, _ := br.toGoValue(call.Argument(0)).(*astx.Node)
			return vm.ToValue(fn(n))
		}
	}
	_ = obj.Set("isIdentifier", predicate(astx.IsIdentifier))
	_ = obj.Set("isNumericLiteral", predicate(astx.IsNumericLiteral))
	_ = obj.Set("isStringLiteral", predicate(astx.IsStringLiteral))
	_ = obj.Set("isBooleanLiteral", predicate(astx.IsBooleanLiteral))
	_ = obj.Set("isNullLiteral", predicate(astx.IsNullLiteral))
	_ = obj.Set("isBinaryExpression", predicate(astx.IsBinaryExpression))
	_ = obj.Set("isLogicalExpression", predicate(astx.IsLogicalExpression))
	_ = obj.Set("isUnaryExpression", predicate(astx.IsUnaryExpression))
	_ = obj.Set("isConditionalExpression", predicate(astx.IsConditionalExpression))
	_ = obj.Set("isCallExpression", predicate(astx.IsCallExpression))
	_ = obj.Set("isMemberExpression", predicate(astx.IsMemberExpression))
	_ = obj.Set("isIfStatement", predicate(astx.IsIfStatement))
	_ = obj.Set("isBlockStatement", predicate(astx.IsBlockStatement))
	_ = obj.Set("isVariableDeclaration", predicate(astx.IsVariableDeclaration))
	_ = obj.Set("isArrayExpression", predicate(astx.IsArrayExpression))
	_ = obj.Set("isObjectExpression", predicate(astx.IsObjectExpression))
	_ = obj.Set("isProgram", predicate(astx.IsProgram))

	arg := func(call goja.FunctionCall, i int) *astx.Node {
		n, _ := br.toGoValue(call.Argument(i)).(*astx.Node)
		return n
	}

	_ = obj.Set("identifier", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.Identifier(call.Argument(0).String()))
	})
	_ = obj.Set("numericLiteral", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.NumericLiteral(call.Argument(0).ToFloat()))
	})
	_ = obj.Set("stringLiteral", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.StringLiteral(call.Argument(0).String()))
	})
	_ = obj.Set("booleanLiteral", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.BooleanLiteral(call.Argument(0).ToBoolean()))
	})
	_ = obj.Set("nullLiteral", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.NullLiteral())
	})
	_ = obj.Set("binaryExpression", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.BinaryExpression(call.Argument(0).String(), arg(call, 1), arg(call, 2)))
	})
	_ = obj.Set("logicalExpression", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.LogicalExpression(call.Argument(0).String(), arg(call, 1), arg(call, 2)))
	})
	_ = obj.Set("unaryExpression", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.UnaryExpression(call.Argument(0).String(), arg(call, 1), call.Argument(2).ToBoolean()))
	})
	_ = obj.Set("conditionalExpression", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.ConditionalExpression(arg(call, 0), arg(call, 1), arg(call, 2)))
	})
	_ = obj.Set("callExpression", func(call goja.FunctionCall) goja.Value {
		args, _ := br.toGoValue(call.Argument(1)).([]*astx.Node)
		return br.wrapNode(astx.CallExpression(arg(call, 0), args))
	})
	_ = obj.Set("memberExpression", func(call goja.FunctionCall) goja.Value {
		return br.wrapNode(astx.MemberExpression(arg(call, 0), arg(call, 1), call.Argument(2).ToBoolean()))
	})
	_ = obj.Set("cloneNode", func(call goja.FunctionCall) goja.Value {
		n := arg(call, 0)
		deep := true
		if len(call.Arguments) > 1 {
			deep = call.Argument(1).ToBoolean()
		}
		return br.wrapNode(astx.CloneNode(n, deep))
	})

	return obj
}
