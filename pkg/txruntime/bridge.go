// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package txruntime

import (
	"github.com/dop251/goja"
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// bridge converts between the astx/visit model and goja values for the
// duration of one transform invocation. It keeps an identity map so that a
// node handed to user code and later passed back (e.g. to replaceWith) is
// recognized as the same *astx.Node rather than re-synthesized.
type bridge struct {
	vm       *goja.Runtime
	nodeToJS map[*astx.Node]*goja.Object
	jsToNode map[*goja.Object]*astx.Node
}

func newBridge(vm *goja.Runtime) *bridge {
	return &bridge{
		vm:       vm,
		nodeToJS: map[*astx.Node]*goja.Object{},
		jsToNode: map[*goja.Object]*astx.Node{},
	}
}

// wrapNode exposes n as a live JS object: reading a field calls through to
// n.Fields, writing one calls n.Set (marking n dirty), matching the mutable
// tagged-union contract spec.md §3 describes for user transforms.
func (b *bridge) wrapNode(n *astx.Node) goja.Value {
	if n == nil {
		return goja.Undefined()
	}
	if obj, ok := b.nodeToJS[n]; ok {
		return obj
	}
	obj := b.vm.NewObject()
	b.nodeToJS[n] = obj
	b.jsToNode[obj] = n

	_ = obj.DefineAccessorProperty("type", b.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(n.Type)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	for key := range n.Fields {
		b.defineFieldAccessor(obj, n, key)
	}
	// children/arguments/etc. may be populated after construction; expose a
	// handful of well-known slots eagerly even if currently empty so `in`
	// checks and iteration in user code behave predictably.
	for _, key := range []string{"children", "arguments"} {
		if _, ok := n.Fields[key]; !ok {
			b.defineFieldAccessor(obj, n, key)
		}
	}
	return obj
}

func (b *bridge) defineFieldAccessor(obj *goja.Object, n *astx.Node, key string) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return b.toJSValue(n.Fields[key])
	})
	setter := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		n.Set(key, b.toGoValue(call.Argument(0)))
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(key, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// toJSValue converts a Fields map value (string/float64/bool/*Node/[]*Node/
// nil) into a goja value.
func (b *bridge) toJSValue(v astx.Value) goja.Value {
	switch val := v.(type) {
	case nil:
		return goja.Undefined()
	case *astx.Node:
		return b.wrapNode(val)
	case []*astx.Node:
		arr := b.vm.NewArray()
		for i, child := range val {
			_ = arr.Set(itoa(i), b.wrapNode(child))
		}
		return arr
	default:
		return b.vm.ToValue(val)
	}
}

// toGoValue converts a goja value written into a node field back into the
// Fields representation: an already-wrapped node keeps its identity; an
// array is recursively converted; a plain object with a `type` string is
// treated as a freshly-built node description; everything else exports
// through goja's native conversion.
func (b *bridge) toGoValue(v goja.Value) astx.Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, isObj := v.(*goja.Object)
	if !isObj {
		return v.Export()
	}
	if n, ok := b.jsToNode[obj]; ok {
		return n
	}
	if obj.ClassName() == "Array" {
		length := obj.Get("length").ToInteger()
		list := make([]*astx.Node, 0, length)
		for i := int64(0); i < length; i++ {
			child := b.toGoValue(obj.Get(itoa(int(i))))
			if node, ok := child.(*astx.Node); ok {
				list = append(list, node)
			}
		}
		return list
	}
	if t := obj.Get("type"); t != nil && !goja.IsUndefined(t) {
		return b.objectToNode(obj)
	}
	return v.Export()
}

// objectToNode adopts a plain JS object shaped like a node (has a `type`
// string) as a new, dirty *astx.Node, recursively converting its own
// enumerable properties.
func (b *bridge) objectToNode(obj *goja.Object) *astx.Node {
	n := astx.NewNode(obj.Get("type").String(), map[string]astx.Value{})
	for _, key := range obj.Keys() {
		if key == "type" {
			continue
		}
		n.Fields[key] = b.toGoValue(obj.Get(key))
	}
	b.nodeToJS[n] = obj
	b.jsToNode[obj] = n
	return n
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// wrapPath exposes a *visit.Path as a JS object carrying the mutator/
// predicate/evaluate API spec.md §3 lists, plus a `node` property holding
// the live node wrapper.
func (b *bridge) wrapPath(p *visit.Path) goja.Value {
	if p == nil {
		return goja.Undefined()
	}
	obj := b.vm.NewObject()
	_ = obj.Set("node", b.wrapNode(p.Node))
	_ = obj.Set("type", p.Type)
	_ = obj.Set("get", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		return b.wrapPath(p.Get(key))
	})
	_ = obj.Set("replaceWith", func(call goja.FunctionCall) goja.Value {
		n, _ := b.toGoValue(call.Argument(0)).(*astx.Node)
		p.ReplaceWith(n)
		return goja.Undefined()
	})
	_ = obj.Set("replaceWithMultiple", func(call goja.FunctionCall) goja.Value {
		raw := b.toGoValue(call.Argument(0))
		nodes, _ := raw.([]*astx.Node)
		p.ReplaceWithMultiple(nodes)
		return goja.Undefined()
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		p.Remove()
		return goja.Undefined()
	})
	_ = obj.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		p.InsertBefore(b.argsToNodes(call)...)
		return goja.Undefined()
	})
	_ = obj.Set("insertAfter", func(call goja.FunctionCall) goja.Value {
		p.InsertAfter(b.argsToNodes(call)...)
		return goja.Undefined()
	})
	_ = obj.Set("skip", func(goja.FunctionCall) goja.Value {
		p.Skip()
		return goja.Undefined()
	})
	_ = obj.Set("stop", func(goja.FunctionCall) goja.Value {
		p.Stop()
		return goja.Undefined()
	})
	_ = obj.Set("evaluate", func(goja.FunctionCall) goja.Value {
		result := p.Evaluate()
		out := b.vm.NewObject()
		_ = out.Set("confident", result.Confident)
		_ = out.Set("value", result.Value)
		return out
	})
	for _, typ := range []string{
		"Identifier", "NumericLiteral", "StringLiteral", "IfStatement",
		"BinaryExpression", "LogicalExpression", "ConditionalExpression",
		"CallExpression", "MemberExpression",
	} {
		typ := typ
		_ = obj.Set("is"+typ, func(goja.FunctionCall) goja.Value {
			return b.vm.ToValue(p.IsNode(typ))
		})
	}
	return obj
}

func (b *bridge) argsToNodes(call goja.FunctionCall) []*astx.Node {
	nodes := make([]*astx.Node, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		if n, ok := b.toGoValue(arg).(*astx.Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
