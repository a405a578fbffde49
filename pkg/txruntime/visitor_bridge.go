// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package txruntime

import (
	"strings"

	"github.com/dop251/goja"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// jsVisitorToGo adapts a JS object shaped like a Babel visitor (keys are
// node-type names mapping to either a function or an {enter, exit} pair,
// plus optional top-level enter/exit) into a *visit.Visitor. This is the
// "visitor-object-as-plugin" idiom spec.md §4.2/§9 describes.
func (b *bridge) jsVisitorToGo(obj *goja.Object) *visit.Visitor {
	v := visit.NewVisitor()
	for _, key := range obj.Keys() {
		val := obj.Get(key)
		switch key {
		case "enter":
			if fn, ok := goja.AssertFunction(val); ok {
				v.Enter = b.wrapHandler(fn)
			}
		case "exit":
			if fn, ok := goja.AssertFunction(val); ok {
				v.Exit = b.wrapHandler(fn)
			}
		default:
			if fn, ok := goja.AssertFunction(val); ok {
				v.On(key, b.wrapHandler(fn), nil)
				continue
			}
			if pairObj, ok := val.(*goja.Object); ok {
				var enter, exit func(p *visit.Path)
				if fn, ok := goja.AssertFunction(pairObj.Get("enter")); ok {
					enter = b.wrapHandler(fn)
				}
				if fn, ok := goja.AssertFunction(pairObj.Get("exit")); ok {
					exit = b.wrapHandler(fn)
				}
				if enter != nil || exit != nil {
					v.On(key, enter, exit)
				}
			}
		}
	}
	return v
}

func (b *bridge) wrapHandler(fn goja.Callable) func(p *visit.Path) {
	return func(p *visit.Path) {
		_, _ = fn(goja.Undefined(), b.wrapPath(p))
	}
}

// looksLikeVisitor implements spec.md §4.2's detection rule for
// `module.exports`: "keys look like node-type names (initial capital) or
// contain `enter`".
func looksLikeVisitor(obj *goja.Object) bool {
	for _, key := range obj.Keys() {
		if key == "enter" || strings.Contains(key, "enter") {
			return true
		}
		if len(key) > 0 && key[0] >= 'A' && key[0] <= 'Z' {
			return true
		}
	}
	return false
}
