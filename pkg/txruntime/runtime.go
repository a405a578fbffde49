// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package txruntime hosts one user-authored transform invocation against a
// shared AST (spec.md §4.2): it builds the capability object exposed to
// transform code, runs the code through goja, and reports whether the AST
// was modified.
package txruntime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dop251/goja"
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// Options mirrors spec.md §4.2's `{ inputIsAST, returnAST }`.
type Options struct {
	InputIsAST bool
	ReturnAST  bool
}

// Output is `{ code?, ast?, stats, logs, modified }`.
type Output struct {
	Code     *string
	AST      *astx.Node
	Stats    map[string]any
	Logs     []LogEntry
	Modified bool
}

// Runtime hosts transform invocations. AllowEval gates the `run()`
// capability by policy (JSDEOB_ALLOW_EVAL), per §4.2's "the host MAY
// disable it by policy".
type Runtime struct {
	logger    *slog.Logger
	AllowEval bool
}

// NewRuntime builds a Runtime. Grounded on the teacher-adjacent
// jtarchie-ci `runtime.NewJS`: a thin struct wrapping a scoped logger, one
// per caller, cheap to construct per-invocation.
func NewRuntime(logger *slog.Logger, allowEval bool) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{logger: logger.WithGroup("txruntime"), AllowEval: allowEval}
}

// RunTransform executes code against input under config/opts, per §4.2's
// contract. source is parsed unless opts.InputIsAST, in which case ast is
// used directly; either way source is what the final Generate call slices
// untouched subtrees from (nil makes Generate synthesize every node).
func (r *Runtime) RunTransform(ctx context.Context, source []byte, ast *astx.Node, code string, config map[string]any, opts Options) (*Output, error) {
	root := ast
	if !opts.InputIsAST {
		parsed, err := astx.Parse(source, astx.ParseOptions{})
		if err != nil {
			return nil, err
		}
		root = parsed.Root
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	if deadline, ok := ctx.Deadline(); ok {
		timer := time.AfterFunc(time.Until(deadline), func() {
			vm.Interrupt("context deadline exceeded")
		})
		defer timer.Stop()
	}

	inv := &invocation{br: newBridge(vm), ast: root, allowEval: r.AllowEval}
	module := r.buildCapabilities(vm, inv, config)

	finalSource := "(function(){\n" + code + "\n})()"
	_, err := vm.RunString(finalSource)
	if err != nil {
		r.logger.Warn("runtime.transform.threw", "error", err.Error())
		if jsErr, ok := err.(*goja.Exception); ok {
			return nil, &RuntimeError{Message: jsErr.Value().String(), Stack: jsErr.String()}
		}
		return nil, &RuntimeError{Message: err.Error()}
	}

	if exports, ok := module.Get("exports").(*goja.Object); ok && len(exports.Keys()) > 0 && looksLikeVisitor(exports) {
		v := inv.br.jsVisitorToGo(exports)
		visit.Traverse(root, v)
		inv.modified = true
	}

	stats, _ := inv.statsObj.Export().(map[string]any)
	if stats == nil {
		stats = map[string]any{}
	}

	out := &Output{Stats: stats, Logs: inv.logs, Modified: inv.modified}
	if opts.ReturnAST {
		out.AST = root
		return out, nil
	}
	generated, genErr := astx.Generate(&astx.AST{Root: root, Source: source}, astx.GenerateOptions{})
	if genErr != nil {
		return nil, fmt.Errorf("generate after transform: %w", genErr)
	}
	out.Code = &generated
	return out, nil
}

// Validate parses code as JavaScript without executing it, per §4.2's
// separate `validate(code) → {valid, error?}`.
func (r *Runtime) Validate(code string) (bool, string) {
	if _, err := goja.Compile("transform.js", code, true); err != nil {
		return false, err.Error()
	}
	return true, ""
}
