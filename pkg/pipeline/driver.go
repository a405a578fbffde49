// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

// CodeLookup resolves a plugin/script/inline step's source code from the
// library store. Kept as a narrow function type (rather than importing
// pkg/library's Store directly into the execution path) so Driver.Run
// doesn't need to know how a transform was persisted — the store decides,
// the driver just threads the AST, per §4.4's "the driver decides; user
// code does not".
type CodeLookup func(kind StepKind, transformID string) (code string, err error)

// StepResult is spec.md §3's StepResult: per-step outcome, present in
// flattened-recipe order.
type StepResult struct {
	Index       int                 `json:"index"`
	TransformID string              `json:"transformId"`
	Origin      string              `json:"origin,omitempty"`
	Success     bool                `json:"success"`
	Skipped     bool                `json:"skipped,omitempty"`
	Stats       map[string]any      `json:"stats,omitempty"`
	Logs        []txruntime.LogEntry `json:"logs,omitempty"`
	DurationMs  int64               `json:"durationMs"`
	CodeSize    int                 `json:"codeSize"`
	Code        *string             `json:"code,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// RunReport is spec.md §3's RunReport.
type RunReport struct {
	Success     bool         `json:"success"`
	FinalCode   *string      `json:"finalCode,omitempty"`
	FailedAt    *int         `json:"failedAt,omitempty"`
	CurrentCode *string      `json:"currentCode,omitempty"`
	Error       string       `json:"error,omitempty"`
	Results     []StepResult `json:"results"`
}

// codeSentinel is the middle-step `code` placeholder from §4.4: "Middle-step
// StepResults may carry the sentinel "[AST]" in lieu of code".
const codeSentinel = "[AST]"

// Driver executes recipes against an AST, mirroring LocalPipeline.Run's
// staged-timing/result-aggregation shape (pkg/ingestion/local_pipeline.go):
// one IngestionResult-style report accumulated stage by stage, but one step
// per built-in/user transform instead of one stage per ingestion phase.
type Driver struct {
	Runtime *txruntime.Runtime
	Logger  *slog.Logger
}

// NewDriver builds a Driver. rt may be nil only if the recipe never
// contains plugin/script/inline steps (builtins don't need it).
func NewDriver(rt *txruntime.Runtime, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{Runtime: rt, Logger: logger.WithGroup("pipeline")}
}

// Run implements §4.4's batch-mode execution contract: parse once, run
// flattened steps in order over a single shared AST, materialize code only
// where required, and stop at the first failing step.
func (d *Driver) Run(ctx context.Context, source []byte, recipe Recipe, lookup CodeLookup) (*RunReport, error) {
	pipeMetrics.init()
	runStart := time.Now()
	defer func() { pipeMetrics.runDuration.Observe(time.Since(runStart).Seconds()) }()
	pipeMetrics.runsTotal.Inc()

	if depth := astx.NestingDepth(source, 500); depth > 500 {
		return nil, astx.NewDeeplyNestedError(depth, 500)
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	formattedInput, err := astx.Format(source)
	if err != nil {
		formattedInput = string(source)
	}

	steps := flatten(recipe)
	if len(steps) == 0 {
		return &RunReport{Success: true, FinalCode: &formattedInput, Results: []StepResult{}}, nil
	}

	ast, err := astx.Parse(source, astx.ParseOptions{})
	if err != nil {
		return nil, err
	}
	root := ast.Root

	results := make([]StepResult, 0, len(steps))
	lastIndex := len(steps) - 1

	for i, fs := range steps {
		select {
		case <-ctx.Done():
			return d.abort(root, results, i, ctx.Err())
		default:
		}

		start := time.Now()
		newRoot, stats, logs, stepErr := d.runStep(ctx, root, fs.step, i == lastIndex, lookup)
		duration := time.Since(start)
		pipeMetrics.stepsTotal.Inc()
		pipeMetrics.stepDuration.Observe(duration.Seconds())

		if stepErr != nil {
			pipeMetrics.stepsFailedTotal.Inc()
			pipeMetrics.runsFailedTotal.Inc()
			currentCode, _ := astx.Generate(&astx.AST{Root: root}, astx.GenerateOptions{})
			failedAt := i
			results = append(results, StepResult{
				Index:       i,
				TransformID: fs.step.TransformID,
				Origin:      fs.origin,
				Success:     false,
				DurationMs:  duration.Milliseconds(),
				CodeSize:    len(currentCode),
				Code:        &currentCode,
				Error:       stepErr.Error(),
			})
			return &RunReport{
				Success:     false,
				FailedAt:    &failedAt,
				CurrentCode: &currentCode,
				Error:       stepErr.Error(),
				Results:     results,
			}, nil
		}

		root = newRoot
		code, codeSize := d.materialize(root, i == lastIndex)
		results = append(results, StepResult{
			Index:       i,
			TransformID: fs.step.TransformID,
			Origin:      fs.origin,
			Success:     true,
			Stats:       stats,
			Logs:        logs,
			DurationMs:  duration.Milliseconds(),
			CodeSize:    codeSize,
			Code:        code,
		})
	}

	finalCode, err := astx.Generate(&astx.AST{Root: root}, astx.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate final code: %w", err)
	}
	return &RunReport{Success: true, FinalCode: &finalCode, Results: results}, nil
}

// RunStep implements §4.4's step-mode execution: run a single flattened
// step (by its flattened index) against currentCode, stopping after that
// one step. The caller (e.g. pkg/api) owns currentStep across calls and
// resumes by resubmitting the materialized code as new input, per §4.4.
func (d *Driver) RunStep(ctx context.Context, currentCode []byte, recipe Recipe, stepIndex int, lookup CodeLookup) (*StepResult, error) {
	if depth := astx.NestingDepth(currentCode, 500); depth > 500 {
		return nil, astx.NewDeeplyNestedError(depth, 500)
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	steps := flatten(recipe)
	if stepIndex < 0 || stepIndex >= len(steps) {
		return nil, fmt.Errorf("step index %d out of range (recipe has %d flattened steps)", stepIndex, len(steps))
	}

	ast, err := astx.Parse(currentCode, astx.ParseOptions{})
	if err != nil {
		return nil, err
	}

	fs := steps[stepIndex]
	start := time.Now()
	newRoot, stats, logs, stepErr := d.runStep(ctx, ast.Root, fs.step, true, lookup)
	duration := time.Since(start)

	if stepErr != nil {
		materialized, _ := astx.Generate(ast, astx.GenerateOptions{})
		return &StepResult{
			Index:       stepIndex,
			TransformID: fs.step.TransformID,
			Origin:      fs.origin,
			Success:     false,
			DurationMs:  duration.Milliseconds(),
			CodeSize:    len(materialized),
			Code:        &materialized,
			Error:       stepErr.Error(),
		}, nil
	}

	materialized, err := astx.Generate(&astx.AST{Root: newRoot}, astx.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate step output: %w", err)
	}
	return &StepResult{
		Index:       stepIndex,
		TransformID: fs.step.TransformID,
		Origin:      fs.origin,
		Success:     true,
		Stats:       stats,
		Logs:        logs,
		DurationMs:  duration.Milliseconds(),
		CodeSize:    len(materialized),
		Code:        &materialized,
	}, nil
}

// runStep dispatches one flattened TransformRef to either a built-in pass
// or the Transform Runtime, per §4.4's execution contract. A
// txruntime.RuntimeError is translated to a StepFailure at this boundary
// (§7: "Within a step, TransformRuntimeError is caught by the pipeline
// driver and transformed into a StepFailure").
func (d *Driver) runStep(ctx context.Context, root *astx.Node, step RecipeStep, isLast bool, lookup CodeLookup) (*astx.Node, map[string]any, []txruntime.LogEntry, error) {
	if step.Type == StepBuiltin {
		fn, ok := library.Builtins[step.TransformID]
		if !ok {
			return nil, nil, nil, fmt.Errorf("unknown builtin transform %q", step.TransformID)
		}
		stats := fn.Fn(root, step.Config)
		return root, stats, nil, nil
	}

	code := step.Code
	if step.Type != StepInline {
		if lookup == nil {
			return nil, nil, nil, fmt.Errorf("no code lookup configured for %s transform %q", step.Type, step.TransformID)
		}
		resolved, err := lookup(step.Type, step.TransformID)
		if err != nil {
			return nil, nil, nil, err
		}
		code = resolved
	}

	if d.Runtime == nil {
		return nil, nil, nil, fmt.Errorf("transform runtime not configured")
	}

	out, err := d.Runtime.RunTransform(ctx, nil, root, code, step.Config, txruntime.Options{
		InputIsAST: true,
		ReturnAST:  true,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	newRoot := root
	if out.AST != nil {
		newRoot = out.AST
	}
	return newRoot, out.Stats, out.Logs, nil
}

// materialize returns the step's code iff required by §4.4 ("materialized
// only if (i == lastIndex) OR the step failed OR step-mode was requested;
// otherwise computed by a temporary generate purely for the size metric").
// Non-final successful steps get the "[AST]" sentinel in Code and a real
// CodeSize from a throwaway Generate call.
func (d *Driver) materialize(root *astx.Node, isLast bool) (*string, int) {
	generated, err := astx.Generate(&astx.AST{Root: root}, astx.GenerateOptions{})
	if err != nil {
		sentinel := codeSentinel
		return &sentinel, 0
	}
	if isLast {
		return &generated, len(generated)
	}
	sentinel := codeSentinel
	return &sentinel, len(generated)
}

func (d *Driver) abort(root *astx.Node, results []StepResult, failedAt int, cause error) (*RunReport, error) {
	currentCode, _ := astx.Generate(&astx.AST{Root: root}, astx.GenerateOptions{})
	return &RunReport{
		Success:     false,
		FailedAt:    &failedAt,
		CurrentCode: &currentCode,
		Error:       cause.Error(),
		Results:     results,
	}, nil
}
