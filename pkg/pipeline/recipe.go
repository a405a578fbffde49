// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements spec.md §4.4: flattening a Recipe into a
// linear execution plan and threading a single AST through it, built-in
// passes and user transforms alike.
package pipeline

import "strconv"

// StepKind discriminates a RecipeStep's transform source, per spec.md §3's
// Transform union (builtin|plugin|script|inline) plus the "loop" wrapper.
type StepKind string

const (
	StepBuiltin StepKind = "builtin"
	StepPlugin  StepKind = "plugin"
	StepScript  StepKind = "script"
	StepInline  StepKind = "inline"
	StepLoop    StepKind = "loop"
)

// RecipeStep is the wire shape from spec.md §6: either a TransformRef
// (Type != "loop") or a Loop (Type == "loop", Children populated, non-loop
// fields ignored). Loops may not nest (§3).
type RecipeStep struct {
	ID          string         `json:"id,omitempty"`
	Type        StepKind       `json:"type"`
	TransformID string         `json:"transform,omitempty"`
	Code        string         `json:"code,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Enabled     bool           `json:"enabled"`
	Iterations  int            `json:"iterations,omitempty"`
	Children    []RecipeStep   `json:"children,omitempty"`
}

// Recipe is an ordered sequence of RecipeSteps (§3).
type Recipe []RecipeStep

// UnsupportedError corresponds to §7's Unsupported kind: the recipe
// contains a disallowed construct. Rejected at recipe-accept time (400).
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string { return "unsupported recipe: " + e.Reason }

// Validate enforces §3's recipe-shape invariants ahead of flattening:
// iterations bounds and the one-level-of-nesting rule for loops.
func (r Recipe) Validate() error {
	for i, step := range r {
		if err := validateStep(step, false); err != nil {
			return err
		}
		_ = i
	}
	return nil
}

func validateStep(step RecipeStep, insideLoop bool) error {
	if step.Type == StepLoop {
		if insideLoop {
			return &UnsupportedError{Reason: "nested loops are not permitted"}
		}
		if err := checkIterations(step.Iterations); err != nil {
			return err
		}
		for _, child := range step.Children {
			if child.Type == StepLoop {
				return &UnsupportedError{Reason: "nested loops are not permitted"}
			}
			if err := validateStep(child, true); err != nil {
				return err
			}
		}
		return nil
	}
	return checkIterations(step.Iterations)
}

func checkIterations(n int) error {
	if n == 0 {
		// Absent/zero in the wire payload defaults to one execution.
		return nil
	}
	if n < 1 || n > 10000 {
		return &UnsupportedError{Reason: "iterations must be between 1 and 10000"}
	}
	return nil
}

// flatStep is one TransformRef-shaped entry after flattening, carrying an
// origin linkage back to its chain position (§4.4: "each emitted step
// carries an index linkage back to its origin chain position").
type flatStep struct {
	step   RecipeStep
	origin string // e.g. "2" for a top-level step, "1.0" for loop[1]'s child 0
}

// flatten expands each Loop into iterations × (enabled children, each
// itself expanded by its own iterations), and omits disabled top-level
// steps and disabled children of loops, per §4.4.
func flatten(recipe Recipe) []flatStep {
	var out []flatStep
	for i, step := range recipe {
		if step.Type == StepLoop {
			iterations := step.Iterations
			if iterations < 1 {
				iterations = 1
			}
			for iter := 0; iter < iterations; iter++ {
				for ci, child := range step.Children {
					if !child.Enabled {
						continue
					}
					childIterations := child.Iterations
					if childIterations < 1 {
						childIterations = 1
					}
					for cIter := 0; cIter < childIterations; cIter++ {
						out = append(out, flatStep{
							step:   child,
							origin: originTag(i, iter, ci, cIter),
						})
					}
				}
			}
			continue
		}

		if !step.Enabled {
			continue
		}
		iterations := step.Iterations
		if iterations < 1 {
			iterations = 1
		}
		for iter := 0; iter < iterations; iter++ {
			out = append(out, flatStep{step: step, origin: originTag(i, iter, -1, -1)})
		}
	}
	return out
}

func originTag(stepIndex, iter, childIndex, childIter int) string {
	itoa := strconv.Itoa
	if childIndex < 0 {
		if iter == 0 {
			return itoa(stepIndex)
		}
		return itoa(stepIndex) + "#" + itoa(iter)
	}
	tag := itoa(stepIndex) + "." + itoa(childIndex)
	if iter != 0 || childIter != 0 {
		tag += "#" + itoa(iter) + "." + itoa(childIter)
	}
	return tag
}
