// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package passes implements the built-in catalogue (spec.md §4.3): pure
// functions of the shape `(ast, config) → { stats }`, each mutating the
// AST in place via pkg/visit. Grounded on pkg/ingestion/local_pipeline.go's
// pure-stage-function idiom, one pass per concern instead of one pipeline
// per repo.
package passes

// boolOpt reads a boolean config knob, defaulting when absent or of the
// wrong type — every §4.3 pass config flag defaults to true unless noted.
func boolOpt(config map[string]any, key string, def bool) bool {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func intOpt(config map[string]any, key string, def int) int {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

func stringOpt(config map[string]any, key, def string) string {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
