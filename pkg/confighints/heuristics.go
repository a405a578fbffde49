// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package confighints

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// literalPattern matches the literal forms §4.7 recognizes on the right-hand
// side of `config.X || <literal>` / `config.X ?? <literal>`.
const literalPattern = `true|false|-?\d+(?:\.\d+)?|\[\s*\]|\{\s*\}|"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`

var (
	orDefaultRe = regexp.MustCompile(`config\.([A-Za-z_$][\w$]*)\s*(?:\|\||\?\?)\s*(` + literalPattern + `)`)
	notFalseRe  = regexp.MustCompile(`config\.([A-Za-z_$][\w$]*)\s*!==\s*false`)
	isTrueRe    = regexp.MustCompile(`config\.([A-Za-z_$][\w$]*)\s*===\s*true`)
)

// detectHeuristics scans a transform body for the three idioms §4.7 names,
// used only when no `// CONFIG PARAMETERS:` block is present.
func detectHeuristics(source string) map[string]Hint {
	hints := map[string]Hint{}

	for _, m := range orDefaultRe.FindAllStringSubmatch(source, -1) {
		name, lit := m[1], m[2]
		if _, exists := hints[name]; exists {
			continue
		}
		hints[name] = hintFromLiteral(lit)
	}
	for _, m := range notFalseRe.FindAllStringSubmatch(source, -1) {
		name := m[1]
		if _, exists := hints[name]; !exists {
			hints[name] = Hint{Type: "boolean", Default: true}
		}
	}
	for _, m := range isTrueRe.FindAllStringSubmatch(source, -1) {
		name := m[1]
		if _, exists := hints[name]; !exists {
			hints[name] = Hint{Type: "boolean", Default: false}
		}
	}

	return hints
}

// hintFromLiteral infers type and default from a raw literal matched by
// orDefaultRe: true/false, a number, [], {}, or a quoted string.
func hintFromLiteral(lit string) Hint {
	trimmed := strings.TrimSpace(lit)
	switch {
	case trimmed == "true" || trimmed == "false":
		return Hint{Type: "boolean", Default: trimmed == "true"}
	case strings.HasPrefix(trimmed, "["):
		return Hint{Type: "array", Default: []any{}}
	case strings.HasPrefix(trimmed, "{"):
		return Hint{Type: "object", Default: map[string]any{}}
	case strings.HasPrefix(trimmed, `"`) || strings.HasPrefix(trimmed, "'"):
		return Hint{Type: "string", Default: unquote(trimmed)}
	default:
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Hint{Type: "number", Default: n}
		}
		return Hint{Type: "string", Default: trimmed}
	}
}

// parseJSONLoose attempts a strict JSON decode of raw, per §4.7's "strict
// JSON parse (falling back to empty array/object on failure)".
func parseJSONLoose(raw string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	return v, true
}
