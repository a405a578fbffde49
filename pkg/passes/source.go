// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"embed"
	"strings"
)

//go:embed constant_folding.go opaque_predicate.go remove_unused.go decode_strings.go inline_values.go simplify_literals.go
var sourceFiles embed.FS

// Source returns the canonical Go source text of funcName as it appears in
// file, used by pkg/library to serve §6's
// GET /api/transform/builtin-source/:id. Extraction is a plain text scan
// for the function's `func Name(` header up to the next top-level `func `
// (or EOF), since every pass in this package is a single top-level
// function plus unexported helpers that stay with it in the same file.
func Source(file, funcName string) (string, error) {
	data, err := sourceFiles.ReadFile(file)
	if err != nil {
		return "", err
	}
	text := string(data)
	marker := "func " + funcName + "("
	start := strings.Index(text, marker)
	if start == -1 {
		return "", &sourceNotFoundError{file: file, funcName: funcName}
	}
	// Walk back over any doc comment directly preceding the function.
	docStart := start
	lines := strings.Split(text[:start], "\n")
	for i := len(lines) - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "//") {
			docStart -= len(lines[i]) + 1
			continue
		}
		break
	}

	rest := text[start:]
	end := len(rest)
	if next := strings.Index(rest[len(marker):], "\nfunc "); next != -1 {
		end = len(marker) + next
	}
	return strings.TrimRight(text[docStart:start+end], "\n") + "\n", nil
}

type sourceNotFoundError struct {
	file, funcName string
}

func (e *sourceNotFoundError) Error() string {
	return "function " + e.funcName + " not found in " + e.file
}
