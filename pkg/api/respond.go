// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package api implements spec.md §6's HTTP surface: transform, plugin,
// script, and project endpoints over the Pipeline Driver and Library.
// Grounded on cmd/cie/start.go's stdlib net/http usage (no web framework)
// and mihaisavezi-claude-code-open/internal/server's ServeMux-plus-graceful-
// shutdown shape.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/limits"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

// writeJSON encodes v as pretty JSON, matching internal/output.JSONTo's
// two-space-indent convention but targeting an http.ResponseWriter instead
// of an io.Writer passed by the CLI.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// errorBody is §6's error wire format: `{ success:false, error, stack? }`.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Stack   string `json:"stack,omitempty"`
}

// writeError maps an error to an HTTP status per §7's propagation policy
// and writes the §6 error wire format.
func writeError(w http.ResponseWriter, err error) {
	status, stack := classify(err)
	writeJSON(w, status, errorBody{Success: false, Error: err.Error(), Stack: stack})
}

// classify implements §7's error-kind-to-status table: ParseError,
// DeeplyNested, TransformValidation, Unsupported, NotFound -> 400/404;
// source-size ExceededError -> 413; StorageError and anything unrecognized
// -> 500. TransformRuntimeError carries a stack trace for the client to
// render.
func classify(err error) (status int, stack string) {
	switch e := err.(type) {
	case *astx.ParseError:
		return http.StatusBadRequest, ""
	case *astx.DeeplyNestedError:
		return http.StatusBadRequest, ""
	case *pipeline.UnsupportedError:
		return http.StatusBadRequest, ""
	case *txruntime.ValidationError:
		return http.StatusBadRequest, ""
	case *limits.ExceededError:
		return http.StatusRequestEntityTooLarge, ""
	case *library.NotFoundError:
		return http.StatusNotFound, ""
	case *library.StorageError:
		return http.StatusInternalServerError, ""
	case *txruntime.RuntimeError:
		return http.StatusInternalServerError, e.Stack
	default:
		return http.StatusInternalServerError, ""
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func pathID(r *http.Request) string {
	return r.PathValue("id")
}
