// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/confighints"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/limits"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
	"github.com/kraklabs/jsdeobfuscator/pkg/visit"
)

// handleParse implements §6's `POST /api/transform/parse { code } -> { ast }`.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	if err := limits.ValidateSourceSize(body.Code); err != nil {
		writeError(w, err)
		return
	}
	ast, err := astx.Parse([]byte(body.Code), astx.ParseOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ast": ast.Root})
}

// handleGenerate implements `POST /api/transform/generate { ast } -> { code }`.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AST *astx.Node `json:"ast"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	if body.AST != nil {
		body.AST.MarkDirty()
		markSubtreeDirty(body.AST)
	}
	code, err := astx.Generate(&astx.AST{Root: body.AST}, astx.GenerateOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}

// markSubtreeDirty forces every node reachable from n to synthesize rather
// than slice a (nonexistent, for a client-submitted ast) source buffer.
func markSubtreeDirty(n *astx.Node) {
	if n == nil {
		return
	}
	n.Dirty = true
	for _, v := range n.Fields {
		switch val := v.(type) {
		case *astx.Node:
			markSubtreeDirty(val)
		case []*astx.Node:
			for _, c := range val {
				markSubtreeDirty(c)
			}
		}
	}
}

// handleFormat implements `POST /api/transform/format { code } -> { code }`.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	code, err := astx.Format([]byte(body.Code))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}

type locJSON struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type referenceJSON struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type bindingJSON struct {
	Kind       string          `json:"kind"`
	Constant   bool            `json:"constant"`
	References []referenceJSON `json:"references"`
	Loc        *locJSON        `json:"loc,omitempty"`
}

type scopeJSON struct {
	Type     string                 `json:"type"`
	Loc      *locJSON               `json:"loc,omitempty"`
	Bindings map[string]bindingJSON `json:"bindings"`
}

// handleAnalyzeScope implements `POST /api/transform/analyze-scope { code }
// -> { scopes: [...] }`.
func (s *Server) handleAnalyzeScope(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	ast, err := astx.Parse([]byte(body.Code), astx.ParseOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	root := visit.CrawlScope(ast.Root)
	var scopes []scopeJSON
	var walk func(sc *visit.Scope)
	walk = func(sc *visit.Scope) {
		scopes = append(scopes, scopeToJSON(sc))
		for _, child := range sc.Children {
			walk(child)
		}
	}
	walk(root)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scopes": scopes})
}

func scopeToJSON(sc *visit.Scope) scopeJSON {
	out := scopeJSON{Type: sc.Node.Type, Loc: toLocJSON(sc.Node.Loc), Bindings: map[string]bindingJSON{}}
	for name, b := range sc.Bindings() {
		refs := make([]referenceJSON, 0, len(b.ReferenceNodes))
		for _, node := range b.ReferenceNodes {
			if node.Loc == nil {
				continue
			}
			refs = append(refs, referenceJSON{Line: node.Loc.StartLine, Column: node.Loc.StartCol})
		}
		var loc *locJSON
		if b.Identifier != nil {
			loc = toLocJSON(b.Identifier.Loc)
		}
		out.Bindings[name] = bindingJSON{
			Kind:       string(b.Kind),
			Constant:   b.Constant,
			References: refs,
			Loc:        loc,
		}
	}
	return out
}

func toLocJSON(loc *astx.SourceLocation) *locJSON {
	if loc == nil {
		return nil
	}
	return &locJSON{Line: loc.StartLine, Column: loc.StartCol}
}

// handleRun implements `POST /api/transform/run { code, transform, config }
// -> { code, stats, logs, duration }`: one built-in or looked-up transform
// applied via a single-step Recipe through the Pipeline Driver, so §6's
// single-transform endpoint shares the exact execution path run-chain uses.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code      string         `json:"code"`
		Transform string         `json:"transform"`
		Config    map[string]any `json:"config"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}

	if err := limits.ValidateSourceSize(body.Code); err != nil {
		writeError(w, err)
		return
	}

	kind := pipeline.StepBuiltin
	if _, ok := library.Builtins[body.Transform]; !ok {
		kind = pipeline.StepPlugin
	}
	recipe := pipeline.Recipe{{
		Type: kind, TransformID: body.Transform, Config: body.Config, Enabled: true, Iterations: 1,
	}}

	report, err := s.driver.Run(r.Context(), []byte(body.Code), recipe, s.codeLookup())
	if err != nil {
		writeError(w, err)
		return
	}
	if !report.Success {
		writeJSON(w, http.StatusInternalServerError, errorBody{Success: false, Error: report.Error})
		return
	}
	var step pipeline.StepResult
	if len(report.Results) > 0 {
		step = report.Results[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"code":     report.FinalCode,
		"stats":    step.Stats,
		"logs":     step.Logs,
		"duration": step.DurationMs,
	})
}

// handleRunChain implements `POST /api/transform/run-chain { code, recipe,
// stepMode? } -> batch or step response`, per §4.4.
func (s *Server) handleRunChain(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code      string          `json:"code"`
		Recipe    pipeline.Recipe `json:"recipe"`
		StepMode  bool            `json:"stepMode"`
		StepIndex int             `json:"stepIndex"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	if err := limits.ValidateSourceSize(body.Code); err != nil {
		writeError(w, err)
		return
	}

	if body.StepMode {
		result, err := s.driver.RunStep(r.Context(), []byte(body.Code), body.Recipe, body.StepIndex, s.codeLookup())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
		return
	}

	report, err := s.driver.Run(r.Context(), []byte(body.Code), body.Recipe, s.codeLookup())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) codeLookup() pipeline.CodeLookup {
	return func(kind pipeline.StepKind, transformID string) (string, error) {
		switch kind {
		case pipeline.StepPlugin:
			return s.lib.LookupPluginCode(transformID)
		case pipeline.StepScript:
			return s.lib.LookupScriptCode(transformID)
		default:
			return "", &library.NotFoundError{Kind: string(kind), ID: transformID}
		}
	}
}

// handleBuiltins implements `GET /api/transform/builtins -> { transforms }`,
// filtering internal `__`-prefixed entries per §6.
func (s *Server) handleBuiltins(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(library.Builtins))
	for id := range library.Builtins {
		if strings.HasPrefix(id, "__") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	transforms := make([]library.BuiltinMeta, 0, len(ids))
	for _, id := range ids {
		transforms = append(transforms, library.Builtins[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transforms": transforms})
}

// handleBuiltinSource implements `GET /api/transform/builtin-source/:id ->
// { id, name, source }`.
func (s *Server) handleBuiltinSource(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	meta, ok := library.Builtins[id]
	if !ok {
		writeError(w, &library.NotFoundError{Kind: "builtin", ID: id})
		return
	}
	source, err := library.BuiltinSource(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id, "name": meta.Name, "source": source})
}

// handleConfigHints implements a supplemented `GET
// /api/transform/config-hints?code=...` (SPEC_FULL's config-hints
// supplement), parsing hints from a raw code
// query parameter so the editor UI can show hints before saving.
func (s *Server) handleConfigHints(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "configHints": confighints.Parse(code)})
}
