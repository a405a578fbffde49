// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

func newTestServer(t *testing.T) (*Server, *library.Library) {
	t.Helper()
	lib, err := library.New(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	driver := pipeline.NewDriver(txruntime.NewRuntime(nil, false), nil)
	return New(lib, driver, nil, nil), lib
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux := http.NewServeMux()
	s.routes(mux)
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestHandleParseReturnsAST(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/parse", map[string]any{"code": "var x = 1;"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["ast"])
}

func TestHandleParseInvalidCodeReturnsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/parse", map[string]any{"code": "var x = ;"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
}

func TestHandleFormat(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/format", map[string]any{"code": "var x=1;"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["code"], "var x")
}

func TestHandleAnalyzeScopeReturnsNestedScopes(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/analyze-scope", map[string]any{
		"code": "var a = 1; function f(x) { return x + a; }",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool        `json:"success"`
		Scopes  []scopeJSON `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Scopes, 2)
	assert.Equal(t, "Program", body.Scopes[0].Type)
}

func TestHandleRunAppliesBuiltin(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/run", map[string]any{
		"code": "var x = !0;", "transform": "simplifyLiterals", "config": map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["code"], "true")
}

func TestHandleRunChainBatchMode(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/transform/run-chain", map[string]any{
		"code": "var x = !0;",
		"recipe": []map[string]any{
			{"type": "builtin", "transform": "simplifyLiterals", "enabled": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var report pipeline.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Success)
	require.NotNil(t, report.FinalCode)
	assert.Contains(t, *report.FinalCode, "true")
}

func TestHandleBuiltinsFiltersInternalEntries(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "GET", "/api/transform/builtins", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Transforms []library.BuiltinMeta `json:"transforms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, tr := range body.Transforms {
		assert.NotContains(t, tr.ID, "__")
	}
	assert.NotEmpty(t, body.Transforms)
}

func TestHandleBuiltinSourceUnknownIDReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, "GET", "/api/transform/builtin-source/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPluginCRUDRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/plugins", map[string]any{"name": "p", "code": "1;"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	plugin := created["plugin"].(map[string]any)
	id := plugin["id"].(string)
	require.NotEmpty(t, id)

	rec = doJSON(t, s, "GET", "/api/plugins/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, "DELETE", "/api/plugins/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, "GET", "/api/plugins/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectCRUDRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/projects", map[string]any{
		"name": "proj", "inputCode": "1;", "recipe": []map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	project := created["project"].(map[string]any)
	id := project["id"].(string)

	rec = doJSON(t, s, "POST", "/api/projects/"+id+"/duplicate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var duplicated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &duplicated))
	dupProject := duplicated["project"].(map[string]any)
	assert.NotEqual(t, id, dupProject["id"])

	rec = doJSON(t, s, "GET", "/api/projects/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
