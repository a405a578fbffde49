// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/confighints"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
)

// pluginListItem is the shared wire shape for both folder plugins and
// saved blobs in a `GET /api/plugins` (or /api/scripts) listing.
type pluginListItem struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Description string                      `json:"description,omitempty"`
	Code        string                      `json:"code"`
	Config      map[string]any              `json:"config,omitempty"`
	Category    string                      `json:"category,omitempty"`
	ConfigHints map[string]confighints.Hint `json:"configHints,omitempty"`
}

// registerBlobRoutes wires §4.5/§6's shared CRUD+validate+import+export
// surface for one blob collection (plugins or scripts). folderPlugins is
// nil for scripts, which have no folder-based catalogue (§4.5 only
// describes folder packs for plugins).
func registerBlobRoutes(mux *http.ServeMux, prefix string, coll *library.BlobCollection, folderPlugins func() []library.FolderPlugin) {
	mux.HandleFunc("GET "+prefix, func(w http.ResponseWriter, r *http.Request) {
		handleBlobList(w, r, coll, folderPlugins)
	})
	mux.HandleFunc("GET "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleBlobGet(w, r, coll)
	})
	mux.HandleFunc("POST "+prefix, func(w http.ResponseWriter, r *http.Request) {
		handleBlobCreate(w, r, coll)
	})
	mux.HandleFunc("PUT "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleBlobUpdate(w, r, coll)
	})
	mux.HandleFunc("DELETE "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleBlobDelete(w, r, coll)
	})
	mux.HandleFunc("POST "+prefix+"/validate", handleBlobValidate)
	mux.HandleFunc("POST "+prefix+"/import", func(w http.ResponseWriter, r *http.Request) {
		handleBlobImport(w, r, coll)
	})
	mux.HandleFunc("GET "+prefix+"/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		handleBlobExport(w, r, coll)
	})
}

func handleBlobList(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection, folderPlugins func() []library.FolderPlugin) {
	blobs, err := coll.List()
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]pluginListItem, 0, len(blobs))
	counts := map[string]int{}
	var catOrder []string
	for _, b := range blobs {
		items = append(items, pluginListItem{
			ID: b.ID, Name: b.Name, Description: b.Description, Code: b.Code,
			Config: b.Config, Category: b.Category, ConfigHints: b.ConfigHints(),
		})
		if b.Category != "" {
			if _, seen := counts[b.Category]; !seen {
				catOrder = append(catOrder, b.Category)
			}
			counts[b.Category]++
		}
	}

	var categories []library.CategoryInfo
	if folderPlugins != nil {
		for _, p := range folderPlugins() {
			items = append(items, pluginListItem{
				ID: p.ID, Name: p.Name, Code: p.Code, Category: p.Folder, ConfigHints: p.ConfigHints,
			})
		}
		categories = categoriesFrom(folderPlugins())
	}
	if len(catOrder) > 0 {
		for _, cat := range catOrder {
			found := false
			for i := range categories {
				if categories[i].ID == cat {
					categories[i].Count += counts[cat]
					found = true
					break
				}
			}
			if !found {
				categories = append(categories, library.CategoryInfo{ID: cat, Name: cat, Count: counts[cat]})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plugins": items, "categories": categories})
}

func categoriesFrom(plugins []library.FolderPlugin) []library.CategoryInfo {
	counts := map[string]int{}
	var order []string
	for _, p := range plugins {
		if _, seen := counts[p.Folder]; !seen {
			order = append(order, p.Folder)
		}
		counts[p.Folder]++
	}
	cats := make([]library.CategoryInfo, 0, len(order))
	for _, folder := range order {
		f := folder
		cats = append(cats, library.CategoryInfo{ID: folder, Name: folder, Folder: &f, Count: counts[folder]})
	}
	return cats
}

func handleBlobGet(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	blob, err := coll.Get(pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plugin": blob})
}

func handleBlobCreate(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	var imp library.PluginImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	blob, err := coll.Create(imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plugin": blob})
}

func handleBlobUpdate(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	var imp library.PluginImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	blob, err := coll.Update(pathID(r), imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plugin": blob})
}

func handleBlobDelete(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	if err := coll.Delete(pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleBlobValidate implements `POST /api/plugins/validate { code } ->
// { valid, error? }` by parsing the code, per §4.5's "validate code by
// parsing it".
func handleBlobValidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	if _, err := astx.Parse([]byte(body.Code), astx.ParseOptions{}); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "valid": true})
}

func handleBlobImport(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	var imp library.PluginImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	blob, err := coll.Create(imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plugin": blob})
}

func handleBlobExport(w http.ResponseWriter, r *http.Request, coll *library.BlobCollection) {
	blob, err := coll.Get(pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, library.PluginImport{
		Name: blob.Name, Description: blob.Description, Code: blob.Code, Config: blob.Config,
	})
}
