// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"path/filepath"
	"sync/atomic"
)

// CategoryInfo summarizes one plugin category for §6's
// GET /api/plugins -> { plugins, categories: [{id, name, folder|null, count}] }.
type CategoryInfo struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Folder *string `json:"folder"`
	Count  int     `json:"count"`
}

// Library is the top-level façade over §4.5: built-ins (the package-level
// Builtins map), folder plugins (read-only at run time, atomically
// reloadable per §5), and the three blob-per-id stores.
type Library struct {
	pluginsRoot   string
	folderPlugins atomic.Pointer[[]FolderPlugin]

	Plugins  *BlobCollection
	Scripts  *BlobCollection
	Projects *ProjectCollection
}

// New builds a Library rooted at dataDir (holding data/plugins,
// data/scripts, data/projects) with folder plugins discovered under
// pluginsRoot (holding plugins/<category>/*.js).
func New(dataDir, pluginsRoot string) (*Library, error) {
	pluginStore, err := NewBlobStore(filepath.Join(dataDir, "plugins"))
	if err != nil {
		return nil, err
	}
	scriptStore, err := NewBlobStore(filepath.Join(dataDir, "scripts"))
	if err != nil {
		return nil, err
	}
	projectStore, err := NewBlobStore(filepath.Join(dataDir, "projects"))
	if err != nil {
		return nil, err
	}

	l := &Library{
		pluginsRoot: pluginsRoot,
		Plugins:     newBlobCollection(pluginStore, KindPlugin),
		Scripts:     newBlobCollection(scriptStore, KindScript),
		Projects:    newProjectCollection(projectStore),
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-walks pluginsRoot and atomically swaps the folder-plugin
// catalogue, per §5's "a reload operation is available that atomically
// swaps the catalogue".
func (l *Library) Reload() error {
	plugins, err := LoadFolderPlugins(l.pluginsRoot)
	if err != nil {
		return err
	}
	l.folderPlugins.Store(&plugins)
	return nil
}

// FolderPlugins returns the current folder-plugin catalogue snapshot.
func (l *Library) FolderPlugins() []FolderPlugin {
	p := l.folderPlugins.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Categories summarizes the folder-plugin catalogue by folder, per §6.
func (l *Library) Categories() []CategoryInfo {
	counts := map[string]int{}
	order := []string{}
	for _, p := range l.FolderPlugins() {
		if _, seen := counts[p.Folder]; !seen {
			order = append(order, p.Folder)
		}
		counts[p.Folder]++
	}
	cats := make([]CategoryInfo, 0, len(order))
	for _, folder := range order {
		f := folder
		cats = append(cats, CategoryInfo{ID: folder, Name: kebabToTitle(folder), Folder: &f, Count: counts[folder]})
	}
	return cats
}

// LookupPluginCode resolves a plugin-kind RecipeStep's source: first the
// folder-plugin catalogue (id "<folder>-<basename>"), then the saved-blob
// store (id = UUID), satisfying §3's "code is resolved internally" for
// every non-built-in, non-inline kind.
func (l *Library) LookupPluginCode(id string) (string, error) {
	for _, p := range l.FolderPlugins() {
		if p.ID == id {
			return p.Code, nil
		}
	}
	blob, err := l.Plugins.Get(id)
	if err != nil {
		return "", err
	}
	return blob.Code, nil
}

// LookupScriptCode resolves a script-kind RecipeStep's source from the
// saved-scripts store (id = "script-<uuid>").
func (l *Library) LookupScriptCode(id string) (string, error) {
	blob, err := l.Scripts.Get(id)
	if err != nil {
		return "", err
	}
	return blob.Code, nil
}
