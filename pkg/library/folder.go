// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kraklabs/jsdeobfuscator/pkg/confighints"
)

// FolderPlugin is a §4.5 folder-based plugin pack entry: one `.js` file
// under `plugins/<category>/`, category == the enclosing folder name.
type FolderPlugin struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Folder      string              `json:"folder"`
	Code        string              `json:"code"`
	ConfigHints map[string]confighints.Hint `json:"configHints"`
	path        string
}

var folderSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeFolder implements §4.5's "Folder names are sanitized to
// [A-Za-z0-9_-]+ lowercase."
func SanitizeFolder(folder string) string {
	lower := strings.ToLower(folder)
	return folderSanitizeRe.ReplaceAllString(lower, "")
}

// kebabToTitle derives a display name from a plugin's basename, per §4.5:
// "Name is derived from the basename (kebab-case -> Title Case)".
func kebabToTitle(basename string) string {
	parts := strings.FieldsFunc(basename, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// LoadFolderPlugins walks root (the `plugins/` directory), treating each
// immediate subdirectory as a category and every non-"DEMO"-prefixed `.js`
// file in it as one plugin, per §4.5. Grounded on the teacher's
// directory-is-category convention (plugins/<category>/*.js mirrors
// `cmd/cie`'s command-per-file layout, generalized to data-per-file).
func LoadFolderPlugins(root string) ([]FolderPlugin, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Op: "readdir " + root, Err: err}
	}

	var plugins []FolderPlugin
	for _, dirEntry := range entries {
		if !dirEntry.IsDir() {
			continue
		}
		category := dirEntry.Name()
		categoryPath := filepath.Join(root, category)
		files, err := os.ReadDir(categoryPath)
		if err != nil {
			return nil, &StorageError{Op: "readdir " + categoryPath, Err: err}
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".js") || strings.HasPrefix(f.Name(), "DEMO") {
				continue
			}
			basename := strings.TrimSuffix(f.Name(), ".js")
			filePath := filepath.Join(categoryPath, f.Name())
			data, err := os.ReadFile(filePath)
			if err != nil {
				return nil, &StorageError{Op: "read " + filePath, Err: err}
			}
			code := string(data)
			plugins = append(plugins, FolderPlugin{
				ID:          category + "-" + basename,
				Name:        kebabToTitle(basename),
				Folder:      category,
				Code:        code,
				ConfigHints: confighints.Parse(code),
				path:        filePath,
			})
		}
	}
	return plugins, nil
}

// SaveAsFolderPlugin implements §4.5's "promote a saved-blob plugin to a
// folder plugin": write code as a source file inside the sanitized folder
// with a canonical header comment, replacing the blob with a file.
func SaveAsFolderPlugin(pluginsRoot, folder, name, description, code string) (*FolderPlugin, error) {
	folder = SanitizeFolder(folder)
	if folder == "" {
		return nil, fmt.Errorf("folder sanitizes to empty string")
	}
	dir := filepath.Join(pluginsRoot, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir " + dir, Err: err}
	}

	basename := SanitizeFolder(strings.ReplaceAll(strings.ToLower(name), " ", "-"))
	if basename == "" {
		basename = "plugin"
	}
	header := fmt.Sprintf("/** %s\n * %s\n * Category: %s\n */\n\n", name, description, folder)
	full := header + code
	path := filepath.Join(dir, basename+".js")

	tmp, err := os.CreateTemp(dir, "."+basename+"-*.tmp")
	if err != nil {
		return nil, &StorageError{Op: "create temp for " + path, Err: err}
	}
	if _, err := tmp.WriteString(full); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, &StorageError{Op: "write temp for " + path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, &StorageError{Op: "close temp for " + path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, &StorageError{Op: "rename " + path, Err: err}
	}

	return &FolderPlugin{
		ID:          folder + "-" + basename,
		Name:        kebabToTitle(basename),
		Folder:      folder,
		Code:        full,
		ConfigHints: confighints.Parse(full),
		path:        path,
	}, nil
}
