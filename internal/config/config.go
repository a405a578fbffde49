// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package config centralizes this workbench's environment-overridable
// knobs and its on-disk project file, grounded on the same pattern now
// adapted into pkg/limits.MaxSourceBytes(): a package-level constant with
// an env-var override, parsed once and falling back to the default on any
// parse failure.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxNestDepth is the bracket-depth cap §4.1's NestingDepth
	// precheck and the Pipeline Driver both enforce before parsing.
	DefaultMaxNestDepth = 500

	// DefaultDataDir is where pkg/library stores its plugin/script/project
	// blobs when JSDEOB_DATA_DIR is unset.
	DefaultDataDir = ".jsdeob/data"

	// DefaultPluginsDir is where folder plugins (plugins/<category>/*.js)
	// are discovered when JSDEOB_PLUGINS_DIR is unset.
	DefaultPluginsDir = "plugins"

	// DefaultPort is §6's "PORT environment variable (default 3000)".
	DefaultPort = 3000

	// DefaultMaxStringLength matches decodeStrings' own maxStringLength
	// default (§4.3.4).
	DefaultMaxStringLength = 50000

	// ProjectFileName is the project-level config file, mirroring the
	// teacher's .cie/project.yaml.
	ProjectFileName = ".jsdeob/project.yaml"
)

// MaxNestDepth returns the effective nesting-depth cap, overridable via
// JSDEOB_MAX_NEST_DEPTH.
func MaxNestDepth() int {
	return envInt("JSDEOB_MAX_NEST_DEPTH", DefaultMaxNestDepth)
}

// DataDir returns the effective data directory, overridable via
// JSDEOB_DATA_DIR.
func DataDir() string {
	return envString("JSDEOB_DATA_DIR", DefaultDataDir)
}

// PluginsDir returns the effective folder-plugins root, overridable via
// JSDEOB_PLUGINS_DIR.
func PluginsDir() string {
	return envString("JSDEOB_PLUGINS_DIR", DefaultPluginsDir)
}

// Port returns the effective HTTP listen port. §6 specifies PORT; this
// also accepts JSDEOB_PORT so the same knob works for both the generic
// convention and this workbench's own namespace.
func Port() int {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return envInt("JSDEOB_PORT", DefaultPort)
}

// MaxStringLength returns DefaultMaxStringLength, overridable via
// JSDEOB_MAX_STRING_LEN. decodeStrings does not read it: a step without a
// maxStringLength config uses the pass's built-in default.
func MaxStringLength() int {
	return envInt("JSDEOB_MAX_STRING_LEN", DefaultMaxStringLength)
}

// AllowEval reports whether the Transform Runtime's `run(codeString)`
// escape hatch (§4.2/§9) is permitted, overridable via JSDEOB_ALLOW_EVAL.
// Defaults to false: untrusted transform code must opt in explicitly.
func AllowEval() bool {
	if v := os.Getenv("JSDEOB_ALLOW_EVAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return false
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Project is the on-disk shape of .jsdeob/project.yaml: a default data
// directory, default recipe, and eval policy for a given project root,
// mirroring the teacher's .cie/project.yaml.
type Project struct {
	DataDir       string `yaml:"dataDir,omitempty"`
	PluginsDir    string `yaml:"pluginsDir,omitempty"`
	DefaultRecipe string `yaml:"defaultRecipe,omitempty"`
	AllowEval     bool   `yaml:"allowEval,omitempty"`
}

// LoadProject reads root/.jsdeob/project.yaml. A missing file is not an
// error: it returns a zero-value Project so callers fall through to the
// env-var/default knobs above.
func LoadProject(root string) (*Project, error) {
	path := filepath.Join(root, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Project{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &p, nil
}

// SaveProject writes p to root/.jsdeob/project.yaml, creating the
// .jsdeob directory if needed.
func SaveProject(root string, p *Project) error {
	dir := filepath.Join(root, ".jsdeob")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	path := filepath.Join(root, ProjectFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
