// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"time"

	"github.com/google/uuid"
	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/confighints"
)

// PluginBlob is spec.md §3's saved plugin or saved script: `{ id, name,
// description, code, config, createdAt, updatedAt, category? }`.
type PluginBlob struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Code        string         `json:"code"`
	Config      map[string]any `json:"config"`
	Category    string         `json:"category,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PluginImport is §4.5's "simple JSON shape { name, description, code,
// config }" used by both the plugin and script import endpoints.
type PluginImport struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Code        string         `json:"code"`
	Config      map[string]any `json:"config"`
}

// BlobKind distinguishes the two blob-per-id stores that share PluginBlob's
// shape but differ in id format and default category (§4.5/§6).
type BlobKind int

const (
	KindPlugin BlobKind = iota
	KindScript
)

// BlobCollection is a CRUD surface over one blob-per-id store (plugins or
// scripts), implementing §4.5's "idempotent CRUD" operations.
type BlobCollection struct {
	store *BlobStore
	kind  BlobKind
}

func newBlobCollection(store *BlobStore, kind BlobKind) *BlobCollection {
	return &BlobCollection{store: store, kind: kind}
}

func (c *BlobCollection) kindLabel() string {
	if c.kind == KindScript {
		return "script"
	}
	return "plugin"
}

// newID mints an id per §4.5: plugin blobs are a bare UUID; saved scripts
// are "script-<uuid>".
func (c *BlobCollection) newID() string {
	if c.kind == KindScript {
		return "script-" + uuid.NewString()
	}
	return uuid.NewString()
}

// List returns every saved blob in the collection.
func (c *BlobCollection) List() ([]PluginBlob, error) {
	ids, err := c.store.ListIDs()
	if err != nil {
		return nil, err
	}
	blobs := make([]PluginBlob, 0, len(ids))
	for _, id := range ids {
		var b PluginBlob
		if err := c.store.Read(c.kindLabel(), id, &b); err != nil {
			continue // a concurrently-deleted blob between ListIDs and Read
		}
		blobs = append(blobs, b)
	}
	return blobs, nil
}

// Get loads one blob by id.
func (c *BlobCollection) Get(id string) (*PluginBlob, error) {
	var b PluginBlob
	if err := c.store.Read(c.kindLabel(), id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create validates code by parsing it, then persists a new blob with a
// freshly minted id, per §4.5's "Create: validate code by parsing it; on
// invalid, reject with parse error".
func (c *BlobCollection) Create(imp PluginImport) (*PluginBlob, error) {
	if _, err := astx.Parse([]byte(imp.Code), astx.ParseOptions{}); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b := PluginBlob{
		ID:          c.newID(),
		Name:        imp.Name,
		Description: imp.Description,
		Code:        imp.Code,
		Config:      imp.Config,
		Category:    "user-saved",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.Write(b.ID, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update re-validates code, preserves CreatedAt, and touches UpdatedAt.
func (c *BlobCollection) Update(id string, imp PluginImport) (*PluginBlob, error) {
	existing, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := astx.Parse([]byte(imp.Code), astx.ParseOptions{}); err != nil {
		return nil, err
	}
	existing.Name = imp.Name
	existing.Description = imp.Description
	existing.Code = imp.Code
	existing.Config = imp.Config
	existing.UpdatedAt = time.Now().UTC()
	if err := c.store.Write(existing.ID, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a blob; 404 if absent (surfaced by BlobStore.Delete).
func (c *BlobCollection) Delete(id string) error {
	return c.store.Delete(c.kindLabel(), id)
}

// ConfigHints parses a blob's declared/heuristic config parameters, for
// API responses that expect a Transform's configHints (§3).
func (b *PluginBlob) ConfigHints() map[string]confighints.Hint {
	return confighints.Parse(b.Code)
}
