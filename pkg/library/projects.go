// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project is spec.md §3's Project: `{ id, name, description?, inputCode,
// outputCode?, recipe, createdAt, updatedAt }`. Recipe is kept as raw JSON
// here (rather than pkg/pipeline.Recipe) so pkg/library never imports
// pkg/pipeline, which itself imports pkg/library for the built-in
// catalogue; pkg/api decodes Recipe into a pipeline.Recipe when it needs
// to execute one.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputCode   string          `json:"inputCode"`
	OutputCode  string          `json:"outputCode,omitempty"`
	Recipe      json.RawMessage `json:"recipe"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProjectImport is §6's "deeper shape for projects": the full Project
// fields minus server-assigned id/timestamps.
type ProjectImport struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputCode   string          `json:"inputCode"`
	OutputCode  string          `json:"outputCode,omitempty"`
	Recipe      json.RawMessage `json:"recipe"`
}

// ProjectCollection is the Project analogue of BlobCollection.
type ProjectCollection struct {
	store *BlobStore
}

func newProjectCollection(store *BlobStore) *ProjectCollection {
	return &ProjectCollection{store: store}
}

func (c *ProjectCollection) List() ([]Project, error) {
	ids, err := c.store.ListIDs()
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(ids))
	for _, id := range ids {
		var p Project
		if err := c.store.Read("project", id, &p); err != nil {
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (c *ProjectCollection) Get(id string) (*Project, error) {
	var p Project
	if err := c.store.Read("project", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ProjectCollection) Create(imp ProjectImport) (*Project, error) {
	now := time.Now().UTC()
	p := Project{
		ID:          uuid.NewString(),
		Name:        imp.Name,
		Description: imp.Description,
		InputCode:   imp.InputCode,
		OutputCode:  imp.OutputCode,
		Recipe:      imp.Recipe,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.Write(p.ID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ProjectCollection) Update(id string, imp ProjectImport) (*Project, error) {
	existing, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	existing.Name = imp.Name
	existing.Description = imp.Description
	existing.InputCode = imp.InputCode
	existing.OutputCode = imp.OutputCode
	existing.Recipe = imp.Recipe
	existing.UpdatedAt = time.Now().UTC()
	if err := c.store.Write(existing.ID, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (c *ProjectCollection) Delete(id string) error {
	return c.store.Delete("project", id)
}

// Duplicate implements §6's POST /api/projects/:id/duplicate: a deep copy
// under a fresh id, name suffixed the way a "copy" naturally reads.
func (c *ProjectCollection) Duplicate(id string) (*Project, error) {
	original, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	dup := Project{
		ID:          uuid.NewString(),
		Name:        original.Name + " (copy)",
		Description: original.Description,
		InputCode:   original.InputCode,
		OutputCode:  original.OutputCode,
		Recipe:      original.Recipe,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.Write(dup.ID, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}
