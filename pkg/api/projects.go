// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/kraklabs/jsdeobfuscator/pkg/astx"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
)

// handleProjectList implements `GET /api/projects -> { projects }`.
func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.lib.Projects.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "projects": projects})
}

// handleProjectGet implements `GET /api/projects/:id -> { project }`.
func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.lib.Projects.Get(pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}

// handleProjectCreate implements `POST /api/projects -> { project }`.
func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var imp library.ProjectImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	p, err := s.lib.Projects.Create(imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}

// handleProjectUpdate implements `PUT /api/projects/:id -> { project }`.
func (s *Server) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	var imp library.ProjectImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	p, err := s.lib.Projects.Update(pathID(r), imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}

// handleProjectDelete implements `DELETE /api/projects/:id`.
func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.Projects.Delete(pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleProjectDuplicate implements `POST /api/projects/:id/duplicate`.
func (s *Server) handleProjectDuplicate(w http.ResponseWriter, r *http.Request) {
	p, err := s.lib.Projects.Duplicate(pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}

// handleProjectExport implements `GET /api/projects/:id/export`.
func (s *Server) handleProjectExport(w http.ResponseWriter, r *http.Request) {
	p, err := s.lib.Projects.Get(pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, library.ProjectImport{
		Name: p.Name, Description: p.Description, InputCode: p.InputCode, OutputCode: p.OutputCode, Recipe: p.Recipe,
	})
}

// handleProjectImport implements `POST /api/projects/import`.
func (s *Server) handleProjectImport(w http.ResponseWriter, r *http.Request) {
	var imp library.ProjectImport
	if err := decodeJSON(r, &imp); err != nil {
		writeError(w, &astx.ParseError{Message: "invalid request body: " + err.Error()})
		return
	}
	p, err := s.lib.Projects.Create(imp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": p})
}
