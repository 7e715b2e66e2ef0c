// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func projectToResponse(p store.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		URI:       p.Uri,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProjectRequest is the request body for creating or updating a project.
type ProjectRequest struct {
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// ListProjects handles GET /api/v1/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	items, err := h.queries.ListProjects(r.Context(), store.ListProjectsParams{
		Limit:  int64(perPage),
		Offset: int64((page - 1) * perPage),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	total, err := h.queries.CountProjects(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, projectToResponse(p))
	}
	WriteSuccess(w, resp, &Meta{Total: total, Page: page, PerPage: perPage})
}

// CreateProject handles POST /api/v1/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, "Name is required", nil)
		return
	}
	uri := req.URI
	if uri == "" {
		uri = req.Name
	}
	uri = util.Slugify(uri)

	if _, err := h.queries.GetProjectByURI(r.Context(), uri); err == nil {
		WriteError(w, http.StatusConflict, "conflict", "Project URI already exists", nil)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.writeServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	project, err := h.queries.CreateProject(r.Context(), store.CreateProjectParams{
		Name:      req.Name,
		Uri:       uri,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, projectToResponse(project))
}

// GetProject handles GET /api/v1/projects/{projectID}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	project, err := h.queries.GetProjectByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, projectToResponse(project), nil)
}

// UpdateProject handles PUT /api/v1/projects/{projectID}.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req ProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, "Name is required", nil)
		return
	}

	current, err := h.queries.GetProjectByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	uri := current.Uri
	if req.URI != "" {
		uri = util.Slugify(req.URI)
		if other, err := h.queries.GetProjectByURI(r.Context(), uri); err == nil && other.ID != id {
			WriteError(w, http.StatusConflict, "conflict", "Project URI already exists", nil)
			return
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			h.writeServiceError(w, err)
			return
		}
	}

	project, err := h.queries.UpdateProject(r.Context(), store.UpdateProjectParams{
		ID:        id,
		Name:      req.Name,
		Uri:       uri,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, projectToResponse(project), nil)
}

// DeleteProject handles DELETE /api/v1/projects/{projectID}. Owned contacts,
// actions, messages and portals cascade.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	if _, err := h.queries.GetProjectByID(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	if err := h.queries.DeleteProject(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
