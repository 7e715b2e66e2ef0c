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

// PortalResponse represents a portal in API responses.
type PortalResponse struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Name         string    `json:"name"`
	URI          string    `json:"uri"`
	Domain       string    `json:"domain,omitempty"`
	HomePageID   *int64    `json:"home_page_id,omitempty"`
	MasterPageID *int64    `json:"master_page_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func portalToResponse(p store.Portal) PortalResponse {
	return PortalResponse{
		ID:           p.ID,
		ProjectID:    p.ProjectID,
		Name:         p.Name,
		URI:          p.Uri,
		Domain:       p.Domain,
		HomePageID:   util.PtrFromNullInt64(p.HomePageID),
		MasterPageID: util.PtrFromNullInt64(p.MasterPageID),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PortalRequest is the request body for creating or updating a portal.
// HomePageID and MasterPageID apply only on update.
type PortalRequest struct {
	Name         string `json:"name"`
	URI          string `json:"uri,omitempty"`
	Domain       string `json:"domain,omitempty"`
	HomePageID   *int64 `json:"home_page_id,omitempty"`
	MasterPageID *int64 `json:"master_page_id,omitempty"`
}

// ListPortals handles GET /api/v1/projects/{projectID}/portals.
func (h *Handler) ListPortals(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	if _, err := h.queries.GetProjectByID(r.Context(), projectID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	items, err := h.queries.ListPortals(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]PortalResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, portalToResponse(p))
	}
	WriteSuccess(w, resp, nil)
}

// CreatePortal handles POST /api/v1/projects/{projectID}/portals. The URI is
// globally unique across portals since it doubles as a host-path prefix.
func (h *Handler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req PortalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, "Name is required", nil)
		return
	}
	if _, err := h.queries.GetProjectByID(r.Context(), projectID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	uri := req.URI
	if uri == "" {
		uri = req.Name
	}
	uri = util.Slugify(uri)
	if _, err := h.queries.GetPortalByURI(r.Context(), uri); err == nil {
		WriteError(w, http.StatusConflict, "conflict", "Portal URI already exists", nil)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.writeServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	portal, err := h.queries.CreatePortal(r.Context(), store.CreatePortalParams{
		ProjectID: projectID,
		Name:      req.Name,
		Uri:       uri,
		Domain:    req.Domain,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, portalToResponse(portal))
}

// GetPortal handles GET /api/v1/portals/{portalID}.
func (h *Handler) GetPortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	portal, err := h.queries.GetPortalByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, portalToResponse(portal), nil)
}

// UpdatePortal handles PUT /api/v1/portals/{portalID}. Designated home and
// master pages must belong to the portal.
func (h *Handler) UpdatePortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	var req PortalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteBadRequest(w, "Name is required", nil)
		return
	}

	current, err := h.queries.GetPortalByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	uri := current.Uri
	if req.URI != "" {
		uri = util.Slugify(req.URI)
		if other, err := h.queries.GetPortalByURI(r.Context(), uri); err == nil && other.ID != id {
			WriteError(w, http.StatusConflict, "conflict", "Portal URI already exists", nil)
			return
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			h.writeServiceError(w, err)
			return
		}
	}

	for _, pageID := range []*int64{req.HomePageID, req.MasterPageID} {
		if pageID == nil {
			continue
		}
		page, err := h.queries.GetPageByID(r.Context(), *pageID)
		if err != nil || page.PortalID != id {
			WriteError(w, http.StatusUnprocessableEntity, "invalid_operation", "Page does not belong to this portal", nil)
			return
		}
	}

	portal, err := h.queries.UpdatePortal(r.Context(), store.UpdatePortalParams{
		ID:           id,
		Name:         req.Name,
		Uri:          uri,
		Domain:       req.Domain,
		HomePageID:   util.NullInt64FromPtr(req.HomePageID),
		MasterPageID: util.NullInt64FromPtr(req.MasterPageID),
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, portalToResponse(portal), nil)
}

// DeletePortal handles DELETE /api/v1/portals/{portalID}. Pages and media
// cascade.
func (h *Handler) DeletePortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	if _, err := h.queries.GetPortalByID(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	if err := h.queries.DeletePortal(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
