// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
)

// MediaResponse represents a media entry in API responses.
type MediaResponse struct {
	ID        int64     `json:"id"`
	PortalID  int64     `json:"portal_id"`
	Folder    string    `json:"folder,omitempty"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func mediaToResponse(m store.Media) MediaResponse {
	return MediaResponse{
		ID:        m.ID,
		PortalID:  m.PortalID,
		Folder:    m.Folder,
		FileName:  m.FileName,
		MimeType:  m.MimeType,
		Size:      m.Size,
		CreatedAt: m.CreatedAt,
	}
}

// ListMedia handles GET /api/v1/portals/{portalID}/media?folder=.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	if _, err := h.queries.GetPortalByID(r.Context(), portalID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	items, err := h.media.List(r.Context(), portalID, r.URL.Query().Get("folder"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]MediaResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, mediaToResponse(m))
	}
	WriteSuccess(w, resp, nil)
}

// AddMedia handles POST /api/v1/portals/{portalID}/media: registers file
// metadata. Byte uploads go through the storage frontend, not this API.
func (h *Handler) AddMedia(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	var req struct {
		Folder   string `json:"folder,omitempty"`
		FileName string `json:"file_name"`
		MimeType string `json:"mime_type,omitempty"`
		Size     int64  `json:"size,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	media, err := h.media.Add(r.Context(), portalID, service.AddMediaParams{
		Folder:   req.Folder,
		FileName: req.FileName,
		MimeType: req.MimeType,
		Size:     req.Size,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, mediaToResponse(media))
}

// RemoveMedia handles DELETE /api/v1/portals/{portalID}/media/{id}.
func (h *Handler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.media.Remove(r.Context(), portalID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
