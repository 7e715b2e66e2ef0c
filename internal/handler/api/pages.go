// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// htmlSanitizer strips scripts and event handlers from submitted page bodies
// while keeping the structural and formatting tags a page builder needs.
var htmlSanitizer = bluemonday.UGCPolicy().
	AllowAttrs("class", "id", "style").Globally().
	AllowElements("section", "article", "header", "footer", "nav", "aside", "figure", "figcaption")

// PageResponse represents a portal page in API responses.
type PageResponse struct {
	ID           int64     `json:"id"`
	PortalID     int64     `json:"portal_id"`
	URI          string    `json:"uri"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	HTMLContent  string    `json:"html_content,omitempty"`
	StyleContent string    `json:"style_content,omitempty"`
	MasterID     *int64    `json:"master_id,omitempty"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	ModifiedAt   time.Time `json:"modified_at"`
}

func pageToResponse(p store.Page) PageResponse {
	return PageResponse{
		ID:           p.ID,
		PortalID:     p.PortalID,
		URI:          p.Uri,
		Name:         p.Name,
		Description:  p.Description,
		HTMLContent:  p.HtmlContent,
		StyleContent: p.StyleContent,
		MasterID:     util.PtrFromNullInt64(p.MasterID),
		ParentID:     util.PtrFromNullInt64(p.ParentID),
		ModifiedAt:   p.ModifiedAt,
	}
}

// pageSummary is the listing shape: content bodies stay out of list payloads.
type pageSummary struct {
	ID          int64     `json:"id"`
	PortalID    int64     `json:"portal_id"`
	URI         string    `json:"uri"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MasterID    *int64    `json:"master_id,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	ModifiedAt  time.Time `json:"modified_at"`
}

func pageToSummary(p store.Page) pageSummary {
	return pageSummary{
		ID:          p.ID,
		PortalID:    p.PortalID,
		URI:         p.Uri,
		Name:        p.Name,
		Description: p.Description,
		MasterID:    util.PtrFromNullInt64(p.MasterID),
		ParentID:    util.PtrFromNullInt64(p.ParentID),
		ModifiedAt:  p.ModifiedAt,
	}
}

// PageRequest is the request body for adding or replacing a page.
type PageRequest struct {
	URI          string `json:"uri"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	HTMLContent  string `json:"html_content,omitempty"`
	StyleContent string `json:"style_content,omitempty"`
	MasterID     *int64 `json:"master_id,omitempty"`
	ParentID     *int64 `json:"parent_id,omitempty"`
}

func (req PageRequest) params() service.AddPageParams {
	return service.AddPageParams{
		Uri:          req.URI,
		Name:         req.Name,
		Description:  req.Description,
		HtmlContent:  htmlSanitizer.Sanitize(req.HTMLContent),
		StyleContent: req.StyleContent,
		MasterID:     req.MasterID,
		ParentID:     req.ParentID,
	}
}

// ListPages handles GET /api/v1/portals/{portalID}/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	items, err := h.pages.ListPages(r.Context(), portalID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]pageSummary, 0, len(items))
	for _, p := range items {
		resp = append(resp, pageToSummary(p))
	}
	WriteSuccess(w, resp, nil)
}

// AddPage handles POST /api/v1/portals/{portalID}/pages.
func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	page, err := h.pages.AddPage(r.Context(), portalID, req.params())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, pageToResponse(page))
}

// GetPage handles GET /api/v1/portals/{portalID}/pages/{id}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, err := h.pages.GetPage(r.Context(), portalID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, pageToResponse(page), nil)
}

// ReplacePage handles PUT /api/v1/portals/{portalID}/pages/{id}.
func (h *Handler) ReplacePage(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	page, err := h.pages.ReplacePage(r.Context(), portalID, id, req.params())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, pageToResponse(page), nil)
}

// RemovePage handles DELETE /api/v1/portals/{portalID}/pages/{id}.
func (h *Handler) RemovePage(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.pages.RemovePage(r.Context(), portalID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// SetPageMaster handles PUT /api/v1/portals/{portalID}/pages/{id}/master:
// assigns or clears the page's master layer.
func (h *Handler) SetPageMaster(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		MasterID *int64 `json:"master_id,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.pages.SetPageMaster(r.Context(), portalID, id, req.MasterID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	page, err := h.pages.GetPage(r.Context(), portalID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, pageToResponse(page), nil)
}

// LayersResponse is the resolved render stack for a URI: the content page
// plus its master chain, outermost last.
type LayersResponse struct {
	ContentPage *PageResponse  `json:"content_page"`
	MasterPages []PageResponse `json:"master_pages"`
}

// ResolveLayers handles GET /api/v1/portals/{portalID}/layers?uri=.
func (h *Handler) ResolveLayers(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	uri := r.URL.Query().Get("uri")
	layers, err := h.pages.ResolveLayersByURI(r.Context(), portalID, uri)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if layers.Empty() {
		WriteNotFound(w, "No page matches this URI")
		return
	}
	resp := LayersResponse{MasterPages: make([]PageResponse, 0, len(layers.MasterPages))}
	content := pageToResponse(*layers.ContentPage)
	resp.ContentPage = &content
	for _, m := range layers.MasterPages {
		resp.MasterPages = append(resp.MasterPages, pageToResponse(m))
	}
	WriteSuccess(w, resp, nil)
}

// PortalNavigation handles GET /api/v1/portals/{portalID}/navigation.
func (h *Handler) PortalNavigation(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	if _, err := h.queries.GetPortalByID(r.Context(), portalID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	items, err := h.nav.PortalNavigation(r.Context(), portalID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, items, nil)
}

// SearchPages handles GET /api/v1/portals/{portalID}/pages/search?q=.
func (h *Handler) SearchPages(w http.ResponseWriter, r *http.Request) {
	portalID, ok := pathPortalID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteBadRequest(w, "Query parameter q is required", nil)
		return
	}
	items, err := h.search.SearchPages(r.Context(), portalID, query, 50)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]pageSummary, 0, len(items))
	for _, p := range items {
		resp = append(resp, pageToSummary(p))
	}
	WriteSuccess(w, resp, nil)
}
