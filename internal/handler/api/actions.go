// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
)

// ActionResponse represents one workflow action node, with its subtree when
// resolved as a tree.
type ActionResponse struct {
	ID         int64            `json:"id"`
	ProjectID  int64            `json:"project_id"`
	ParentID   *int64           `json:"parent_id,omitempty"`
	Type       string           `json:"type"`
	SortOrder  int64            `json:"sort_order"`
	Enabled    bool             `json:"enabled"`
	Name       string           `json:"name,omitempty"`
	Options    string           `json:"options,omitempty"`
	ModifiedAt time.Time        `json:"modified_at"`
	Children   []ActionResponse `json:"children,omitempty"`
}

func actionToResponse(a store.Action) ActionResponse {
	resp := ActionResponse{
		ID:         a.ID,
		ProjectID:  a.ProjectID,
		Type:       a.Type,
		SortOrder:  a.SortOrder,
		Enabled:    a.Enabled != 0,
		Name:       a.Name,
		Options:    a.Options,
		ModifiedAt: a.ModifiedAt,
	}
	if a.ParentID.Valid {
		resp.ParentID = &a.ParentID.Int64
	}
	return resp
}

func actionNodeToResponse(node *service.ActionNode) ActionResponse {
	resp := actionToResponse(node.Action)
	for _, child := range node.Children {
		resp.Children = append(resp.Children, actionNodeToResponse(child))
	}
	return resp
}

// ActionRequest is the request body for adding or replacing an action.
// ParentID applies only on add.
type ActionRequest struct {
	ParentID *int64 `json:"parent_id,omitempty"`
	Type     string `json:"type"`
	Enabled  *bool  `json:"enabled,omitempty"`
	Name     string `json:"name,omitempty"`
	Options  string `json:"options,omitempty"`
}

func (req ActionRequest) params() service.AddActionParams {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return service.AddActionParams{
		Type:    req.Type,
		Enabled: enabled,
		Name:    req.Name,
		Options: req.Options,
	}
}

// ListActionRoots handles GET /api/v1/projects/{projectID}/actions: the root
// actions with their full subtrees.
func (h *Handler) ListActionRoots(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	roots, err := h.actions.Roots(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]ActionResponse, 0, len(roots))
	for _, root := range roots {
		resp = append(resp, actionNodeToResponse(root))
	}
	WriteSuccess(w, resp, nil)
}

// AddAction handles POST /api/v1/projects/{projectID}/actions.
func (h *Handler) AddAction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := h.actions.Add(r.Context(), projectID, req.ParentID, req.params())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, actionToResponse(action))
}

// GetActionTree handles GET /api/v1/projects/{projectID}/actions/{id}.
func (h *Handler) GetActionTree(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	node, err := h.actions.Tree(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, actionNodeToResponse(node), nil)
}

// ReplaceAction handles PUT /api/v1/projects/{projectID}/actions/{id}:
// overwrites the node's own fields, leaving placement and children alone.
func (h *Handler) ReplaceAction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := h.actions.Replace(r.Context(), projectID, id, req.params())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, actionToResponse(action), nil)
}

// RemoveAction handles DELETE /api/v1/projects/{projectID}/actions/{id}:
// the whole subtree goes.
func (h *Handler) RemoveAction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	removed, err := h.actions.Remove(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]int64{"removed": removed}, nil)
}

// MoveAction handles POST /api/v1/projects/{projectID}/actions/{id}/move:
// repositions the node before the given sibling, or to the end of its
// sibling list when before_id is absent.
func (h *Handler) MoveAction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		BeforeID *int64 `json:"before_id,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.actions.MoveBefore(r.Context(), projectID, id, req.BeforeID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	node, err := h.actions.Tree(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, actionNodeToResponse(node), nil)
}

// CopyAction handles POST /api/v1/projects/{projectID}/actions/{id}/copy:
// clones the subtree as a new sibling of the source.
func (h *Handler) CopyAction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	clone, err := h.actions.Copy(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, actionToResponse(clone))
}

// ActionLinkResponse represents a shareable action link.
type ActionLinkResponse struct {
	ID        string    `json:"id"`
	ActionID  int64     `json:"action_id"`
	ContactID *int64    `json:"contact_id,omitempty"`
	CustomURI string    `json:"custom_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func actionLinkToResponse(l store.ActionLink) ActionLinkResponse {
	resp := ActionLinkResponse{
		ID:        l.ID,
		ActionID:  l.ActionID,
		CustomURI: l.CustomUri,
		CreatedAt: l.CreatedAt,
	}
	if l.ContactID.Valid {
		resp.ContactID = &l.ContactID.Int64
	}
	return resp
}

// ListActionLinks handles GET /api/v1/projects/{projectID}/actions/{id}/links.
func (h *Handler) ListActionLinks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	// Scope check before listing.
	if _, err := h.actions.Tree(r.Context(), projectID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	links, err := h.queries.ListActionLinks(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]ActionLinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, actionLinkToResponse(l))
	}
	WriteSuccess(w, resp, nil)
}

// CreateActionLink handles POST /api/v1/projects/{projectID}/actions/{id}/links.
func (h *Handler) CreateActionLink(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		ContactID *int64 `json:"contact_id,omitempty"`
		CustomURI string `json:"custom_uri,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	link, err := h.actions.CreateLink(r.Context(), projectID, id, req.ContactID, req.CustomURI)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, actionLinkToResponse(link))
}
