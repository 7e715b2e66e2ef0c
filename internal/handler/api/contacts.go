// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/auth"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
)

// ContactResponse represents a contact in API responses. The secret hash
// never leaves the server.
type ContactResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	HasSecret bool      `json:"has_secret"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func contactToResponse(c store.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Email:     c.Email,
		Name:      c.Name,
		HasSecret: c.SecretHash != "",
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ContactRequest is the request body for creating or updating a contact.
// Secret, when set, is hashed before storage.
type ContactRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Secret string `json:"secret,omitempty"`
}

func (h *Handler) contactParams(w http.ResponseWriter, req ContactRequest) (service.CreateContactParams, bool) {
	params := service.CreateContactParams{Email: req.Email, Name: req.Name}
	if req.Secret != "" {
		hash, err := auth.HashSecret(req.Secret)
		if err != nil {
			h.logger.Error("hashing contact secret", "error", err)
			WriteInternalError(w, "Internal error")
			return params, false
		}
		params.SecretHash = hash
	}
	return params, true
}

// ListContacts handles GET /api/v1/projects/{projectID}/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	page, perPage := pagination(r)
	items, total, err := h.contacts.List(r.Context(), projectID, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]ContactResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, contactToResponse(c))
	}
	WriteSuccess(w, resp, &Meta{Total: total, Page: page, PerPage: perPage})
}

// CreateContact handles POST /api/v1/projects/{projectID}/contacts.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	params, ok := h.contactParams(w, req)
	if !ok {
		return
	}
	contact, err := h.contacts.Create(r.Context(), projectID, params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, contactToResponse(contact))
}

// GetContact handles GET /api/v1/projects/{projectID}/contacts/{id}.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contact, err := h.contacts.Get(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, contactToResponse(contact), nil)
}

// UpdateContact handles PUT /api/v1/projects/{projectID}/contacts/{id}.
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	params, ok := h.contactParams(w, req)
	if !ok {
		return
	}
	if params.SecretHash == "" {
		// Keep the stored secret when the request does not rotate it.
		current, err := h.contacts.Get(r.Context(), projectID, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		params.SecretHash = current.SecretHash
	}
	contact, err := h.contacts.Update(r.Context(), projectID, id, params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, contactToResponse(contact), nil)
}

// DeleteContact handles DELETE /api/v1/projects/{projectID}/contacts/{id}.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.contacts.Delete(r.Context(), projectID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// SearchContacts handles GET /api/v1/projects/{projectID}/contacts/search?q=.
func (h *Handler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteBadRequest(w, "Query parameter q is required", nil)
		return
	}
	items, err := h.search.SearchContacts(r.Context(), projectID, query, 50)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]ContactResponse, 0, len(items))
	for _, c := range items {
		resp = append(resp, contactToResponse(c))
	}
	WriteSuccess(w, resp, nil)
}

// TagResponse represents a business tag in API responses.
type TagResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func tagToResponse(t store.BusinessTag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Name:      t.Name,
		Slug:      t.Slug,
		CreatedAt: t.CreatedAt,
	}
}

// ListTags handles GET /api/v1/projects/{projectID}/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	items, err := h.contacts.ListTags(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]TagResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, tagToResponse(t))
	}
	WriteSuccess(w, resp, nil)
}

// CreateTag handles POST /api/v1/projects/{projectID}/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := h.contacts.CreateTag(r.Context(), projectID, service.CreateTagParams{Name: req.Name})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, tagToResponse(tag))
}

// DeleteTag handles DELETE /api/v1/projects/{projectID}/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.contacts.DeleteTag(r.Context(), projectID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// ListContactTags handles GET /api/v1/projects/{projectID}/contacts/{id}/tags.
func (h *Handler) ListContactTags(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.contacts.ContactTags(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]TagResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, tagToResponse(t))
	}
	WriteSuccess(w, resp, nil)
}

// SetContactTags handles PUT /api/v1/projects/{projectID}/contacts/{id}/tags:
// an include/exclude set applied in one call.
func (h *Handler) SetContactTags(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Include []string `json:"include,omitempty"`
		Exclude []string `json:"exclude,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.contacts.SetTags(r.Context(), projectID, id, req.Include, req.Exclude); err != nil {
		h.writeServiceError(w, err)
		return
	}
	items, err := h.contacts.ContactTags(r.Context(), projectID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]TagResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, tagToResponse(t))
	}
	WriteSuccess(w, resp, nil)
}
