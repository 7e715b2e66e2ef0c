// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/store"
)

// MailMessageResponse represents a mail template in API responses.
type MailMessageResponse struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	IsMarkdown bool      `json:"is_markdown"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func mailMessageToResponse(m store.MailMessage) MailMessageResponse {
	return MailMessageResponse{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		Subject:    m.Subject,
		Body:       m.Body,
		IsMarkdown: m.IsMarkdown != 0,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// MailMessageRequest is the request body for creating or updating a mail
// template.
type MailMessageRequest struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	IsMarkdown bool   `json:"is_markdown,omitempty"`
}

// projectMailMessage loads a message and checks project ownership.
func (h *Handler) projectMailMessage(w http.ResponseWriter, r *http.Request) (store.MailMessage, bool) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return store.MailMessage{}, false
	}
	id, ok := pathID(w, r)
	if !ok {
		return store.MailMessage{}, false
	}
	msg, err := h.queries.GetMailMessageByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return store.MailMessage{}, false
	}
	if msg.ProjectID != projectID {
		WriteNotFound(w, "Message not found")
		return store.MailMessage{}, false
	}
	return msg, true
}

// ListMailMessages handles GET /api/v1/projects/{projectID}/messages.
func (h *Handler) ListMailMessages(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	items, err := h.queries.ListMailMessages(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]MailMessageResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, mailMessageToResponse(m))
	}
	WriteSuccess(w, resp, nil)
}

// CreateMailMessage handles POST /api/v1/projects/{projectID}/messages.
func (h *Handler) CreateMailMessage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathProjectID(w, r)
	if !ok {
		return
	}
	var req MailMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject == "" {
		WriteBadRequest(w, "Subject is required", nil)
		return
	}
	if _, err := h.queries.GetProjectByID(r.Context(), projectID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	isMarkdown := int64(0)
	if req.IsMarkdown {
		isMarkdown = 1
	}
	now := time.Now().UTC()
	msg, err := h.queries.CreateMailMessage(r.Context(), store.CreateMailMessageParams{
		ProjectID:  projectID,
		Subject:    req.Subject,
		Body:       req.Body,
		IsMarkdown: isMarkdown,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, mailMessageToResponse(msg))
}

// GetMailMessage handles GET /api/v1/projects/{projectID}/messages/{id}.
func (h *Handler) GetMailMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.projectMailMessage(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, mailMessageToResponse(msg), nil)
}

// UpdateMailMessage handles PUT /api/v1/projects/{projectID}/messages/{id}.
func (h *Handler) UpdateMailMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.projectMailMessage(w, r)
	if !ok {
		return
	}
	var req MailMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject == "" {
		WriteBadRequest(w, "Subject is required", nil)
		return
	}
	isMarkdown := int64(0)
	if req.IsMarkdown {
		isMarkdown = 1
	}
	updated, err := h.queries.UpdateMailMessage(r.Context(), store.UpdateMailMessageParams{
		ID:         msg.ID,
		Subject:    req.Subject,
		Body:       req.Body,
		IsMarkdown: isMarkdown,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, mailMessageToResponse(updated), nil)
}

// DeleteMailMessage handles DELETE /api/v1/projects/{projectID}/messages/{id}.
// Delivery history goes with it.
func (h *Handler) DeleteMailMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.projectMailMessage(w, r)
	if !ok {
		return
	}
	if err := h.queries.DeleteMailMessage(r.Context(), msg.ID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// MailMessageStats handles GET /api/v1/projects/{projectID}/messages/{id}/stats:
// delivery counts by status.
func (h *Handler) MailMessageStats(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.projectMailMessage(w, r)
	if !ok {
		return
	}
	stats, err := h.mail.MessageStats(r.Context(), msg.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, stats, nil)
}
