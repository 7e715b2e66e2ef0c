// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// EventResponse represents one audit log entry.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	ProjectID *int64          `json:"project_id,omitempty"`
	ContactID *int64          `json:"contact_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IPAddress string          `json:"ip_address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		ProjectID: util.PtrFromNullInt64(e.ProjectID),
		ContactID: util.PtrFromNullInt64(e.ContactID),
		IPAddress: e.IpAddress,
		CreatedAt: e.CreatedAt,
	}
	if json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// ListEvents handles GET /api/v1/events?category=: the audit log, newest
// first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	items, err := h.events.ListEvents(r.Context(), r.URL.Query().Get("category"),
		int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := make([]EventResponse, 0, len(items))
	for _, e := range items {
		resp = append(resp, eventToResponse(e))
	}
	WriteSuccess(w, resp, &Meta{Page: page, PerPage: perPage})
}
