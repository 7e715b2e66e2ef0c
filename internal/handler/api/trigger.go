// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/crmkit/crmkit/internal/middleware"
	"github.com/crmkit/crmkit/internal/workflow"
)

// anonymousIDCookie identifies returning visitors that never registered.
const anonymousIDCookie = "crmkit_aid"

// Params with meaning to the trigger endpoint itself. Everything else in the
// request becomes a workflow property.
const (
	paramEmail    = "email"
	paramSecret   = "secret"
	paramClientID = "cid"
)

// Trigger handles GET and POST /l/{linkID}: the public entry point that runs
// the workflow behind an action link. Form fields and query parameters feed
// the execution as properties; the workflow outcome decides the response.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")
	if linkID == "" {
		WriteNotFound(w, "Unknown link")
		return
	}
	link, node, err := h.actions.GetByLink(r.Context(), linkID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	project, err := h.queries.GetProjectByID(r.Context(), node.ProjectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteBadRequest(w, "Malformed request parameters", nil)
		return
	}

	var ticket *workflow.AuthTicket
	if email := r.Form.Get(paramEmail); email != "" {
		ticket = &workflow.AuthTicket{Email: email, Secret: r.Form.Get(paramSecret)}
	}

	ec := workflow.NewExecutionContext(project, ticket, nil, h.eventItem(w, r))
	if link.ContactID.Valid {
		contact, err := h.contacts.Get(r.Context(), project.ID, link.ContactID.Int64)
		if err == nil {
			ec.Contact = &contact
		}
	}
	for key, values := range r.Form {
		if key == paramEmail || key == paramSecret || key == paramClientID {
			continue
		}
		if len(values) > 0 {
			ec.Properties[key] = values[0]
		}
	}

	result, err := h.invoker.Invoke(r.Context(), ec, node)
	if err != nil {
		h.logger.Error("trigger invocation failed", "link_id", linkID, "error", err)
		h.writeServiceError(w, err)
		return
	}

	switch {
	case result != nil && result.Kind == workflow.ResultRedirect:
		http.Redirect(w, r, result.URI, http.StatusFound)
	case result != nil && result.Kind == workflow.ResultForbidden:
		WriteForbidden(w, "Access denied")
	case link.CustomUri != "":
		http.Redirect(w, r, link.CustomUri, http.StatusFound)
	default:
		WriteSuccess(w, map[string]string{"status": "ok"}, nil)
	}
}

// eventItem assembles the request telemetry for a workflow execution,
// assigning the anonymous-ID cookie on first contact.
func (h *Handler) eventItem(w http.ResponseWriter, r *http.Request) workflow.EventItem {
	anonymousID := ""
	if c, err := r.Cookie(anonymousIDCookie); err == nil && c.Value != "" {
		anonymousID = c.Value
	} else {
		anonymousID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     anonymousIDCookie,
			Value:    anonymousID,
			Path:     "/",
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	ip := middleware.ClientIP(r)
	item := workflow.EventItem{
		ClientID:    r.Form.Get(paramClientID),
		AnonymousID: anonymousID,
		Referrer:    r.Referer(),
		IPAddress:   ip,
	}
	if ua := useragent.Parse(r.UserAgent()); ua.Name != "" {
		item.Browser = ua.Name + " " + ua.Version
	}
	if h.geo != nil {
		item.CountryCode = h.geo.LookupCountry(ip)
	}
	return item
}
