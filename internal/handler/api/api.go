// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crmkit/crmkit/internal/geoip"
	"github.com/crmkit/crmkit/internal/mailer"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/workflow"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	actions  *service.ActionService
	contacts *service.ContactService
	pages    *service.PageService
	media    *service.MediaService
	search   *service.SearchService
	nav      *service.NavigationService
	events   *service.EventService
	mail     *mailer.Dispatcher
	invoker  *workflow.Invoker
	geo      *geoip.Lookup
	logger   *slog.Logger
}

// NewHandler creates the API handler with its collaborators.
func NewHandler(db *sql.DB, layers *service.LayersCache, mail *mailer.Dispatcher, invoker *workflow.Invoker, geo *geoip.Lookup, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:       db,
		queries:  store.New(db),
		actions:  service.NewActionService(db),
		contacts: service.NewContactService(db),
		pages:    service.NewPageService(db, layers),
		media:    service.NewMediaService(db),
		search:   service.NewSearchService(db),
		nav:      service.NewNavigationService(db),
		events:   service.NewEventService(db),
		mail:     mail,
		invoker:  invoker,
		geo:      geo,
		logger:   logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// writeServiceError maps service layer sentinels onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidOperation):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_operation", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidArgument):
		WriteBadRequest(w, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		WriteForbidden(w, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		WriteInternalError(w, "Internal error")
	}
}

// decodeBody unmarshals a JSON request body. Returns false with a response
// written on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}

// urlID parses a numeric URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// pathProjectID parses the {projectID} URL parameter. Returns 0 with a
// response written when invalid.
func pathProjectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := urlID(r, "projectID")
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid project ID", nil)
		return 0, false
	}
	return id, true
}

// pathPortalID parses the {portalID} URL parameter.
func pathPortalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := urlID(r, "portalID")
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid portal ID", nil)
		return 0, false
	}
	return id, true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := urlID(r, "id")
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid ID", nil)
		return 0, false
	}
	return id, true
}

// pagination parses page/per_page query parameters with bounds.
func pagination(r *http.Request) (page, perPage int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	perPage = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

// Health handles GET /healthz: a DB ping without authentication.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
