// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic for crmkit: the workflow action
// tree, portal pages with master layering, contacts with business tags, and
// audit event logging.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// EventService provides audit event logging.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, projectID, contactID *int64, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		ProjectID: util.NullInt64FromPtr(projectID),
		ContactID: util.NullInt64FromPtr(contactID),
		Metadata:  metadataJSON,
		IpAddress: ipAddress,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("Failed to log event: %v", err)
		return err
	}

	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, projectID, contactID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, projectID, contactID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, projectID, contactID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, projectID, contactID, ipAddress, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message string, projectID, contactID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, projectID, contactID, ipAddress, metadata)
}

// LogWorkflowEvent logs a workflow-related event.
func (s *EventService) LogWorkflowEvent(ctx context.Context, level, message string, projectID, contactID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryWorkflow, message, projectID, contactID, ipAddress, metadata)
}

// ListEvents pages through events, newest first, optionally filtered by
// category.
func (s *EventService) ListEvents(ctx context.Context, category string, limit, offset int64) ([]store.Event, error) {
	return s.queries.ListEvents(ctx, store.ListEventsParams{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) error {
	_, err := s.queries.DeleteEventsBefore(ctx, time.Now().Add(-olderThan))
	return err
}
