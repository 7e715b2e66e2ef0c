// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestHandlerWritesWarnAndAboveOnly(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("just info, not persisted")
	logger.Warn("mail queue backlog", "pending", 12)
	logger.Error("scheduled action failed", "action_id", 3)

	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want warn+error only", len(events))
	}

	byMessage := make(map[string]store.Event, len(events))
	for _, e := range events {
		byMessage[e.Message] = e
	}

	warn, ok := byMessage["mail queue backlog"]
	if !ok {
		t.Fatal("warn record missing")
	}
	if warn.Level != model.EventLevelWarning {
		t.Errorf("warn level = %q", warn.Level)
	}
	if warn.Category != model.EventCategoryMail {
		t.Errorf("warn category = %q, want inferred mail", warn.Category)
	}
	if !strings.Contains(warn.Metadata, `"pending":"12"`) {
		t.Errorf("warn metadata = %q", warn.Metadata)
	}

	errEvent, ok := byMessage["scheduled action failed"]
	if !ok {
		t.Fatal("error record missing")
	}
	if errEvent.Level != model.EventLevelError {
		t.Errorf("error level = %q", errEvent.Level)
	}
	if errEvent.Category != model.EventCategoryWorkflow {
		t.Errorf("error category = %q, want inferred workflow", errEvent.Category)
	}
}

func TestHandlerHonorsExplicitCategory(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("something odd", "category", model.EventCategoryPortal)

	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Category != model.EventCategoryPortal {
		t.Fatalf("events = %+v, want explicit portal category", events)
	}
	// The category attribute is not duplicated into metadata.
	if strings.Contains(events[0].Metadata, "category") {
		t.Errorf("metadata = %q", events[0].Metadata)
	}
}
