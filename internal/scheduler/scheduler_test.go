// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/crmkit/crmkit/internal/mailer"
	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/testutil"
	"github.com/crmkit/crmkit/internal/workflow"
)

func TestStartRegistersJobsAndStops(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := testutil.TestLoggerSilent()
	invoker := workflow.NewInvoker(
		service.NewContactService(db),
		service.NewEventService(db),
		nil,
		NewQueue(db),
		logger,
	)
	mail := mailer.NewDispatcher(db, nil, logger, mailer.DefaultConfig())

	s := New(db, invoker, mail, logger)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}

func TestQueueAndProcessDueActions(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	queries := store.New(db)
	now := time.Now()

	project, err := queries.CreateProject(ctx, store.CreateProjectParams{
		Name: "Acme", Uri: "acme", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	actions := service.NewActionService(db)
	logAction, err := actions.Add(ctx, project.ID, nil, service.AddActionParams{
		Type: model.ActionTypeLog, Enabled: true, Name: "audit", Options: `{"message":"deferred hit"}`,
	})
	if err != nil {
		t.Fatalf("Add action: %v", err)
	}

	queue := NewQueue(db)
	if err := queue.Enqueue(ctx, logAction.ID, nil, now.Add(-time.Minute)); err != nil {
		t.Fatalf("Enqueue due: %v", err)
	}
	if err := queue.Enqueue(ctx, logAction.ID, nil, now.Add(time.Hour)); err != nil {
		t.Fatalf("Enqueue future: %v", err)
	}

	contacts := service.NewContactService(db)
	events := service.NewEventService(db)
	invoker := workflow.NewInvoker(contacts, events,
		mailer.NewDispatcher(db, nil, testutil.TestLoggerSilent(), mailer.DefaultConfig()),
		queue, testutil.TestLoggerSilent())

	s := New(db, invoker, nil, testutil.TestLoggerSilent())
	if err := s.ProcessDueActions(ctx); err != nil {
		t.Fatalf("ProcessDueActions: %v", err)
	}

	// The due row ran and logged; the future row is untouched.
	logged, err := queries.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(logged) != 1 || logged[0].Message != "deferred hit" {
		t.Fatalf("events = %+v, want single deferred hit", logged)
	}

	remaining, err := queries.ListDueScheduledActions(ctx, store.ListDueScheduledActionsParams{
		Now: now.Add(2 * time.Hour), Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListDueScheduledActions: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining pending = %d, want the future row only", len(remaining))
	}
}

func TestRemovedActionDropsItsQueueRows(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	queries := store.New(db)
	now := time.Now()

	project, err := queries.CreateProject(ctx, store.CreateProjectParams{
		Name: "Acme", Uri: "acme", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	actions := service.NewActionService(db)
	action, err := actions.Add(ctx, project.ID, nil, service.AddActionParams{
		Type: model.ActionTypeLog, Enabled: true, Name: "gone",
	})
	if err != nil {
		t.Fatalf("Add action: %v", err)
	}

	queue := NewQueue(db)
	if err := queue.Enqueue(ctx, action.ID, nil, now.Add(-time.Minute)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := actions.Remove(ctx, project.ID, action.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	due, err := queries.ListDueScheduledActions(ctx, store.ListDueScheduledActionsParams{
		Now: now, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListDueScheduledActions: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("due = %d, want cascade to have removed the queue row", len(due))
	}

	contacts := service.NewContactService(db)
	events := service.NewEventService(db)
	invoker := workflow.NewInvoker(contacts, events,
		mailer.NewDispatcher(db, nil, testutil.TestLoggerSilent(), mailer.DefaultConfig()),
		queue, testutil.TestLoggerSilent())

	s := New(db, invoker, nil, testutil.TestLoggerSilent())
	if err := s.ProcessDueActions(ctx); err != nil {
		t.Fatalf("ProcessDueActions: %v", err)
	}
}
