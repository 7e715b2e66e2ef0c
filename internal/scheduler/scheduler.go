// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crmkit/crmkit/internal/mailer"
	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/workflow"
)

const (
	dueBatchSize       = 50
	mailSweepBatchSize = 100
	eventRetention     = 90 * 24 * time.Hour
)

// Scheduler drives the periodic jobs of the backend.
type Scheduler struct {
	db      *sql.DB
	queries *store.Queries
	actions *service.ActionService
	events  *service.EventService
	invoker *workflow.Invoker
	mail    *mailer.Dispatcher
	cron    *cron.Cron
	logger  *slog.Logger
}

// New creates a scheduler instance.
func New(db *sql.DB, invoker *workflow.Invoker, mail *mailer.Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:      db,
		queries: store.New(db),
		actions: service.NewActionService(db),
		events:  service.NewEventService(db),
		invoker: invoker,
		mail:    mail,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the cron jobs and begins the loop: due workflow actions
// every minute, mail sweep every five minutes, event pruning daily.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.ProcessDueActions(context.Background()); err != nil {
			s.logger.Error("failed to process due actions", "error", err)
		}
	}); err != nil {
		return err
	}

	if s.mail != nil {
		if _, err := s.cron.AddFunc("*/5 * * * *", func() {
			if err := s.mail.DispatchPending(context.Background(), mailSweepBatchSize); err != nil {
				s.logger.Error("failed to sweep pending mail", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.events.DeleteOldEvents(context.Background(), eventRetention); err != nil {
			s.logger.Error("failed to prune old events", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// ProcessDueActions executes pending scheduled actions whose run time has
// passed. Each execution gets a fresh context; the produced result is
// discarded since there is no request to respond to.
func (s *Scheduler) ProcessDueActions(ctx context.Context) error {
	due, err := s.queries.ListDueScheduledActions(ctx, store.ListDueScheduledActionsParams{
		Now:   time.Now().UTC(),
		Limit: dueBatchSize,
	})
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Info("processing due scheduled actions", "count", len(due))
	for _, row := range due {
		status := model.ScheduleStatusDone
		if err := s.runScheduled(ctx, row); err != nil {
			status = model.ScheduleStatusFailed
			s.logger.Error("scheduled action failed",
				"scheduled_id", row.ID, "action_id", row.ActionID, "error", err)
		}
		if err := s.queries.UpdateScheduledActionStatus(ctx, row.ID, status); err != nil {
			s.logger.Error("failed to update scheduled action status",
				"scheduled_id", row.ID, "error", err)
		}
	}
	return nil
}

func (s *Scheduler) runScheduled(ctx context.Context, row store.ScheduledAction) error {
	action, err := s.queries.GetActionByID(ctx, row.ActionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Action tree was removed after scheduling. Nothing to run.
			return nil
		}
		return err
	}
	project, err := s.queries.GetProjectByID(ctx, action.ProjectID)
	if err != nil {
		return err
	}
	node, err := s.actions.Tree(ctx, project.ID, action.ID)
	if err != nil {
		return err
	}

	var contact *store.Contact
	if row.ContactID.Valid {
		c, err := s.queries.GetContactByID(ctx, row.ContactID.Int64)
		if err == nil {
			contact = &c
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}

	ec := workflow.NewExecutionContext(project, nil, contact, workflow.EventItem{})
	_, err = s.invoker.Invoke(ctx, ec, node)
	return err
}
