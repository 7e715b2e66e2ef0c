// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs deferred workflow executions and housekeeping on a
// cron loop: due scheduled actions go through the invoker, old audit events
// get pruned, and stuck mail deliveries are re-queued.
package scheduler

import (
	"context"
	"database/sql"
	"time"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// Queue persists deferred executions. It is the workflow side of the
// scheduler: a schedule action enqueues here, the cron loop drains.
type Queue struct {
	queries *store.Queries
}

// NewQueue creates a queue backed by the scheduled_actions table.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{queries: store.New(db)}
}

// Enqueue records one deferred execution of an action.
func (q *Queue) Enqueue(ctx context.Context, actionID int64, contactID *int64, runAt time.Time) error {
	_, err := q.queries.CreateScheduledAction(ctx, store.CreateScheduledActionParams{
		ActionID:  actionID,
		ContactID: util.NullInt64FromPtr(contactID),
		RunAt:     runAt.UTC(),
		Status:    model.ScheduleStatusPending,
		CreatedAt: time.Now().UTC(),
	})
	return err
}
