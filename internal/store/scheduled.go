// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const scheduledColumns = "id, action_id, contact_id, run_at, status, created_at"

func scanScheduled(row interface{ Scan(...any) error }) (ScheduledAction, error) {
	var s ScheduledAction
	err := row.Scan(&s.ID, &s.ActionID, &s.ContactID, &s.RunAt, &s.Status, &s.CreatedAt)
	return s, err
}

// CreateScheduledActionParams defers one workflow execution to a later time.
type CreateScheduledActionParams struct {
	ActionID  int64
	ContactID sql.NullInt64
	RunAt     time.Time
	Status    string
	CreatedAt time.Time
}

// CreateScheduledAction inserts a deferred execution row.
func (q *Queries) CreateScheduledAction(ctx context.Context, arg CreateScheduledActionParams) (ScheduledAction, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO scheduled_actions (action_id, contact_id, run_at, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+scheduledColumns,
		arg.ActionID, arg.ContactID, arg.RunAt, arg.Status, arg.CreatedAt,
	)
	return scanScheduled(row)
}

// ListDueScheduledActionsParams bounds a poll for due work.
type ListDueScheduledActionsParams struct {
	Now   time.Time
	Limit int64
}

// ListDueScheduledActions returns pending rows whose run time has passed,
// oldest first.
func (q *Queries) ListDueScheduledActions(ctx context.Context, arg ListDueScheduledActionsParams) ([]ScheduledAction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+scheduledColumns+` FROM scheduled_actions
		WHERE status = 'pending' AND run_at <= ?
		ORDER BY run_at, id LIMIT ?`,
		arg.Now, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScheduledAction
	for rows.Next() {
		s, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// UpdateScheduledActionStatus records the outcome of a deferred execution.
func (q *Queries) UpdateScheduledActionStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE scheduled_actions SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteScheduledAction removes a deferred execution row.
func (q *Queries) DeleteScheduledAction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM scheduled_actions WHERE id = ?`, id)
	return err
}
