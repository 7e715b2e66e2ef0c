// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventColumns = "id, level, category, message, project_id, contact_id, metadata, ip_address, created_at"

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(
		&e.ID,
		&e.Level,
		&e.Category,
		&e.Message,
		&e.ProjectID,
		&e.ContactID,
		&e.Metadata,
		&e.IpAddress,
		&e.CreatedAt,
	)
	return e, err
}

// CreateEventParams holds the fields for a new audit event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	ProjectID sql.NullInt64
	ContactID sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

// CreateEvent appends an audit event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO events (level, category, message, project_id, contact_id, metadata, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns,
		arg.Level, arg.Category, arg.Message, arg.ProjectID, arg.ContactID,
		arg.Metadata, arg.IpAddress, arg.CreatedAt,
	)
	return scanEvent(row)
}

// ListEventsParams pages through events, newest first, optionally filtered
// by category (empty matches all).
type ListEventsParams struct {
	Category string
	Limit    int64
	Offset   int64
}

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE (? = '' OR category = ?)
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Category, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// DeleteEventsBefore prunes events created before the cutoff. Returns the
// number of rows removed.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
