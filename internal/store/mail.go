// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const mailMessageColumns = "id, project_id, subject, body, is_markdown, created_at, updated_at"

func scanMailMessage(row interface{ Scan(...any) error }) (MailMessage, error) {
	var m MailMessage
	err := row.Scan(&m.ID, &m.ProjectID, &m.Subject, &m.Body, &m.IsMarkdown, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// CreateMailMessageParams holds the fields for a new mail template.
type CreateMailMessageParams struct {
	ProjectID  int64
	Subject    string
	Body       string
	IsMarkdown int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateMailMessage inserts a new mail template and returns the stored row.
func (q *Queries) CreateMailMessage(ctx context.Context, arg CreateMailMessageParams) (MailMessage, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO mail_messages (project_id, subject, body, is_markdown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+mailMessageColumns,
		arg.ProjectID, arg.Subject, arg.Body, arg.IsMarkdown, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanMailMessage(row)
}

// GetMailMessageByID fetches a single mail template.
func (q *Queries) GetMailMessageByID(ctx context.Context, id int64) (MailMessage, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+mailMessageColumns+` FROM mail_messages WHERE id = ?`, id)
	return scanMailMessage(row)
}

// ListMailMessages returns the mail templates of a project, newest first.
func (q *Queries) ListMailMessages(ctx context.Context, projectID int64) ([]MailMessage, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+mailMessageColumns+` FROM mail_messages
		WHERE project_id = ? ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MailMessage
	for rows.Next() {
		m, err := scanMailMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// UpdateMailMessageParams overwrites the mutable fields of a mail template.
type UpdateMailMessageParams struct {
	ID         int64
	Subject    string
	Body       string
	IsMarkdown int64
	UpdatedAt  time.Time
}

// UpdateMailMessage overwrites subject, body and format of a mail template.
func (q *Queries) UpdateMailMessage(ctx context.Context, arg UpdateMailMessageParams) (MailMessage, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE mail_messages SET subject = ?, body = ?, is_markdown = ?, updated_at = ? WHERE id = ?
		RETURNING `+mailMessageColumns,
		arg.Subject, arg.Body, arg.IsMarkdown, arg.UpdatedAt, arg.ID,
	)
	return scanMailMessage(row)
}

// DeleteMailMessage removes a mail template. Deliveries cascade.
func (q *Queries) DeleteMailMessage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM mail_messages WHERE id = ?`, id)
	return err
}

const mailDeliveryColumns = "id, message_id, contact_id, status, error, created_at, updated_at"

func scanMailDelivery(row interface{ Scan(...any) error }) (MailDelivery, error) {
	var d MailDelivery
	err := row.Scan(&d.ID, &d.MessageID, &d.ContactID, &d.Status, &d.Error, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// CreateMailDeliveryParams enqueues one send of a message to a contact.
type CreateMailDeliveryParams struct {
	MessageID int64
	ContactID int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMailDelivery inserts a new pending delivery row.
func (q *Queries) CreateMailDelivery(ctx context.Context, arg CreateMailDeliveryParams) (MailDelivery, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO mail_deliveries (message_id, contact_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+mailDeliveryColumns,
		arg.MessageID, arg.ContactID, arg.Status, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanMailDelivery(row)
}

// GetMailDeliveryByID fetches a single delivery row.
func (q *Queries) GetMailDeliveryByID(ctx context.Context, id int64) (MailDelivery, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+mailDeliveryColumns+` FROM mail_deliveries WHERE id = ?`, id)
	return scanMailDelivery(row)
}

// ListPendingMailDeliveries returns up to limit deliveries awaiting dispatch,
// oldest first.
func (q *Queries) ListPendingMailDeliveries(ctx context.Context, limit int64) ([]MailDelivery, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+mailDeliveryColumns+` FROM mail_deliveries
		WHERE status = 'pending' ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MailDelivery
	for rows.Next() {
		d, err := scanMailDelivery(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// UpdateMailDeliveryStatusParams records the outcome of a dispatch attempt.
type UpdateMailDeliveryStatusParams struct {
	ID        int64
	Status    string
	Error     string
	UpdatedAt time.Time
}

// UpdateMailDeliveryStatus marks a delivery sent or failed.
func (q *Queries) UpdateMailDeliveryStatus(ctx context.Context, arg UpdateMailDeliveryStatusParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE mail_deliveries SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		arg.Status, arg.Error, arg.UpdatedAt, arg.ID,
	)
	return err
}

// CountMailDeliveriesByStatus returns how many deliveries of a message are in
// the given status.
type CountMailDeliveriesByStatusParams struct {
	MessageID int64
	Status    string
}

func (q *Queries) CountMailDeliveriesByStatus(ctx context.Context, arg CountMailDeliveriesByStatusParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM mail_deliveries WHERE message_id = ? AND status = ?`,
		arg.MessageID, arg.Status,
	).Scan(&n)
	return n, err
}
