// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const contactColumns = "id, project_id, email, name, secret_hash, created_at, updated_at"

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.ProjectID, &c.Email, &c.Name, &c.SecretHash, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateContactParams holds the fields for a new contact.
type CreateContactParams struct {
	ProjectID  int64
	Email      string
	Name       string
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateContact inserts a new contact and returns the stored row.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO contacts (project_id, email, name, secret_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+contactColumns,
		arg.ProjectID, arg.Email, arg.Name, arg.SecretHash, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanContact(row)
}

// GetContactByID fetches a single contact.
func (q *Queries) GetContactByID(ctx context.Context, id int64) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	return scanContact(row)
}

// GetContactByEmailParams identifies a contact by project and email.
type GetContactByEmailParams struct {
	ProjectID int64
	Email     string
}

// GetContactByEmail fetches the contact with the given email within a project.
func (q *Queries) GetContactByEmail(ctx context.Context, arg GetContactByEmailParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts WHERE project_id = ? AND email = ?`,
		arg.ProjectID, arg.Email,
	)
	return scanContact(row)
}

// ListContactsParams pages through a project's contacts.
type ListContactsParams struct {
	ProjectID int64
	Limit     int64
	Offset    int64
}

// ListContacts returns contacts of a project ordered by email.
func (q *Queries) ListContacts(ctx context.Context, arg ListContactsParams) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE project_id = ? ORDER BY email LIMIT ? OFFSET ?`,
		arg.ProjectID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountContacts returns the number of contacts in a project.
func (q *Queries) CountContacts(ctx context.Context, projectID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE project_id = ?`, projectID).Scan(&n)
	return n, err
}

// UpdateContactParams overwrites the mutable fields of a contact.
type UpdateContactParams struct {
	ID         int64
	Email      string
	Name       string
	SecretHash string
	UpdatedAt  time.Time
}

// UpdateContact overwrites email, name and secret of a contact.
func (q *Queries) UpdateContact(ctx context.Context, arg UpdateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE contacts SET email = ?, name = ?, secret_hash = ?, updated_at = ? WHERE id = ?
		RETURNING `+contactColumns,
		arg.Email, arg.Name, arg.SecretHash, arg.UpdatedAt, arg.ID,
	)
	return scanContact(row)
}

// DeleteContact removes a contact permanently. Tag links cascade.
func (q *Queries) DeleteContact(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	return err
}
