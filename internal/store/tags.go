// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const tagColumns = "id, project_id, name, slug, created_at"

func scanTag(row interface{ Scan(...any) error }) (BusinessTag, error) {
	var t BusinessTag
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Slug, &t.CreatedAt)
	return t, err
}

func collectTags(rows *sql.Rows) ([]BusinessTag, error) {
	defer rows.Close()
	var items []BusinessTag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// CreateTagParams holds the fields for a new business tag.
type CreateTagParams struct {
	ProjectID int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// CreateTag inserts a new business tag and returns the stored row.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (BusinessTag, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO business_tags (project_id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING `+tagColumns,
		arg.ProjectID, arg.Name, arg.Slug, arg.CreatedAt,
	)
	return scanTag(row)
}

// GetTagByID fetches a single business tag.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (BusinessTag, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM business_tags WHERE id = ?`, id)
	return scanTag(row)
}

// GetTagBySlugParams identifies a tag by project and slug.
type GetTagBySlugParams struct {
	ProjectID int64
	Slug      string
}

// GetTagBySlug fetches the tag with the given slug within a project.
func (q *Queries) GetTagBySlug(ctx context.Context, arg GetTagBySlugParams) (BusinessTag, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+tagColumns+` FROM business_tags WHERE project_id = ? AND slug = ?`,
		arg.ProjectID, arg.Slug,
	)
	return scanTag(row)
}

// ListTags returns the business tags of a project ordered by name.
func (q *Queries) ListTags(ctx context.Context, projectID int64) ([]BusinessTag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+tagColumns+` FROM business_tags WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// UpdateTagParams overwrites the mutable fields of a business tag.
type UpdateTagParams struct {
	ID   int64
	Name string
	Slug string
}

// UpdateTag overwrites name and slug of a business tag.
func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (BusinessTag, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE business_tags SET name = ?, slug = ? WHERE id = ?
		RETURNING `+tagColumns,
		arg.Name, arg.Slug, arg.ID,
	)
	return scanTag(row)
}

// DeleteTag removes a business tag. Contact links cascade.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM business_tags WHERE id = ?`, id)
	return err
}

// AddContactTagParams links a contact to a tag.
type AddContactTagParams struct {
	ContactID int64
	TagID     int64
}

// AddContactTag attaches a tag to a contact. Adding an already attached tag
// is a no-op.
func (q *Queries) AddContactTag(ctx context.Context, arg AddContactTagParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO contact_tags (contact_id, tag_id) VALUES (?, ?)`,
		arg.ContactID, arg.TagID,
	)
	return err
}

// RemoveContactTagParams unlinks a contact from a tag.
type RemoveContactTagParams struct {
	ContactID int64
	TagID     int64
}

// RemoveContactTag detaches a tag from a contact. Removing an absent tag is
// a no-op.
func (q *Queries) RemoveContactTag(ctx context.Context, arg RemoveContactTagParams) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM contact_tags WHERE contact_id = ? AND tag_id = ?`,
		arg.ContactID, arg.TagID,
	)
	return err
}

// ListContactTags returns the tags attached to a contact ordered by name.
func (q *Queries) ListContactTags(ctx context.Context, contactID int64) ([]BusinessTag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.name, t.slug, t.created_at
		FROM business_tags t
		JOIN contact_tags ct ON ct.tag_id = t.id
		WHERE ct.contact_id = ?
		ORDER BY t.name`, contactID)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

// ListContactTagIDs returns the ids of the tags attached to a contact.
func (q *Queries) ListContactTagIDs(ctx context.Context, contactID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT tag_id FROM contact_tags WHERE contact_id = ? ORDER BY tag_id`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountTagContacts returns how many contacts carry a tag.
func (q *Queries) CountTagContacts(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contact_tags WHERE tag_id = ?`, tagID).Scan(&n)
	return n, err
}
