// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const actionColumns = "id, project_id, parent_id, type, sort_order, enabled, name, options, modified_at"

func scanAction(row interface{ Scan(...any) error }) (Action, error) {
	var a Action
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.ParentID,
		&a.Type,
		&a.SortOrder,
		&a.Enabled,
		&a.Name,
		&a.Options,
		&a.ModifiedAt,
	)
	return a, err
}

func collectActions(rows *sql.Rows) ([]Action, error) {
	defer rows.Close()
	var items []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// CreateActionParams holds the fields for a new action row.
type CreateActionParams struct {
	ProjectID  int64
	ParentID   sql.NullInt64
	Type       string
	SortOrder  int64
	Enabled    int64
	Name       string
	Options    string
	ModifiedAt time.Time
}

// CreateAction inserts a new action and returns the stored row.
func (q *Queries) CreateAction(ctx context.Context, arg CreateActionParams) (Action, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO actions (project_id, parent_id, type, sort_order, enabled, name, options, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+actionColumns,
		arg.ProjectID, arg.ParentID, arg.Type, arg.SortOrder, arg.Enabled, arg.Name, arg.Options, arg.ModifiedAt,
	)
	return scanAction(row)
}

// GetActionByID fetches a single action row.
func (q *Queries) GetActionByID(ctx context.Context, id int64) (Action, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)
	return scanAction(row)
}

// ListActionChildren returns the ordered children of a parent action.
func (q *Queries) ListActionChildren(ctx context.Context, parentID int64) ([]Action, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE parent_id = ?
		ORDER BY sort_order, id`, parentID)
	if err != nil {
		return nil, err
	}
	return collectActions(rows)
}

// ListRootActions returns the ordered root actions of a project.
func (q *Queries) ListRootActions(ctx context.Context, projectID int64) ([]Action, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE project_id = ? AND parent_id IS NULL
		ORDER BY sort_order, id`, projectID)
	if err != nil {
		return nil, err
	}
	return collectActions(rows)
}

// ListActionSubtree returns an action and all its transitive descendants in a
// single recursive query. The result is empty when the root id does not exist.
func (q *Queries) ListActionSubtree(ctx context.Context, id int64) ([]Action, error) {
	rows, err := q.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM actions WHERE id = ?
			UNION ALL
			SELECT a.id FROM actions a JOIN subtree s ON a.parent_id = s.id
		)
		SELECT `+actionColumns+` FROM actions
		WHERE id IN (SELECT id FROM subtree)
		ORDER BY parent_id, sort_order, id`, id)
	if err != nil {
		return nil, err
	}
	return collectActions(rows)
}

// ListProjectActions returns every action of a project.
func (q *Queries) ListProjectActions(ctx context.Context, projectID int64) ([]Action, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+actionColumns+` FROM actions
		WHERE project_id = ?
		ORDER BY parent_id, sort_order, id`, projectID)
	if err != nil {
		return nil, err
	}
	return collectActions(rows)
}

// UpdateActionFieldsParams overwrites the mutable non-structural fields.
type UpdateActionFieldsParams struct {
	ID         int64
	Type       string
	Enabled    int64
	Name       string
	Options    string
	ModifiedAt time.Time
}

// UpdateActionFields overwrites type, enabled, name and options of an action.
// The tree shape is not touched.
func (q *Queries) UpdateActionFields(ctx context.Context, arg UpdateActionFieldsParams) (Action, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE actions
		SET type = ?, enabled = ?, name = ?, options = ?, modified_at = ?
		WHERE id = ?
		RETURNING `+actionColumns,
		arg.Type, arg.Enabled, arg.Name, arg.Options, arg.ModifiedAt, arg.ID,
	)
	return scanAction(row)
}

// UpdateActionPlacementParams re-parents an action and sets its sort order.
type UpdateActionPlacementParams struct {
	ID         int64
	ParentID   sql.NullInt64
	SortOrder  int64
	ModifiedAt time.Time
}

// UpdateActionPlacement moves an action to a new parent/sort-order slot.
func (q *Queries) UpdateActionPlacement(ctx context.Context, arg UpdateActionPlacementParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE actions SET parent_id = ?, sort_order = ?, modified_at = ? WHERE id = ?`,
		arg.ParentID, arg.SortOrder, arg.ModifiedAt, arg.ID,
	)
	return err
}

// UpdateActionSortOrder sets only the sort order of an action.
func (q *Queries) UpdateActionSortOrder(ctx context.Context, id, sortOrder int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE actions SET sort_order = ? WHERE id = ?`, sortOrder, id)
	return err
}

// DeleteActionSubtree deletes an action and all its transitive descendants.
// Returns the number of rows removed.
func (q *Queries) DeleteActionSubtree(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM actions WHERE id IN (
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM actions WHERE id = ?
				UNION ALL
				SELECT a.id FROM actions a JOIN subtree s ON a.parent_id = s.id
			)
			SELECT id FROM subtree
		)`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateActionLinkParams holds the fields for a new action link.
type CreateActionLinkParams struct {
	ID        string
	ActionID  int64
	ContactID sql.NullInt64
	CustomUri string
	CreatedAt time.Time
}

// CreateActionLink inserts a new shareable link for an action.
func (q *Queries) CreateActionLink(ctx context.Context, arg CreateActionLinkParams) (ActionLink, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO action_links (id, action_id, contact_id, custom_uri, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, action_id, contact_id, custom_uri, created_at`,
		arg.ID, arg.ActionID, arg.ContactID, arg.CustomUri, arg.CreatedAt,
	)
	var l ActionLink
	err := row.Scan(&l.ID, &l.ActionID, &l.ContactID, &l.CustomUri, &l.CreatedAt)
	return l, err
}

// GetActionLink fetches an action link by its public id.
func (q *Queries) GetActionLink(ctx context.Context, id string) (ActionLink, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, action_id, contact_id, custom_uri, created_at FROM action_links WHERE id = ?`, id)
	var l ActionLink
	err := row.Scan(&l.ID, &l.ActionID, &l.ContactID, &l.CustomUri, &l.CreatedAt)
	return l, err
}

// ListActionLinks returns all links pointing at an action.
func (q *Queries) ListActionLinks(ctx context.Context, actionID int64) ([]ActionLink, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, action_id, contact_id, custom_uri, created_at
		FROM action_links WHERE action_id = ? ORDER BY created_at`, actionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []ActionLink
	for rows.Next() {
		var l ActionLink
		if err := rows.Scan(&l.ID, &l.ActionID, &l.ContactID, &l.CustomUri, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// DeleteActionLink removes a link by its public id.
func (q *Queries) DeleteActionLink(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM action_links WHERE id = ?`, id)
	return err
}
