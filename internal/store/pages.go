// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = "id, portal_id, uri, name, description, html_content, style_content, master_id, parent_id, modified_at"

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var p Page
	err := row.Scan(
		&p.ID,
		&p.PortalID,
		&p.Uri,
		&p.Name,
		&p.Description,
		&p.HtmlContent,
		&p.StyleContent,
		&p.MasterID,
		&p.ParentID,
		&p.ModifiedAt,
	)
	return p, err
}

func collectPages(rows *sql.Rows) ([]Page, error) {
	defer rows.Close()
	var items []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CreatePageParams holds the fields for a new page row.
type CreatePageParams struct {
	PortalID     int64
	Uri          string
	Name         string
	Description  string
	HtmlContent  string
	StyleContent string
	MasterID     sql.NullInt64
	ParentID     sql.NullInt64
	ModifiedAt   time.Time
}

// CreatePage inserts a new page and returns the stored row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO pages (portal_id, uri, name, description, html_content, style_content, master_id, parent_id, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+pageColumns,
		arg.PortalID, arg.Uri, arg.Name, arg.Description, arg.HtmlContent,
		arg.StyleContent, arg.MasterID, arg.ParentID, arg.ModifiedAt,
	)
	return scanPage(row)
}

// GetPageByID fetches a single page row.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// GetPageByURIParams identifies a page by portal and normalized URI.
type GetPageByURIParams struct {
	PortalID int64
	Uri      string
}

// GetPageByURI fetches the page with the given URI scoped to a portal.
func (q *Queries) GetPageByURI(ctx context.Context, arg GetPageByURIParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+` FROM pages WHERE portal_id = ? AND uri = ?`,
		arg.PortalID, arg.Uri,
	)
	return scanPage(row)
}

// ListPortalPages returns every page of a portal ordered by URI.
func (q *Queries) ListPortalPages(ctx context.Context, portalID int64) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+pageColumns+` FROM pages WHERE portal_id = ? ORDER BY uri`, portalID)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// ListPagesByMaster returns the pages directly layered under a master page.
func (q *Queries) ListPagesByMaster(ctx context.Context, masterID int64) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+pageColumns+` FROM pages WHERE master_id = ? ORDER BY uri`, masterID)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// UpdatePageParams overwrites the content fields of a page.
type UpdatePageParams struct {
	ID           int64
	Uri          string
	Name         string
	Description  string
	HtmlContent  string
	StyleContent string
	ParentID     sql.NullInt64
	ModifiedAt   time.Time
}

// UpdatePage overwrites the content fields of a page. The master reference is
// changed separately via UpdatePageMaster.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE pages
		SET uri = ?, name = ?, description = ?, html_content = ?, style_content = ?, parent_id = ?, modified_at = ?
		WHERE id = ?
		RETURNING `+pageColumns,
		arg.Uri, arg.Name, arg.Description, arg.HtmlContent, arg.StyleContent,
		arg.ParentID, arg.ModifiedAt, arg.ID,
	)
	return scanPage(row)
}

// UpdatePageMasterParams sets or clears a page's master reference.
type UpdatePageMasterParams struct {
	ID         int64
	MasterID   sql.NullInt64
	ModifiedAt time.Time
}

// UpdatePageMaster sets or clears the master reference of a page.
func (q *Queries) UpdatePageMaster(ctx context.Context, arg UpdatePageMasterParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE pages SET master_id = ?, modified_at = ? WHERE id = ?`,
		arg.MasterID, arg.ModifiedAt, arg.ID,
	)
	return err
}

// DeletePage removes a page row.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

// PageURIExistsParams checks URI uniqueness within a portal, excluding one id
// (0 to exclude nothing).
type PageURIExistsParams struct {
	PortalID  int64
	Uri       string
	ExcludeID int64
}

// PageURIExists reports whether another page in the portal already uses a URI.
func (q *Queries) PageURIExists(ctx context.Context, arg PageURIExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pages WHERE portal_id = ? AND uri = ? AND id != ?`,
		arg.PortalID, arg.Uri, arg.ExcludeID,
	).Scan(&n)
	return n > 0, err
}
