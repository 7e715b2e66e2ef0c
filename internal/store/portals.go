// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const portalColumns = "id, project_id, name, uri, domain, home_page_id, master_page_id, created_at, updated_at"

func scanPortal(row interface{ Scan(...any) error }) (Portal, error) {
	var p Portal
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Name,
		&p.Uri,
		&p.Domain,
		&p.HomePageID,
		&p.MasterPageID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// CreatePortalParams holds the fields for a new portal.
type CreatePortalParams struct {
	ProjectID int64
	Name      string
	Uri       string
	Domain    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePortal inserts a new portal and returns the stored row.
func (q *Queries) CreatePortal(ctx context.Context, arg CreatePortalParams) (Portal, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO portals (project_id, name, uri, domain, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+portalColumns,
		arg.ProjectID, arg.Name, arg.Uri, arg.Domain, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPortal(row)
}

// GetPortalByID fetches a single portal.
func (q *Queries) GetPortalByID(ctx context.Context, id int64) (Portal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+portalColumns+` FROM portals WHERE id = ?`, id)
	return scanPortal(row)
}

// GetPortalByURI fetches a portal by its globally unique URI.
func (q *Queries) GetPortalByURI(ctx context.Context, uri string) (Portal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+portalColumns+` FROM portals WHERE uri = ?`, uri)
	return scanPortal(row)
}

// ListPortals returns the portals of a project ordered by name.
func (q *Queries) ListPortals(ctx context.Context, projectID int64) ([]Portal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+portalColumns+` FROM portals WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Portal
	for rows.Next() {
		p, err := scanPortal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// UpdatePortalParams overwrites the mutable fields of a portal.
type UpdatePortalParams struct {
	ID           int64
	Name         string
	Uri          string
	Domain       string
	HomePageID   sql.NullInt64
	MasterPageID sql.NullInt64
	UpdatedAt    time.Time
}

// UpdatePortal overwrites name, URI, domain and the designated pages.
func (q *Queries) UpdatePortal(ctx context.Context, arg UpdatePortalParams) (Portal, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE portals
		SET name = ?, uri = ?, domain = ?, home_page_id = ?, master_page_id = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+portalColumns,
		arg.Name, arg.Uri, arg.Domain, arg.HomePageID, arg.MasterPageID, arg.UpdatedAt, arg.ID,
	)
	return scanPortal(row)
}

// DeletePortal removes a portal. Pages and media cascade at the schema level.
func (q *Queries) DeletePortal(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM portals WHERE id = ?`, id)
	return err
}
