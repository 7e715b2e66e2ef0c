// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const mediaColumns = "id, portal_id, folder, file_name, mime_type, size, created_at"

func scanMedia(row interface{ Scan(...any) error }) (Media, error) {
	var m Media
	err := row.Scan(&m.ID, &m.PortalID, &m.Folder, &m.FileName, &m.MimeType, &m.Size, &m.CreatedAt)
	return m, err
}

// CreateMediaParams holds the metadata for a new media entry.
type CreateMediaParams struct {
	PortalID  int64
	Folder    string
	FileName  string
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

// CreateMedia inserts a new media metadata row.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Media, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO media (portal_id, folder, file_name, mime_type, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+mediaColumns,
		arg.PortalID, arg.Folder, arg.FileName, arg.MimeType, arg.Size, arg.CreatedAt,
	)
	return scanMedia(row)
}

// GetMediaByID fetches a single media entry.
func (q *Queries) GetMediaByID(ctx context.Context, id int64) (Media, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	return scanMedia(row)
}

// ListMediaParams scopes a listing to a portal and optional folder
// (empty matches all folders).
type ListMediaParams struct {
	PortalID int64
	Folder   string
}

// ListMedia returns the media entries of a portal ordered by folder and name.
func (q *Queries) ListMedia(ctx context.Context, arg ListMediaParams) ([]Media, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE portal_id = ? AND (? = '' OR folder = ?)
		ORDER BY folder, file_name`,
		arg.PortalID, arg.Folder, arg.Folder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// DeleteMedia removes a media metadata row.
func (q *Queries) DeleteMedia(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	return err
}
