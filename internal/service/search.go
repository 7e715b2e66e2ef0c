// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/crmkit/crmkit/internal/store"
)

// SearchService provides substring search over contacts and portal pages.
type SearchService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewSearchService creates a new search service.
func NewSearchService(db *sql.DB) *SearchService {
	return &SearchService{db: db, queries: store.New(db)}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	return q
}

// SearchContacts returns contacts of a project whose email or name contains
// the query, case-insensitively, up to limit rows.
func (s *SearchService) SearchContacts(ctx context.Context, projectID int64, query string, limit int64) ([]store.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, email, name, secret_hash, created_at, updated_at
		FROM contacts
		WHERE project_id = ? AND (email LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\')
		ORDER BY email LIMIT ?`,
		projectID, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []store.Contact
	for rows.Next() {
		var c store.Contact
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Email, &c.Name, &c.SecretHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// SearchPages returns pages of a portal whose name, description or URI
// contains the query, up to limit rows.
func (s *SearchService) SearchPages(ctx context.Context, portalID int64, query string, limit int64) ([]store.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, portal_id, uri, name, description, html_content, style_content, master_id, parent_id, modified_at
		FROM pages
		WHERE portal_id = ? AND (name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR uri LIKE ? ESCAPE '\')
		ORDER BY uri LIMIT ?`,
		portalID, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []store.Page
	for rows.Next() {
		var p store.Page
		if err := rows.Scan(&p.ID, &p.PortalID, &p.Uri, &p.Name, &p.Description, &p.HtmlContent, &p.StyleContent, &p.MasterID, &p.ParentID, &p.ModifiedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
