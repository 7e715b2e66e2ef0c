// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const projectColumns = "id, name, uri, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Uri, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProjectParams holds the fields for a new project.
type CreateProjectParams struct {
	Name      string
	Uri       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProject inserts a new project and returns the stored row.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, uri, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING `+projectColumns,
		arg.Name, arg.Uri, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanProject(row)
}

// GetProjectByID fetches a single project.
func (q *Queries) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// GetProjectByURI fetches a project by its unique URI.
func (q *Queries) GetProjectByURI(ctx context.Context, uri string) (Project, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE uri = ?`, uri)
	return scanProject(row)
}

// ListProjectsParams pages through projects.
type ListProjectsParams struct {
	Limit  int64
	Offset int64
}

// ListProjects returns projects ordered by name.
func (q *Queries) ListProjects(ctx context.Context, arg ListProjectsParams) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects ORDER BY name LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CountProjects returns the total number of projects.
func (q *Queries) CountProjects(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}

// UpdateProjectParams overwrites the mutable fields of a project.
type UpdateProjectParams struct {
	ID        int64
	Name      string
	Uri       string
	UpdatedAt time.Time
}

// UpdateProject overwrites name and URI of a project.
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE projects SET name = ?, uri = ?, updated_at = ? WHERE id = ?
		RETURNING `+projectColumns,
		arg.Name, arg.Uri, arg.UpdatedAt, arg.ID,
	)
	return scanProject(row)
}

// DeleteProject removes a project. Owned rows cascade at the schema level.
func (q *Queries) DeleteProject(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}
