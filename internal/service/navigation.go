// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/crmkit/crmkit/internal/store"
)

// NavItem represents one entry of a portal's navigation tree. The tree comes
// from the pages' parent references, which are independent of master-page
// layering.
type NavItem struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Children []NavItem `json:"children,omitempty"`
}

// NavigationService builds navigation trees for portals.
type NavigationService struct {
	queries *store.Queries
}

// NewNavigationService creates a new NavigationService.
func NewNavigationService(db *sql.DB) *NavigationService {
	return &NavigationService{
		queries: store.New(db),
	}
}

// PortalNavigation returns the navigation tree of a portal. Pages without a
// parent are roots; orphans whose parent is gone surface as roots too rather
// than disappearing.
func (s *NavigationService) PortalNavigation(ctx context.Context, portalID int64) ([]NavItem, error) {
	pages, err := s.queries.ListPortalPages(ctx, portalID)
	if err != nil {
		return nil, err
	}
	return buildNavTree(pages), nil
}

// buildNavTree converts a flat page list to a nested tree structure.
func buildNavTree(pages []store.Page) []NavItem {
	known := make(map[int64]store.Page, len(pages))
	children := make(map[int64][]int64)
	var rootIDs []int64

	for _, page := range pages {
		known[page.ID] = page
	}
	for _, page := range pages {
		if page.ParentID.Valid {
			if _, ok := known[page.ParentID.Int64]; ok {
				children[page.ParentID.Int64] = append(children[page.ParentID.Int64], page.ID)
				continue
			}
		}
		rootIDs = append(rootIDs, page.ID)
	}

	var build func(id int64) NavItem
	build = func(id int64) NavItem {
		page := known[id]
		item := NavItem{
			ID:    page.ID,
			Title: page.Name,
			URL:   "/" + page.Uri,
		}
		for _, childID := range children[id] {
			item.Children = append(item.Children, build(childID))
		}
		sort.Slice(item.Children, func(i, j int) bool {
			return item.Children[i].Title < item.Children[j].Title
		})
		return item
	}

	roots := make([]NavItem, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, build(id))
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Title < roots[j].Title
	})
	return roots
}
