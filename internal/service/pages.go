// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// PageLayers is the resolved rendering stack of one page: the requested
// content page plus its master chain, outermost layout first. It is derived
// on demand and never persisted.
type PageLayers struct {
	ContentPage *store.Page  `json:"content_page"`
	MasterPages []store.Page `json:"master_pages"`
}

// Empty reports whether the resolution found no page.
func (l PageLayers) Empty() bool {
	return l.ContentPage == nil
}

// PageService owns portal pages: CRUD, master assignment and layer
// resolution.
type PageService struct {
	db      *sql.DB
	queries *store.Queries
	layers  *LayersCache
}

// NewPageService creates a new PageService. The layers cache is optional;
// pass nil to resolve uncached.
func NewPageService(db *sql.DB, layers *LayersCache) *PageService {
	return &PageService{
		db:      db,
		queries: store.New(db),
		layers:  layers,
	}
}

// AddPageParams holds the fields for a new page.
type AddPageParams struct {
	Uri          string
	Name         string
	Description  string
	HtmlContent  string
	StyleContent string
	MasterID     *int64
	ParentID     *int64
}

// AddPage creates a page in a portal. The URI is normalized to a slug and
// must be unique within the portal.
func (s *PageService) AddPage(ctx context.Context, portalID int64, arg AddPageParams) (store.Page, error) {
	uri := util.Slugify(arg.Uri)
	if uri == "" {
		return store.Page{}, fmt.Errorf("%w: page uri required", ErrInvalidArgument)
	}

	exists, err := s.queries.PageURIExists(ctx, store.PageURIExistsParams{PortalID: portalID, Uri: uri})
	if err != nil {
		return store.Page{}, err
	}
	if exists {
		return store.Page{}, fmt.Errorf("%w: page uri %q already used", ErrConflict, uri)
	}

	var master sql.NullInt64
	if arg.MasterID != nil {
		m, err := s.getPortalPage(ctx, portalID, *arg.MasterID)
		if err != nil {
			return store.Page{}, err
		}
		master = sql.NullInt64{Int64: m.ID, Valid: true}
	}

	page, err := s.queries.CreatePage(ctx, store.CreatePageParams{
		PortalID:     portalID,
		Uri:          uri,
		Name:         arg.Name,
		Description:  arg.Description,
		HtmlContent:  arg.HtmlContent,
		StyleContent: arg.StyleContent,
		MasterID:     master,
		ParentID:     util.NullInt64FromPtr(arg.ParentID),
		ModifiedAt:   time.Now().UTC(),
	})
	if err != nil {
		return store.Page{}, err
	}
	s.invalidatePortal(ctx, portalID)
	return page, nil
}

// ReplacePage overwrites the content fields of a page. The master reference
// is changed separately via SetPageMaster.
func (s *PageService) ReplacePage(ctx context.Context, portalID, id int64, arg AddPageParams) (store.Page, error) {
	if _, err := s.getPortalPage(ctx, portalID, id); err != nil {
		return store.Page{}, err
	}

	uri := util.Slugify(arg.Uri)
	if uri == "" {
		return store.Page{}, fmt.Errorf("%w: page uri required", ErrInvalidArgument)
	}
	exists, err := s.queries.PageURIExists(ctx, store.PageURIExistsParams{PortalID: portalID, Uri: uri, ExcludeID: id})
	if err != nil {
		return store.Page{}, err
	}
	if exists {
		return store.Page{}, fmt.Errorf("%w: page uri %q already used", ErrConflict, uri)
	}

	page, err := s.queries.UpdatePage(ctx, store.UpdatePageParams{
		ID:           id,
		Uri:          uri,
		Name:         arg.Name,
		Description:  arg.Description,
		HtmlContent:  arg.HtmlContent,
		StyleContent: arg.StyleContent,
		ParentID:     util.NullInt64FromPtr(arg.ParentID),
		ModifiedAt:   time.Now().UTC(),
	})
	if err != nil {
		return store.Page{}, err
	}
	s.invalidatePortal(ctx, portalID)
	return page, nil
}

// RemovePage deletes a page. Pages layered under it keep their master
// reference cleared by the caller beforehand or fail the foreign key.
func (s *PageService) RemovePage(ctx context.Context, portalID, id int64) error {
	if _, err := s.getPortalPage(ctx, portalID, id); err != nil {
		return err
	}
	// Detach dependents first so the self-referencing keys stay consistent.
	dependents, err := s.queries.ListPagesByMaster(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, dep := range dependents {
		if err := s.queries.UpdatePageMaster(ctx, store.UpdatePageMasterParams{
			ID: dep.ID, MasterID: sql.NullInt64{}, ModifiedAt: now,
		}); err != nil {
			return err
		}
	}
	if err := s.queries.DeletePage(ctx, id); err != nil {
		return err
	}
	s.invalidatePortal(ctx, portalID)
	return nil
}

// SetPageMaster assigns or clears (nil) the master page of a page. An
// assignment whose chain would loop back to the page is rejected.
func (s *PageService) SetPageMaster(ctx context.Context, portalID, pageID int64, masterID *int64) error {
	if _, err := s.getPortalPage(ctx, portalID, pageID); err != nil {
		return err
	}

	var master sql.NullInt64
	if masterID != nil {
		if *masterID == pageID {
			return ErrMasterCycle
		}
		m, err := s.getPortalPage(ctx, portalID, *masterID)
		if err != nil {
			return err
		}
		// Walk up from the proposed master; reaching the page itself means
		// the assignment would close a loop.
		seen := map[int64]bool{pageID: true}
		cur := m
		for {
			if seen[cur.ID] {
				return ErrMasterCycle
			}
			seen[cur.ID] = true
			if !cur.MasterID.Valid {
				break
			}
			next, err := s.queries.GetPageByID(ctx, cur.MasterID.Int64)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					break
				}
				return err
			}
			cur = next
		}
		master = sql.NullInt64{Int64: m.ID, Valid: true}
	}

	if err := s.queries.UpdatePageMaster(ctx, store.UpdatePageMasterParams{
		ID:         pageID,
		MasterID:   master,
		ModifiedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	s.invalidatePortal(ctx, portalID)
	return nil
}

// GetPage fetches a page scoped to a portal.
func (s *PageService) GetPage(ctx context.Context, portalID, id int64) (store.Page, error) {
	return s.getPortalPage(ctx, portalID, id)
}

// ListPages returns every page of a portal.
func (s *PageService) ListPages(ctx context.Context, portalID int64) ([]store.Page, error) {
	return s.queries.ListPortalPages(ctx, portalID)
}

// ResolveLayersByURI resolves the rendering layer stack for the page at the
// given URI. A missing page yields empty layers, not an error: routing falls
// through to the portal's not-found handling. Cached when a layers cache is
// configured.
func (s *PageService) ResolveLayersByURI(ctx context.Context, portalID int64, uri string) (PageLayers, error) {
	uri = util.Slugify(uri)
	if s.layers != nil {
		return s.layers.GetOrResolve(ctx, portalID, uri, func() (PageLayers, error) {
			return s.resolveLayers(ctx, portalID, uri)
		})
	}
	return s.resolveLayers(ctx, portalID, uri)
}

func (s *PageService) resolveLayers(ctx context.Context, portalID int64, uri string) (PageLayers, error) {
	page, err := s.queries.GetPageByURI(ctx, store.GetPageByURIParams{PortalID: portalID, Uri: uri})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PageLayers{}, nil
		}
		return PageLayers{}, err
	}

	// Follow the master chain, prepending each layout so the outermost comes
	// first. A repeated page means the chain loops; masters are user-edited
	// data, so a loop terminates the walk instead of failing the request.
	var masters []store.Page
	seen := map[int64]bool{page.ID: true}
	cur := page
	for cur.MasterID.Valid {
		next, err := s.queries.GetPageByID(ctx, cur.MasterID.Int64)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				break
			}
			return PageLayers{}, err
		}
		if seen[next.ID] {
			break
		}
		seen[next.ID] = true
		masters = append([]store.Page{next}, masters...)
		cur = next
	}

	return PageLayers{ContentPage: &page, MasterPages: masters}, nil
}

func (s *PageService) invalidatePortal(ctx context.Context, portalID int64) {
	if s.layers != nil {
		s.layers.InvalidatePortal(ctx, portalID)
	}
}

func (s *PageService) getPortalPage(ctx context.Context, portalID, id int64) (store.Page, error) {
	page, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Page{}, fmt.Errorf("%w: page %d", ErrNotFound, id)
		}
		return store.Page{}, err
	}
	if page.PortalID != portalID {
		return store.Page{}, fmt.Errorf("%w: page %d", ErrNotFound, id)
	}
	return page, nil
}
