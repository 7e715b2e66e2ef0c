// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// MaxMediaSize caps the declared size of a media entry (20MB). Byte streams
// live in external storage; only metadata is tracked here.
const MaxMediaSize = 20 * 1024 * 1024

// AllowedMimeTypes defines the MIME types a portal may register.
var AllowedMimeTypes = map[string]bool{
	model.MimeTypeJPEG: true,
	model.MimeTypePNG:  true,
	model.MimeTypeGIF:  true,
	model.MimeTypeWebP: true,
	model.MimeTypeSVG:  true,
	model.MimeTypePDF:  true,
	model.MimeTypeMP4:  true,
	model.MimeTypeWebM: true,
	model.MimeTypeCSS:  true,
}

// MediaService tracks media metadata per portal.
type MediaService struct {
	queries *store.Queries
}

// NewMediaService creates a new media service.
func NewMediaService(db *sql.DB) *MediaService {
	return &MediaService{queries: store.New(db)}
}

// AddMediaParams holds the metadata for a new media entry.
type AddMediaParams struct {
	Folder   string
	FileName string
	MimeType string
	Size     int64
}

// Add registers a media entry under a portal. Folder names are normalized to
// slugs; the root folder is the empty string.
func (s *MediaService) Add(ctx context.Context, portalID int64, arg AddMediaParams) (store.Media, error) {
	if arg.FileName == "" {
		return store.Media{}, fmt.Errorf("%w: file name required", ErrInvalidArgument)
	}
	if !AllowedMimeTypes[arg.MimeType] {
		return store.Media{}, fmt.Errorf("%w: mime type %q not allowed", ErrInvalidArgument, arg.MimeType)
	}
	if arg.Size < 0 || arg.Size > MaxMediaSize {
		return store.Media{}, fmt.Errorf("%w: size out of range", ErrInvalidArgument)
	}
	return s.queries.CreateMedia(ctx, store.CreateMediaParams{
		PortalID:  portalID,
		Folder:    util.Slugify(arg.Folder),
		FileName:  arg.FileName,
		MimeType:  arg.MimeType,
		Size:      arg.Size,
		CreatedAt: time.Now().UTC(),
	})
}

// List returns the media entries of a portal, optionally scoped to a folder.
func (s *MediaService) List(ctx context.Context, portalID int64, folder string) ([]store.Media, error) {
	return s.queries.ListMedia(ctx, store.ListMediaParams{
		PortalID: portalID,
		Folder:   util.Slugify(folder),
	})
}

// Remove deletes a media metadata entry.
func (s *MediaService) Remove(ctx context.Context, portalID, id int64) error {
	m, err := s.queries.GetMediaByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: media %d", ErrNotFound, id)
		}
		return err
	}
	if m.PortalID != portalID {
		return fmt.Errorf("%w: media %d", ErrNotFound, id)
	}
	return s.queries.DeleteMedia(ctx, id)
}
