// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/util"
)

// ContactService owns contacts and their business tags within a project.
type ContactService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewContactService creates a new ContactService.
func NewContactService(db *sql.DB) *ContactService {
	return &ContactService{
		db:      db,
		queries: store.New(db),
	}
}

// CreateContactParams holds the fields for a new contact.
type CreateContactParams struct {
	Email      string
	Name       string
	SecretHash string
}

// Create adds a contact to a project. Emails are lowercased and must be
// unique within the project.
func (s *ContactService) Create(ctx context.Context, projectID int64, arg CreateContactParams) (store.Contact, error) {
	email := normalizeEmail(arg.Email)
	if email == "" {
		return store.Contact{}, fmt.Errorf("%w: email required", ErrInvalidArgument)
	}
	if _, err := s.queries.GetContactByEmail(ctx, store.GetContactByEmailParams{ProjectID: projectID, Email: email}); err == nil {
		return store.Contact{}, fmt.Errorf("%w: contact %q already exists", ErrConflict, email)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Contact{}, err
	}

	now := time.Now().UTC()
	return s.queries.CreateContact(ctx, store.CreateContactParams{
		ProjectID:  projectID,
		Email:      email,
		Name:       arg.Name,
		SecretHash: arg.SecretHash,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Get fetches a contact scoped to a project.
func (s *ContactService) Get(ctx context.Context, projectID, id int64) (store.Contact, error) {
	return s.getProjectContact(ctx, projectID, id)
}

// GetByEmail fetches a contact by email within a project.
func (s *ContactService) GetByEmail(ctx context.Context, projectID int64, email string) (store.Contact, error) {
	c, err := s.queries.GetContactByEmail(ctx, store.GetContactByEmailParams{
		ProjectID: projectID,
		Email:     normalizeEmail(email),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Contact{}, fmt.Errorf("%w: contact %q", ErrNotFound, email)
		}
		return store.Contact{}, err
	}
	return c, nil
}

// List pages through a project's contacts.
func (s *ContactService) List(ctx context.Context, projectID, limit, offset int64) ([]store.Contact, int64, error) {
	items, err := s.queries.ListContacts(ctx, store.ListContactsParams{
		ProjectID: projectID, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountContacts(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update overwrites email, name and secret of a contact.
func (s *ContactService) Update(ctx context.Context, projectID, id int64, arg CreateContactParams) (store.Contact, error) {
	if _, err := s.getProjectContact(ctx, projectID, id); err != nil {
		return store.Contact{}, err
	}
	email := normalizeEmail(arg.Email)
	if email == "" {
		return store.Contact{}, fmt.Errorf("%w: email required", ErrInvalidArgument)
	}
	if other, err := s.queries.GetContactByEmail(ctx, store.GetContactByEmailParams{ProjectID: projectID, Email: email}); err == nil {
		if other.ID != id {
			return store.Contact{}, fmt.Errorf("%w: contact %q already exists", ErrConflict, email)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Contact{}, err
	}
	return s.queries.UpdateContact(ctx, store.UpdateContactParams{
		ID:         id,
		Email:      email,
		Name:       arg.Name,
		SecretHash: arg.SecretHash,
		UpdatedAt:  time.Now().UTC(),
	})
}

// Delete removes a contact permanently, with its tag links.
func (s *ContactService) Delete(ctx context.Context, projectID, id int64) error {
	if _, err := s.getProjectContact(ctx, projectID, id); err != nil {
		return err
	}
	return s.queries.DeleteContact(ctx, id)
}

// RegisterResult reports what Register did to the contact row.
type RegisterResult struct {
	Contact store.Contact
	State   string // model.ContactState* value
}

// Register creates the contact if the email is new to the project, or
// refreshes the name when it differs. Used by the workflow register step.
func (s *ContactService) Register(ctx context.Context, projectID int64, email, name string) (RegisterResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return RegisterResult{}, fmt.Errorf("%w: email required", ErrInvalidArgument)
	}

	existing, err := s.queries.GetContactByEmail(ctx, store.GetContactByEmailParams{ProjectID: projectID, Email: email})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return RegisterResult{}, err
		}
		now := time.Now().UTC()
		created, err := s.queries.CreateContact(ctx, store.CreateContactParams{
			ProjectID: projectID,
			Email:     email,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return RegisterResult{}, err
		}
		return RegisterResult{Contact: created, State: model.ContactStateCreated}, nil
	}

	if name == "" || existing.Name == name {
		return RegisterResult{Contact: existing, State: model.ContactStateUnchanged}, nil
	}
	updated, err := s.queries.UpdateContact(ctx, store.UpdateContactParams{
		ID:         existing.ID,
		Email:      existing.Email,
		Name:       name,
		SecretHash: existing.SecretHash,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Contact: updated, State: model.ContactStateUpdated}, nil
}

// CreateTagParams holds the fields for a new business tag.
type CreateTagParams struct {
	Name string
}

// CreateTag adds a business tag to a project. The slug derives from the name
// and must be unique within the project.
func (s *ContactService) CreateTag(ctx context.Context, projectID int64, arg CreateTagParams) (store.BusinessTag, error) {
	slug := util.Slugify(arg.Name)
	if slug == "" {
		return store.BusinessTag{}, fmt.Errorf("%w: tag name required", ErrInvalidArgument)
	}
	if _, err := s.queries.GetTagBySlug(ctx, store.GetTagBySlugParams{ProjectID: projectID, Slug: slug}); err == nil {
		return store.BusinessTag{}, fmt.Errorf("%w: tag %q already exists", ErrConflict, slug)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.BusinessTag{}, err
	}
	return s.queries.CreateTag(ctx, store.CreateTagParams{
		ProjectID: projectID,
		Name:      arg.Name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	})
}

// ListTags returns the business tags of a project.
func (s *ContactService) ListTags(ctx context.Context, projectID int64) ([]store.BusinessTag, error) {
	return s.queries.ListTags(ctx, projectID)
}

// DeleteTag removes a business tag and its contact links.
func (s *ContactService) DeleteTag(ctx context.Context, projectID, id int64) error {
	tag, err := s.queries.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: tag %d", ErrNotFound, id)
		}
		return err
	}
	if tag.ProjectID != projectID {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	return s.queries.DeleteTag(ctx, id)
}

// SetTags applies an include/exclude tag set to a contact in one pass.
// Included slugs are attached, creating the tag if the project does not have
// it yet; excluded slugs are detached. Unknown excluded slugs are ignored.
func (s *ContactService) SetTags(ctx context.Context, projectID, contactID int64, include, exclude []string) error {
	contact, err := s.getProjectContact(ctx, projectID, contactID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	for _, name := range include {
		slug := util.Slugify(name)
		if slug == "" {
			continue
		}
		tag, err := q.GetTagBySlug(ctx, store.GetTagBySlugParams{ProjectID: projectID, Slug: slug})
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			tag, err = q.CreateTag(ctx, store.CreateTagParams{
				ProjectID: projectID,
				Name:      name,
				Slug:      slug,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return err
			}
		}
		if err := q.AddContactTag(ctx, store.AddContactTagParams{ContactID: contact.ID, TagID: tag.ID}); err != nil {
			return err
		}
	}

	for _, name := range exclude {
		slug := util.Slugify(name)
		if slug == "" {
			continue
		}
		tag, err := q.GetTagBySlug(ctx, store.GetTagBySlugParams{ProjectID: projectID, Slug: slug})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return err
		}
		if err := q.RemoveContactTag(ctx, store.RemoveContactTagParams{ContactID: contact.ID, TagID: tag.ID}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// HasTags reports whether a contact carries every one of the given tag slugs.
// An empty slug list is trivially satisfied.
func (s *ContactService) HasTags(ctx context.Context, projectID, contactID int64, slugs []string) (bool, error) {
	if len(slugs) == 0 {
		return true, nil
	}
	tags, err := s.queries.ListContactTags(ctx, contactID)
	if err != nil {
		return false, err
	}
	have := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t.ProjectID == projectID {
			have[t.Slug] = true
		}
	}
	for _, slug := range slugs {
		if !have[util.Slugify(slug)] {
			return false, nil
		}
	}
	return true, nil
}

// ContactTags returns the business tags attached to a contact.
func (s *ContactService) ContactTags(ctx context.Context, projectID, contactID int64) ([]store.BusinessTag, error) {
	if _, err := s.getProjectContact(ctx, projectID, contactID); err != nil {
		return nil, err
	}
	return s.queries.ListContactTags(ctx, contactID)
}

func (s *ContactService) getProjectContact(ctx context.Context, projectID, id int64) (store.Contact, error) {
	c, err := s.queries.GetContactByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Contact{}, fmt.Errorf("%w: contact %d", ErrNotFound, id)
		}
		return store.Contact{}, err
	}
	if c.ProjectID != projectID {
		return store.Contact{}, fmt.Errorf("%w: contact %d", ErrNotFound, id)
	}
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
