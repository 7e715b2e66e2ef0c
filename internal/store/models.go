// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Project is one CRM tenant. It owns contacts, tags, mail messages, the
// action tree, and any number of portals.
type Project struct {
	ID        int64
	Name      string
	Uri       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact is a person known to a project.
type Contact struct {
	ID         int64
	ProjectID  int64
	Email      string
	Name       string
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BusinessTag is a segmentation label attachable to contacts.
type BusinessTag struct {
	ID        int64
	ProjectID int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// MailMessage is a reusable mail template owned by a project.
type MailMessage struct {
	ID         int64
	ProjectID  int64
	Subject    string
	Body       string
	IsMarkdown int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MailDelivery is one queued or completed send of a message to a contact.
type MailDelivery struct {
	ID        int64
	MessageID int64
	ContactID int64
	Status    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Action is one workflow step. Actions form a tree per project via ParentID;
// siblings are ordered by SortOrder. Options holds the per-type JSON payload.
type Action struct {
	ID         int64
	ProjectID  int64
	ParentID   sql.NullInt64
	Type       string
	SortOrder  int64
	Enabled    int64
	Name       string
	Options    string
	ModifiedAt time.Time
}

// ActionLink is an externally shareable identifier resolving to an action,
// optionally bound to a contact and a custom URI.
type ActionLink struct {
	ID        string
	ActionID  int64
	ContactID sql.NullInt64
	CustomUri string
	CreatedAt time.Time
}

// Portal is one hosted micro-site owned by a project.
type Portal struct {
	ID           int64
	ProjectID    int64
	Name         string
	Uri          string
	Domain       string
	HomePageID   sql.NullInt64
	MasterPageID sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Page is one portal page. MasterID layers the page under a master page for
// rendering; ParentID places it in the navigation tree. The two hierarchies
// are independent.
type Page struct {
	ID           int64
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

// Media is file metadata owned by a portal. Byte streams live elsewhere.
type Media struct {
	ID        int64
	PortalID  int64
	Folder    string
	FileName  string
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

// ScheduledAction is a deferred workflow execution created by a Schedule step.
type ScheduledAction struct {
	ID        int64
	ActionID  int64
	ContactID sql.NullInt64
	RunAt     time.Time
	Status    string
	CreatedAt time.Time
}

// Event is one audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	ProjectID sql.NullInt64
	ContactID sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}
