// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "crmkit-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func testSetup(t *testing.T) (*sql.DB, func(), context.Context, *Queries) {
	t.Helper()
	db, cleanup := testDB(t)
	return db, cleanup, context.Background(), New(db)
}

func testProject(t *testing.T, ctx context.Context, q *Queries) Project {
	t.Helper()
	now := time.Now()
	p, err := q.CreateProject(ctx, CreateProjectParams{
		Name:      "Acme",
		Uri:       "acme",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestCreateProject(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	if p.ID == 0 {
		t.Error("project.ID should not be 0")
	}
	if p.Uri != "acme" {
		t.Errorf("Uri = %q, want %q", p.Uri, "acme")
	}

	got, err := q.GetProjectByURI(ctx, "acme")
	if err != nil {
		t.Fatalf("GetProjectByURI: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %d, want %d", got.ID, p.ID)
	}
}

func TestContactEmailUniquePerProject(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	now := time.Now()

	if _, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p.ID, Email: "a@example.com", Name: "A",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	// Same email in the same project must fail.
	if _, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p.ID, Email: "a@example.com", Name: "A again",
		CreatedAt: now, UpdatedAt: now,
	}); err == nil {
		t.Error("duplicate email in project should fail")
	}

	// Same email in a different project is fine.
	p2, err := q.CreateProject(ctx, CreateProjectParams{
		Name: "Other", Uri: "other", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p2.ID, Email: "a@example.com", Name: "A elsewhere",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Errorf("same email in another project: %v", err)
	}
}

func TestContactTags(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	now := time.Now()

	c, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p.ID, Email: "c@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	vip, err := q.CreateTag(ctx, CreateTagParams{ProjectID: p.ID, Name: "VIP", Slug: "vip", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := q.AddContactTag(ctx, AddContactTagParams{ContactID: c.ID, TagID: vip.ID}); err != nil {
		t.Fatalf("AddContactTag: %v", err)
	}
	// Attaching twice is a no-op.
	if err := q.AddContactTag(ctx, AddContactTagParams{ContactID: c.ID, TagID: vip.ID}); err != nil {
		t.Fatalf("AddContactTag repeat: %v", err)
	}

	tags, err := q.ListContactTags(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListContactTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Slug != "vip" {
		t.Errorf("tags = %v, want single vip", tags)
	}

	if err := q.RemoveContactTag(ctx, RemoveContactTagParams{ContactID: c.ID, TagID: vip.ID}); err != nil {
		t.Fatalf("RemoveContactTag: %v", err)
	}
	tags, err = q.ListContactTags(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListContactTags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("tags after remove = %v, want empty", tags)
	}
}

func testAction(t *testing.T, ctx context.Context, q *Queries, projectID int64, parent sql.NullInt64, typ string, sortOrder int64) Action {
	t.Helper()
	a, err := q.CreateAction(ctx, CreateActionParams{
		ProjectID:  projectID,
		ParentID:   parent,
		Type:       typ,
		SortOrder:  sortOrder,
		Enabled:    1,
		Options:    "{}",
		ModifiedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	return a
}

func TestActionSubtree(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)

	root := testAction(t, ctx, q, p.ID, sql.NullInt64{}, "sequence", 0)
	child1 := testAction(t, ctx, q, p.ID, sql.NullInt64{Int64: root.ID, Valid: true}, "log", 0)
	child2 := testAction(t, ctx, q, p.ID, sql.NullInt64{Int64: root.ID, Valid: true}, "redirect", 1)
	grand := testAction(t, ctx, q, p.ID, sql.NullInt64{Int64: child1.ID, Valid: true}, "set_tags", 0)

	subtree, err := q.ListActionSubtree(ctx, root.ID)
	if err != nil {
		t.Fatalf("ListActionSubtree: %v", err)
	}
	if len(subtree) != 4 {
		t.Fatalf("subtree size = %d, want 4", len(subtree))
	}

	children, err := q.ListActionChildren(ctx, root.ID)
	if err != nil {
		t.Fatalf("ListActionChildren: %v", err)
	}
	if len(children) != 2 || children[0].ID != child1.ID || children[1].ID != child2.ID {
		t.Errorf("children order = %v, want [%d %d]", children, child1.ID, child2.ID)
	}

	// Deleting the root removes every descendant too.
	n, err := q.DeleteActionSubtree(ctx, root.ID)
	if err != nil {
		t.Fatalf("DeleteActionSubtree: %v", err)
	}
	if n != 4 {
		t.Errorf("deleted rows = %d, want 4", n)
	}
	if _, err := q.GetActionByID(ctx, grand.ID); err != sql.ErrNoRows {
		t.Errorf("grandchild still present after subtree delete: %v", err)
	}
}

func TestActionLinks(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	a := testAction(t, ctx, q, p.ID, sql.NullInt64{}, "redirect", 0)

	link, err := q.CreateActionLink(ctx, CreateActionLinkParams{
		ID:        "lk-123",
		ActionID:  a.ID,
		CustomUri: "welcome",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateActionLink: %v", err)
	}
	if link.ID != "lk-123" {
		t.Errorf("link.ID = %q, want lk-123", link.ID)
	}

	got, err := q.GetActionLink(ctx, "lk-123")
	if err != nil {
		t.Fatalf("GetActionLink: %v", err)
	}
	if got.ActionID != a.ID {
		t.Errorf("ActionID = %d, want %d", got.ActionID, a.ID)
	}

	// Deleting the action cascades into its links.
	if _, err := q.DeleteActionSubtree(ctx, a.ID); err != nil {
		t.Fatalf("DeleteActionSubtree: %v", err)
	}
	if _, err := q.GetActionLink(ctx, "lk-123"); err != sql.ErrNoRows {
		t.Errorf("link still present after action delete: %v", err)
	}
}

func TestPageURIUniquePerPortal(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	now := time.Now()

	portal, err := q.CreatePortal(ctx, CreatePortalParams{
		ProjectID: p.ID, Name: "Site", Uri: "site", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePortal: %v", err)
	}

	page, err := q.CreatePage(ctx, CreatePageParams{
		PortalID: portal.ID, Uri: "about", Name: "About", ModifiedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	exists, err := q.PageURIExists(ctx, PageURIExistsParams{PortalID: portal.ID, Uri: "about"})
	if err != nil {
		t.Fatalf("PageURIExists: %v", err)
	}
	if !exists {
		t.Error("PageURIExists = false, want true")
	}

	// The page itself is excluded when checking for rename conflicts.
	exists, err = q.PageURIExists(ctx, PageURIExistsParams{PortalID: portal.ID, Uri: "about", ExcludeID: page.ID})
	if err != nil {
		t.Fatalf("PageURIExists: %v", err)
	}
	if exists {
		t.Error("PageURIExists with self excluded = true, want false")
	}

	if _, err := q.CreatePage(ctx, CreatePageParams{
		PortalID: portal.ID, Uri: "about", Name: "Duplicate", ModifiedAt: now,
	}); err == nil {
		t.Error("duplicate page URI in portal should fail")
	}
}

func TestScheduledActionsDuePoll(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	a := testAction(t, ctx, q, p.ID, sql.NullInt64{}, "send_mail", 0)

	now := time.Now()
	past, err := q.CreateScheduledAction(ctx, CreateScheduledActionParams{
		ActionID: a.ID, RunAt: now.Add(-time.Minute), Status: "pending", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateScheduledAction: %v", err)
	}
	if _, err := q.CreateScheduledAction(ctx, CreateScheduledActionParams{
		ActionID: a.ID, RunAt: now.Add(time.Hour), Status: "pending", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateScheduledAction: %v", err)
	}

	due, err := q.ListDueScheduledActions(ctx, ListDueScheduledActionsParams{Now: now, Limit: 10})
	if err != nil {
		t.Fatalf("ListDueScheduledActions: %v", err)
	}
	if len(due) != 1 || due[0].ID != past.ID {
		t.Errorf("due = %v, want only the past row", due)
	}

	if err := q.UpdateScheduledActionStatus(ctx, past.ID, "done"); err != nil {
		t.Fatalf("UpdateScheduledActionStatus: %v", err)
	}
	due, err = q.ListDueScheduledActions(ctx, ListDueScheduledActionsParams{Now: now, Limit: 10})
	if err != nil {
		t.Fatalf("ListDueScheduledActions: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("due after done = %v, want empty", due)
	}
}

func TestMailDeliveryLifecycle(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	now := time.Now()

	msg, err := q.CreateMailMessage(ctx, CreateMailMessageParams{
		ProjectID: p.ID, Subject: "Hi", Body: "Hello **world**", IsMarkdown: 1,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMailMessage: %v", err)
	}

	c, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p.ID, Email: "d@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	d, err := q.CreateMailDelivery(ctx, CreateMailDeliveryParams{
		MessageID: msg.ID, ContactID: c.ID, Status: "pending", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateMailDelivery: %v", err)
	}

	pending, err := q.ListPendingMailDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingMailDeliveries: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != d.ID {
		t.Errorf("pending = %v, want single delivery", pending)
	}

	if err := q.UpdateMailDeliveryStatus(ctx, UpdateMailDeliveryStatusParams{
		ID: d.ID, Status: "sent", UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("UpdateMailDeliveryStatus: %v", err)
	}

	n, err := q.CountMailDeliveriesByStatus(ctx, CountMailDeliveriesByStatusParams{MessageID: msg.ID, Status: "sent"})
	if err != nil {
		t.Fatalf("CountMailDeliveriesByStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("sent count = %d, want 1", n)
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	p := testProject(t, ctx, q)
	now := time.Now()

	c, err := q.CreateContact(ctx, CreateContactParams{
		ProjectID: p.ID, Email: "gone@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	a := testAction(t, ctx, q, p.ID, sql.NullInt64{}, "log", 0)

	if err := q.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := q.GetContactByID(ctx, c.ID); err != sql.ErrNoRows {
		t.Errorf("contact survived project delete: %v", err)
	}
	if _, err := q.GetActionByID(ctx, a.ID); err != sql.ErrNoRows {
		t.Errorf("action survived project delete: %v", err)
	}
}
