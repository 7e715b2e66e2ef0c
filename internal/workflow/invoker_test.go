// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crmkit/crmkit/internal/auth"
	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/testutil"
)

type fakeMailer struct {
	sent []int64
	err  error
}

func (m *fakeMailer) Send(_ context.Context, _, messageID int64, _ store.Contact, _ map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, messageID)
	return nil
}

type fakeScheduler struct {
	enqueued []int64
	runAt    []time.Time
}

func (s *fakeScheduler) Enqueue(_ context.Context, actionID int64, _ *int64, runAt time.Time) error {
	s.enqueued = append(s.enqueued, actionID)
	s.runAt = append(s.runAt, runAt)
	return nil
}

type invokerFixture struct {
	ctx     context.Context
	db      *sql.DB
	project store.Project
	inv     *Invoker
	mailer  *fakeMailer
	sched   *fakeScheduler
}

func setupInvoker(t *testing.T) (*invokerFixture, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	ctx := context.Background()
	now := time.Now()
	project, err := store.New(db).CreateProject(ctx, store.CreateProjectParams{
		Name: "Acme", Uri: "acme", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		cleanup()
		t.Fatalf("CreateProject: %v", err)
	}
	mailer := &fakeMailer{}
	sched := &fakeScheduler{}
	inv := NewInvoker(
		service.NewContactService(db),
		service.NewEventService(db),
		mailer,
		sched,
		testutil.TestLoggerSilent(),
	)
	return &invokerFixture{
		ctx: ctx, db: db, project: project,
		inv: inv, mailer: mailer, sched: sched,
	}, cleanup
}

func node(id int64, projectID int64, typ, options string, children ...*service.ActionNode) *service.ActionNode {
	return &service.ActionNode{
		Action: store.Action{
			ID:        id,
			ProjectID: projectID,
			Type:      typ,
			Enabled:   1,
			Options:   options,
		},
		Children: children,
	}
}

func countEvents(t *testing.T, db *sql.DB) int {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{Limit: 100})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return len(events)
}

func TestSequenceShortCircuitsOnFirstResult(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	seq := node(1, f.project.ID, model.ActionTypeSequence, "{}",
		node(2, f.project.ID, model.ActionTypeLog, "{}"),
		node(3, f.project.ID, model.ActionTypeRedirect, `{"uri":"/x"}`),
		node(4, f.project.ID, model.ActionTypeLog, "{}"),
	)

	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, seq)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.Kind != ResultRedirect || res.URI != "/x" {
		t.Fatalf("result = %+v, want redirect to /x", res)
	}
	// Only the leading log ran; the trailing one sits behind the redirect.
	if n := countEvents(t, f.db); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

func TestSequenceSkipsDisabledChildren(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	disabled := node(2, f.project.ID, model.ActionTypeRedirect, `{"uri":"/skip"}`)
	disabled.Enabled = 0
	seq := node(1, f.project.ID, model.ActionTypeSequence, "{}",
		disabled,
		node(3, f.project.ID, model.ActionTypeRedirect, `{"uri":"/taken"}`),
	)

	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, seq)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.URI != "/taken" {
		t.Errorf("result = %+v, want redirect to /taken", res)
	}
}

func TestSequenceWithoutResultFallsThrough(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	seq := node(1, f.project.ID, model.ActionTypeSequence, "{}",
		node(2, f.project.ID, model.ActionTypeLog, "{}"),
	)
	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, seq)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil fallthrough", res)
	}
}

func TestAuthenticateRejectsAndAccepts(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	hash, err := auth.HashSecret("s3cret")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	contacts := service.NewContactService(f.db)
	if _, err := contacts.Create(f.ctx, f.project.ID, service.CreateContactParams{
		Email: "auth@example.com", SecretHash: hash,
	}); err != nil {
		t.Fatalf("Create contact: %v", err)
	}

	authNode := node(1, f.project.ID, model.ActionTypeAuthenticate, "{}",
		node(2, f.project.ID, model.ActionTypeRedirect, `{"uri":"/members"}`),
	)

	// Missing ticket: forbidden.
	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, authNode)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.Kind != ResultForbidden {
		t.Errorf("no ticket result = %+v, want forbidden", res)
	}

	// Wrong secret: forbidden.
	ec = NewExecutionContext(f.project, &AuthTicket{Email: "auth@example.com", Secret: "wrong"}, nil, EventItem{})
	res, err = f.inv.Invoke(f.ctx, ec, authNode)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.Kind != ResultForbidden {
		t.Errorf("wrong secret result = %+v, want forbidden", res)
	}

	// Valid ticket: contact resolved, children run.
	ec = NewExecutionContext(f.project, &AuthTicket{Email: "auth@example.com", Secret: "s3cret"}, nil, EventItem{})
	res, err = f.inv.Invoke(f.ctx, ec, authNode)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.Kind != ResultRedirect || res.URI != "/members" {
		t.Errorf("valid ticket result = %+v, want redirect to /members", res)
	}
	if ec.Contact == nil || ec.Contact.Email != "auth@example.com" {
		t.Error("valid ticket should resolve the contact onto the context")
	}

	// Unknown email: still forbidden, not an error.
	ec = NewExecutionContext(f.project, &AuthTicket{Email: "ghost@example.com", Secret: "s3cret"}, nil, EventItem{})
	res, err = f.inv.Invoke(f.ctx, ec, authNode)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.Kind != ResultForbidden {
		t.Errorf("unknown email result = %+v, want forbidden", res)
	}
}

func TestAuthenticateInfrastructureFailureIsNotForbidden(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	// A corrupt stored hash is an integrity problem, not a rejected ticket.
	contacts := service.NewContactService(f.db)
	if _, err := contacts.Create(f.ctx, f.project.ID, service.CreateContactParams{
		Email: "broken@example.com", SecretHash: "not-an-encoded-hash",
	}); err != nil {
		t.Fatalf("Create contact: %v", err)
	}

	authNode := node(1, f.project.ID, model.ActionTypeAuthenticate, "{}")
	ec := NewExecutionContext(f.project, &AuthTicket{Email: "broken@example.com", Secret: "s3cret"}, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, authNode)
	if err == nil {
		t.Fatal("Invoke should surface the hash decode failure")
	}
	if res != nil {
		t.Errorf("result = %+v, want nil alongside the error", res)
	}
}

func TestRegisterSetsContactState(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	reg := node(1, f.project.ID, model.ActionTypeRegister, "{}")

	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	ec.Properties["email"] = "new@example.com"
	ec.Properties["name"] = "New Person"

	if _, err := f.inv.Invoke(f.ctx, ec, reg); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if ec.Contact == nil || ec.ContactState != model.ContactStateCreated {
		t.Fatalf("state = %q with contact %v, want created", ec.ContactState, ec.Contact)
	}

	// Same data again: unchanged.
	ec2 := NewExecutionContext(f.project, nil, nil, EventItem{})
	ec2.Properties["email"] = "new@example.com"
	ec2.Properties["name"] = "New Person"
	if _, err := f.inv.Invoke(f.ctx, ec2, reg); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if ec2.ContactState != model.ContactStateUnchanged {
		t.Errorf("repeat state = %q, want unchanged", ec2.ContactState)
	}
}

func TestConditionGatesOnTags(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	contacts := service.NewContactService(f.db)
	contact, err := contacts.Create(f.ctx, f.project.ID, service.CreateContactParams{Email: "tagged@example.com"})
	if err != nil {
		t.Fatalf("Create contact: %v", err)
	}

	cond := node(1, f.project.ID, model.ActionTypeCondition, `{"required_tags":["vip"]}`,
		node(2, f.project.ID, model.ActionTypeRedirect, `{"uri":"/vip"}`),
	)

	ec := NewExecutionContext(f.project, nil, &contact, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, cond)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res != nil {
		t.Errorf("untagged contact result = %+v, want nil", res)
	}

	if err := contacts.SetTags(f.ctx, f.project.ID, contact.ID, []string{"vip"}, nil); err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	res, err = f.inv.Invoke(f.ctx, ec, cond)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res == nil || res.URI != "/vip" {
		t.Errorf("tagged contact result = %+v, want redirect to /vip", res)
	}
}

func TestScheduleEnqueuesChildrenWithoutBlocking(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	sched := node(1, f.project.ID, model.ActionTypeSchedule, `{"delay_minutes":30}`,
		node(2, f.project.ID, model.ActionTypeSendMail, `{"message_id":1}`),
		node(3, f.project.ID, model.ActionTypeLog, "{}"),
	)

	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, sched)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res != nil {
		t.Errorf("schedule result = %+v, want nil", res)
	}
	if len(f.sched.enqueued) != 2 {
		t.Fatalf("enqueued = %v, want both children", f.sched.enqueued)
	}
	if until := time.Until(f.sched.runAt[0]); until < 29*time.Minute || until > 31*time.Minute {
		t.Errorf("runAt %v, want ~30m out", f.sched.runAt[0])
	}
	// Nothing executed inline.
	if len(f.mailer.sent) != 0 {
		t.Errorf("mailer invoked inline: %v", f.mailer.sent)
	}
}

func TestSendMailFailurePropagates(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	contacts := service.NewContactService(f.db)
	contact, err := contacts.Create(f.ctx, f.project.ID, service.CreateContactParams{Email: "mail@example.com"})
	if err != nil {
		t.Fatalf("Create contact: %v", err)
	}

	f.mailer.err = fmt.Errorf("smtp unavailable")
	mail := node(1, f.project.ID, model.ActionTypeSendMail, `{"message_id":7}`)

	ec := NewExecutionContext(f.project, nil, &contact, EventItem{})
	_, err = f.inv.Invoke(f.ctx, ec, mail)
	if err == nil || !errors.Is(err, f.mailer.err) {
		t.Errorf("Invoke error = %v, want mailer failure", err)
	}
}

func TestSetTagsAppliesIncludeExclude(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	contacts := service.NewContactService(f.db)
	contact, err := contacts.Create(f.ctx, f.project.ID, service.CreateContactParams{Email: "tags@example.com"})
	if err != nil {
		t.Fatalf("Create contact: %v", err)
	}
	if err := contacts.SetTags(f.ctx, f.project.ID, contact.ID, []string{"old"}, nil); err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	setTags := node(1, f.project.ID, model.ActionTypeSetTags, `{"include":["fresh"],"exclude":["old"]}`)
	ec := NewExecutionContext(f.project, nil, &contact, EventItem{})
	if _, err := f.inv.Invoke(f.ctx, ec, setTags); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	tags, err := contacts.ContactTags(f.ctx, f.project.ID, contact.ID)
	if err != nil {
		t.Fatalf("ContactTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Slug != "fresh" {
		t.Errorf("tags = %v, want only fresh", tags)
	}
}

func TestUnknownTypeIsNoOp(t *testing.T) {
	f, cleanup := setupInvoker(t)
	defer cleanup()

	odd := node(1, f.project.ID, "teleport", "{}")
	ec := NewExecutionContext(f.project, nil, nil, EventItem{})
	res, err := f.inv.Invoke(f.ctx, ec, odd)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res != nil {
		t.Errorf("unknown type result = %+v, want nil", res)
	}
}
