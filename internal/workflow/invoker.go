// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crmkit/crmkit/internal/auth"
	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/service"
	"github.com/crmkit/crmkit/internal/store"
)

// Mailer dispatches a mail message to a contact. Send queues the delivery;
// the actual transport happens out of band.
type Mailer interface {
	Send(ctx context.Context, projectID, messageID int64, contact store.Contact, substitutions map[string]string) error
}

// Scheduler enqueues a deferred execution of an action for a later time.
// Enqueue returns immediately without blocking the traversal.
type Scheduler interface {
	Enqueue(ctx context.Context, actionID int64, contactID *int64, runAt time.Time) error
}

// Invoker walks one action tree node against an execution context. Traversal
// order is deterministic: enabled children in ascending sort order, first
// produced result wins.
type Invoker struct {
	contacts *service.ContactService
	events   *service.EventService
	mailer   Mailer
	sched    Scheduler
	log      *slog.Logger
}

// NewInvoker creates an Invoker wired to its collaborators.
func NewInvoker(contacts *service.ContactService, events *service.EventService, mailer Mailer, sched Scheduler, log *slog.Logger) *Invoker {
	return &Invoker{
		contacts: contacts,
		events:   events,
		mailer:   mailer,
		sched:    sched,
		log:      log,
	}
}

// Invoke interprets one node. A nil result with nil error means the node
// produced nothing and the caller responds with its default OK.
func (inv *Invoker) Invoke(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	if node == nil {
		return nil, service.ErrNotFound
	}
	if node.Enabled == 0 {
		return nil, nil
	}

	switch node.Type {
	case model.ActionTypeRedirect:
		return inv.redirect(node)
	case model.ActionTypeSequence:
		return inv.sequence(ctx, ec, node)
	case model.ActionTypeSchedule:
		return nil, inv.schedule(ctx, ec, node)
	case model.ActionTypeCondition:
		return inv.condition(ctx, ec, node)
	case model.ActionTypeAuthenticate:
		return inv.authenticate(ctx, ec, node)
	case model.ActionTypeRegister:
		return inv.register(ctx, ec, node)
	case model.ActionTypeUnregister:
		return nil, inv.unregister(ctx, ec)
	case model.ActionTypeSetTags:
		return inv.setTags(ctx, ec, node)
	case model.ActionTypeSendMail:
		return inv.sendMail(ctx, ec, node)
	case model.ActionTypeLog:
		return inv.logAction(ctx, ec, node)
	default:
		// Unknown types are tolerated as no-ops so a newer tree still runs
		// on an older build.
		inv.log.Warn("skipping unknown action type",
			"action_id", node.ID, "type", node.Type)
		return nil, nil
	}
}

func (inv *Invoker) redirect(node *service.ActionNode) (*Result, error) {
	var opts RedirectOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return nil, err
	}
	return RedirectResult(opts.URI), nil
}

// sequence runs the enabled children in ascending sort order and
// short-circuits on the first child producing a result.
func (inv *Invoker) sequence(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	return inv.runChildren(ctx, ec, node)
}

func (inv *Invoker) runChildren(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	for _, child := range node.Children {
		if child.Enabled == 0 {
			continue
		}
		res, err := inv.Invoke(ctx, ec, child)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// schedule enqueues the enabled children for deferred execution and returns
// immediately.
func (inv *Invoker) schedule(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) error {
	var opts ScheduleOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return err
	}
	runAt := time.Now().UTC().Add(time.Duration(opts.DelayMinutes) * time.Minute)
	var contactID *int64
	if ec.Contact != nil {
		contactID = &ec.Contact.ID
	}
	for _, child := range node.Children {
		if child.Enabled == 0 {
			continue
		}
		if err := inv.sched.Enqueue(ctx, child.ID, contactID, runAt); err != nil {
			return err
		}
	}
	return nil
}

// condition runs the children only when the subject contact carries every
// required tag. Without a contact the predicate fails.
func (inv *Invoker) condition(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	var opts ConditionOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return nil, err
	}
	if ec.Contact == nil {
		return nil, nil
	}
	match, err := inv.contacts.HasTags(ctx, ec.Project.ID, ec.Contact.ID, opts.RequiredTags)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, nil
	}
	return inv.runChildren(ctx, ec, node)
}

// authenticate validates the ticket against the contact store. Failure is
// the one terminal failure-style outcome: the current branch stops with
// Forbidden; success resolves the contact and continues into the children.
func (inv *Invoker) authenticate(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	if ec.AuthTicket == nil {
		return ForbiddenResult(), nil
	}
	contact, err := inv.contacts.GetByEmail(ctx, ec.Project.ID, ec.AuthTicket.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return ForbiddenResult(), nil
		}
		return nil, err
	}
	if contact.SecretHash == "" {
		return ForbiddenResult(), nil
	}
	ok, err := auth.CheckSecret(ec.AuthTicket.Secret, contact.SecretHash)
	if err != nil {
		return nil, fmt.Errorf("checking ticket secret: %w", err)
	}
	if !ok {
		return ForbiddenResult(), nil
	}
	ec.Contact = &contact
	return inv.runChildren(ctx, ec, node)
}

// register creates or updates the subject contact from the request
// properties and records the resulting state on the context.
func (inv *Invoker) register(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	email := ec.Properties["email"]
	name := ec.Properties["name"]
	result, err := inv.contacts.Register(ctx, ec.Project.ID, email, name)
	if err != nil {
		return nil, err
	}
	ec.Contact = &result.Contact
	ec.ContactState = result.State
	return inv.runChildren(ctx, ec, node)
}

// unregister deletes the subject contact permanently.
func (inv *Invoker) unregister(ctx context.Context, ec *ExecutionContext) error {
	if ec.Contact == nil {
		return nil
	}
	if err := inv.contacts.Delete(ctx, ec.Project.ID, ec.Contact.ID); err != nil {
		return err
	}
	ec.Contact = nil
	ec.ContactState = model.ContactStateUnchanged
	return nil
}

// setTags applies the include/exclude tag set to the subject contact.
func (inv *Invoker) setTags(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	var opts SetTagsOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return nil, err
	}
	if ec.Contact != nil {
		if err := inv.contacts.SetTags(ctx, ec.Project.ID, ec.Contact.ID, opts.Include, opts.Exclude); err != nil {
			return nil, err
		}
	}
	return inv.runChildren(ctx, ec, node)
}

// sendMail dispatches the configured message to the subject contact. Send
// failures propagate instead of being swallowed.
func (inv *Invoker) sendMail(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	var opts SendMailOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return nil, err
	}
	if ec.Contact != nil {
		if err := inv.mailer.Send(ctx, ec.Project.ID, opts.MessageID, *ec.Contact, ec.Properties); err != nil {
			return nil, err
		}
	}
	return inv.runChildren(ctx, ec, node)
}

// logAction appends an audit event carrying the request telemetry.
func (inv *Invoker) logAction(ctx context.Context, ec *ExecutionContext, node *service.ActionNode) (*Result, error) {
	var opts LogOptions
	if err := decodeOptions(node.Options, &opts); err != nil {
		return nil, err
	}
	message := opts.Message
	if message == "" {
		message = "workflow action hit"
	}
	var contactID *int64
	if ec.Contact != nil {
		contactID = &ec.Contact.ID
	}
	_ = inv.events.LogWorkflowEvent(ctx, model.EventLevelInfo, message, &ec.Project.ID, contactID, ec.Event.IPAddress, map[string]any{
		"action_id":    node.ID,
		"client_id":    ec.Event.ClientID,
		"anonymous_id": ec.Event.AnonymousID,
		"referrer":     ec.Event.Referrer,
		"browser":      ec.Event.Browser,
		"country":      ec.Event.CountryCode,
	})
	return inv.runChildren(ctx, ec, node)
}
