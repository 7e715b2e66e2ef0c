// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workflow interprets a project's action tree against one inbound
// request: a single traversal that threads contact and authentication state
// through typed workflow steps.
package workflow

import (
	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
)

// AuthTicket carries the identity a visitor presented with the request.
type AuthTicket struct {
	Email  string
	Secret string
}

// EventItem is the request telemetry travelling with an execution.
type EventItem struct {
	ClientID    string
	AnonymousID string
	Referrer    string
	Browser     string
	IPAddress   string
	CountryCode string
}

// ExecutionContext is the per-request state of one workflow traversal. It is
// constructed per invocation and discarded after the response; side effects
// write through the collaborating services.
type ExecutionContext struct {
	Project      store.Project
	AuthTicket   *AuthTicket
	Contact      *store.Contact
	ContactState string
	Properties   map[string]string
	Event        EventItem
}

// NewExecutionContext creates a context for one traversal.
func NewExecutionContext(project store.Project, ticket *AuthTicket, contact *store.Contact, event EventItem) *ExecutionContext {
	return &ExecutionContext{
		Project:      project,
		AuthTicket:   ticket,
		Contact:      contact,
		ContactState: model.ContactStateUnchanged,
		Properties:   make(map[string]string),
		Event:        event,
	}
}
