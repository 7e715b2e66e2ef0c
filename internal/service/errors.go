// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// statuses with errors.Is; everything else is treated as an internal error.
var (
	// ErrInvalidArgument indicates a missing or malformed required input
	// (400 Bad Request).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the referenced row is absent or belongs to a
	// different scope (404 Not Found).
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation indicates a structurally illegal request
	// (422 Unprocessable Entity).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConflict indicates a uniqueness or concurrency violation
	// (409 Conflict).
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates a rejected authentication ticket (403 Forbidden).
	ErrForbidden = errors.New("forbidden")

	// ErrReferenceActionRoot is returned when a move targets a root action as
	// its reference; roots cannot receive siblings this way.
	ErrReferenceActionRoot = fmt.Errorf("%w: reference action cannot be root", ErrInvalidOperation)

	// ErrMasterCycle is returned when assigning a master page would make the
	// master chain circular.
	ErrMasterCycle = fmt.Errorf("%w: master chain would form a cycle", ErrInvalidOperation)
)
