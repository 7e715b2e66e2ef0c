// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Contact states as seen by a workflow execution. The state travels with the
// execution context so later actions know whether the subject contact was
// touched earlier in the same traversal.
const (
	ContactStateUnchanged = "unchanged"
	ContactStateCreated   = "created"
	ContactStateUpdated   = "updated"
)
