// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAction   = "action"
	EventCategoryContact  = "contact"
	EventCategoryMail     = "mail"
	EventCategoryPage     = "page"
	EventCategoryPortal   = "portal"
	EventCategoryProject  = "project"
	EventCategorySystem   = "system"
	EventCategoryWorkflow = "workflow"
)
