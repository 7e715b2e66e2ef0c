// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Mail delivery statuses
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// Scheduled action statuses
const (
	ScheduleStatusPending = "pending"
	ScheduleStatusDone    = "done"
	ScheduleStatusFailed  = "failed"
)
