// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Action types. The type determines how the workflow invoker interprets a
// node and its children.
const (
	ActionTypeRedirect     = "redirect"
	ActionTypeSequence     = "sequence"
	ActionTypeSchedule     = "schedule"
	ActionTypeCondition    = "condition"
	ActionTypeAuthenticate = "authenticate"
	ActionTypeRegister     = "register"
	ActionTypeUnregister   = "unregister"
	ActionTypeSetTags      = "set_tags"
	ActionTypeSendMail     = "send_mail"
	ActionTypeLog          = "log"
)

// ValidActionTypes contains all action types the invoker dispatches on.
var ValidActionTypes = []string{
	ActionTypeRedirect,
	ActionTypeSequence,
	ActionTypeSchedule,
	ActionTypeCondition,
	ActionTypeAuthenticate,
	ActionTypeRegister,
	ActionTypeUnregister,
	ActionTypeSetTags,
	ActionTypeSendMail,
	ActionTypeLog,
}

// IsValidActionType checks if a type value is a known action type.
// Unknown types are tolerated by the invoker (no-op) but rejected on write.
func IsValidActionType(t string) bool {
	for _, v := range ValidActionTypes {
		if v == t {
			return true
		}
	}
	return false
}
