// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RedirectOptions configures a redirect action.
type RedirectOptions struct {
	URI string `json:"uri" validate:"required"`
}

// ScheduleOptions configures a schedule action: its enabled children run
// DelayMinutes after the triggering request.
type ScheduleOptions struct {
	DelayMinutes int64 `json:"delay_minutes" validate:"gte=0"`
}

// ConditionOptions configures a condition action. The children execute only
// when the subject contact carries every listed tag.
type ConditionOptions struct {
	RequiredTags []string `json:"required_tags" validate:"required,min=1"`
}

// SetTagsOptions configures a set-tags action: an include/exclude set applied
// to the subject contact.
type SetTagsOptions struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// SendMailOptions configures a send-mail action.
type SendMailOptions struct {
	MessageID int64 `json:"message_id" validate:"required,gt=0"`
}

// LogOptions configures a log action.
type LogOptions struct {
	Message string `json:"message"`
}

// decodeOptions unmarshals an action's options payload into the typed struct
// for its action type and validates it.
func decodeOptions[T any](raw string, out *T) error {
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding action options: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validating action options: %w", err)
	}
	return nil
}
