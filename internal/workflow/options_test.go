// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import "testing"

func TestDecodeOptions(t *testing.T) {
	var redirect RedirectOptions
	if err := decodeOptions(`{"uri":"/welcome"}`, &redirect); err != nil {
		t.Fatalf("decode redirect: %v", err)
	}
	if redirect.URI != "/welcome" {
		t.Errorf("URI = %q", redirect.URI)
	}

	// Empty payload fails required fields.
	redirect = RedirectOptions{}
	if err := decodeOptions("", &redirect); err == nil {
		t.Error("empty redirect options should fail validation")
	}

	var sched ScheduleOptions
	if err := decodeOptions(`{"delay_minutes":-5}`, &sched); err == nil {
		t.Error("negative delay should fail validation")
	}
	if err := decodeOptions(`{"delay_minutes":0}`, &sched); err != nil {
		t.Errorf("zero delay: %v", err)
	}

	var cond ConditionOptions
	if err := decodeOptions(`{"required_tags":[]}`, &cond); err == nil {
		t.Error("empty required_tags should fail validation")
	}

	var mail SendMailOptions
	if err := decodeOptions(`{"message_id":0}`, &mail); err == nil {
		t.Error("zero message_id should fail validation")
	}

	// Malformed JSON is a decode error, not a panic.
	var tags SetTagsOptions
	if err := decodeOptions(`{"include":`, &tags); err == nil {
		t.Error("malformed payload should fail")
	}
}
