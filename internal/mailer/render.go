// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/crmkit/crmkit/internal/store"
)

// RenderedMail is a message body prepared for one contact.
type RenderedMail struct {
	Subject string
	Body    string
	HTML    bool
}

// RenderMessage applies placeholder substitutions to a mail template and,
// for markdown templates, converts the body to HTML. Placeholders use the
// form {{key}}; the contact's email and name are always available.
func RenderMessage(msg store.MailMessage, contact store.Contact, substitutions map[string]string) (RenderedMail, error) {
	values := map[string]string{
		"email": contact.Email,
		"name":  contact.Name,
	}
	for k, v := range substitutions {
		values[k] = v
	}

	subject := substitute(msg.Subject, values)
	body := substitute(msg.Body, values)

	if msg.IsMarkdown == 0 {
		return RenderedMail{Subject: subject, Body: body}, nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return RenderedMail{}, fmt.Errorf("rendering markdown body: %w", err)
	}
	return RenderedMail{Subject: subject, Body: buf.String(), HTML: true}, nil
}

func substitute(text string, values map[string]string) string {
	for k, v := range values {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}
