// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

// ResultKind classifies the outcome a traversal hands back to the HTTP layer.
type ResultKind string

const (
	// ResultRedirect tells the caller to issue a redirect to Result.URI.
	ResultRedirect ResultKind = "redirect"

	// ResultForbidden tells the caller the authentication step rejected the
	// ticket; the traversal of the current branch stopped.
	ResultForbidden ResultKind = "forbidden"
)

// Result is the terminal outcome of a traversal. A nil *Result means the
// walk produced nothing and the caller falls through to its default OK
// response.
type Result struct {
	Kind ResultKind
	URI  string
}

// RedirectResult builds a redirect outcome.
func RedirectResult(uri string) *Result {
	return &Result{Kind: ResultRedirect, URI: uri}
}

// ForbiddenResult builds a forbidden outcome.
func ForbiddenResult() *Result {
	return &Result{Kind: ResultForbidden}
}
