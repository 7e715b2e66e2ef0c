// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout aborts requests that outlive the limit with a 503 in the API
// error envelope. The handler runs in its own goroutine and sees the
// deadline through the request context; the guarded writer makes sure
// exactly one side produces the response.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				if gw.claim() {
					WriteAPIError(w, http.StatusServiceUnavailable, "timeout", "Request timed out", nil)
				}
			}
		})
	}
}

// guardedWriter serializes writes between the handler goroutine and the
// timeout path. After the timeout claims the response, late handler
// writes are swallowed.
type guardedWriter struct {
	http.ResponseWriter
	mu         sync.Mutex
	headerSent bool
	timedOut   bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut || g.headerSent {
		return
	}
	g.headerSent = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut {
		return len(b), nil
	}
	if !g.headerSent {
		g.headerSent = true
		g.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return g.ResponseWriter.Write(b)
}

// claim reserves the response for the timeout path. It reports false
// when the handler already started writing.
func (g *guardedWriter) claim() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.headerSent {
		return false
	}
	g.timedOut = true
	return true
}
