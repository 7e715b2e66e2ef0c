// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth(testKey)(okHandler())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testKey, http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + testKey, http.StatusOK},
		{"valid case-insensitive scheme", "bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler())

	send := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/l/abc", nil)
		r.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	// Burst of 2 per IP, then rejected.
	if got := send("10.0.0.1"); got != http.StatusOK {
		t.Errorf("first = %d", got)
	}
	if got := send("10.0.0.1"); got != http.StatusOK {
		t.Errorf("second = %d", got)
	}
	if got := send("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Errorf("third = %d, want 429", got)
	}

	// A different IP has its own budget.
	if got := send("10.0.0.2"); got != http.StatusOK {
		t.Errorf("other ip = %d", got)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:443"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("remote addr ip = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("forwarded ip = %q", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := ClientIP(r); got != "198.51.100.2" {
		t.Errorf("real ip = %q", got)
	}
}
