// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestLookupCountryDisabled(t *testing.T) {
	g := NewLookup()

	// Uninitialized: always empty.
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("uninitialized lookup = %q, want empty", got)
	}

	// Initialized with empty path: disabled but local detection still works.
	if err := g.Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true with empty path")
	}

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.16.0.1", "LOCAL"},
		{"192.168.1.1", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"8.8.8.8", ""},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := g.LookupCountry(tt.ip); got != tt.want {
			t.Errorf("LookupCountry(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestInitMissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("Init should fail for a missing database file")
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true after failed Init")
	}
}
