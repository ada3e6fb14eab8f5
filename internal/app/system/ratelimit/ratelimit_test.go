package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(3, time.Hour)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d: expected allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th request: expected blocked")
	}
	if !l.Allow("other") {
		t.Error("other key: expected allowed")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining: got %d, want 0", got)
	}

	l.Reset("k")
	if got := l.Remaining("k"); got != 3 {
		t.Errorf("Remaining after reset: got %d, want 3", got)
	}
	if !l.Allow("k") {
		t.Error("after reset: expected allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded list", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", "", "198.51.100.7", "10.0.0.2:1234", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/auth/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerAccount(t *testing.T) {
	ll := NewLoginLimiter(10, time.Hour)
	defer ll.Close()

	r := httptest.NewRequest("POST", "/auth/login", nil)
	for i := 0; i < 5; i++ {
		if ok, _ := ll.Check(r, "JDoe"); !ok {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}
	if ok, reason := ll.Check(r, "jdoe"); ok || reason == "" {
		t.Errorf("6th attempt: got (%v, %q), want blocked with reason", ok, reason)
	}

	if got := ll.Remaining(r); got != 4 {
		t.Errorf("Remaining for IP: got %d, want 4", got)
	}

	ll.ResetNetID("jdoe")
	if ok, _ := ll.Check(r, "jdoe"); !ok {
		t.Error("after reset: expected allowed")
	}
}
