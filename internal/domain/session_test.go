package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionValid(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		session Session
		now     time.Time
		want    bool
	}{
		{"active before expiry", Session{Active: true, ExpiresAt: base.Add(time.Hour)}, base, true},
		{"active at expiry instant", Session{Active: true, ExpiresAt: base}, base, false},
		{"active after expiry", Session{Active: true, ExpiresAt: base.Add(-time.Second)}, base, false},
		{"inactive before expiry", Session{Active: false, ExpiresAt: base.Add(time.Hour)}, base, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.Valid(tc.now); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionRemainingMinutes(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt time.Time
		want      int64
	}{
		{"ninety minutes left", base.Add(90 * time.Minute), 90},
		{"partial minute rounds down", base.Add(90*time.Minute + 30*time.Second), 90},
		{"expired clamps to zero", base.Add(-time.Hour), 0},
		{"exactly now", base, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Session{ExpiresAt: tc.expiresAt}
			if got := s.RemainingMinutes(base); got != tc.want {
				t.Errorf("RemainingMinutes() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSession_TokenHashNeverSerialized(t *testing.T) {
	s := Session{ID: 1, TokenHash: "super-secret-fingerprint", Active: true}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "super-secret-fingerprint") {
		t.Errorf("Marshal() output contains the token hash: %s", data)
	}
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	u := User{ID: 1, Email: "ana@x.com", PasswordHash: "$2a$12$opaque"}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "opaque") {
		t.Errorf("Marshal() output contains the password hash: %s", data)
	}
}
