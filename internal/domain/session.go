package domain

import "time"

// Session is one issued authentication token, tracked server-side so that
// stateless JWTs stay revocable. Only the SHA-256 fingerprint of the token
// is ever stored; the raw token never reaches persistence.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Valid reports whether the session is usable at the given instant:
// still active and strictly before its expiry. Validity is time-derived and
// must be recomputed on every check, never cached across requests.
func (s *Session) Valid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// Expired reports whether the expiry timestamp has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RemainingMinutes returns whole minutes until expiry, clamped at 0 once
// expired.
func (s *Session) RemainingMinutes(now time.Time) int64 {
	if !now.Before(s.ExpiresAt) {
		return 0
	}
	return int64(s.ExpiresAt.Sub(now) / time.Minute)
}
