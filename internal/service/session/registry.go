package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dmhouse/user-service/internal/domain"
	"github.com/dmhouse/user-service/pkg/auth"
)

const sessionKeyPrefix = "session:"
const blockedTokenKeyPrefix = "blocked_token:"

// Repository is the persistence seam of the registry. Storage failures are
// surfaced unchanged; retry policy belongs to the caller, not this layer.
type Repository interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Deactivate(ctx context.Context, id int64) error
	DeactivateAllForUser(ctx context.Context, userID int64, cutoff time.Time) (int64, error)
	ListActiveForUser(ctx context.Context, userID int64) ([]domain.Session, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cache is an optional read-through cache plus revocation blocklist.
// A nil Cache degrades the registry to storage-only.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Registry is the single source of truth for "is this token still good":
// it maps token fingerprints to session records and owns their lifecycle.
type Registry struct {
	repo  Repository
	cache Cache
}

func NewRegistry(repo Repository, cache Cache) *Registry {
	return &Registry{repo: repo, cache: cache}
}

// Create persists a new active session for the given token fingerprint.
// expiresAt must be exactly the expiry encoded in the token itself.
// A fingerprint collision fails with ErrDuplicateTokenHash rather than
// silently overwriting another session.
func (r *Registry) Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time, ipAddress, userAgent string) (*domain.Session, error) {
	s := &domain.Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		Active:    true,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := r.repo.CreateSession(ctx, s); err != nil {
		return nil, err
	}

	if err := r.cacheSet(ctx, s); err != nil {
		log.Printf("[SESSION] Warning: Failed to cache session: %v", err)
	}

	return s, nil
}

// FindByTokenHash is a pure lookup: a miss is a nil result, not an error.
func (r *Registry) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	if r.cache != nil {
		if s, err := r.cacheGet(ctx, tokenHash); err == nil && s != nil {
			return s, nil
		}
	}

	s, err := r.repo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if err := r.cacheSet(ctx, s); err != nil {
			log.Printf("[SESSION] Warning: Failed to populate cache: %v", err)
		}
	}
	return s, nil
}

// IsValid reports whether the session is usable right now. Evaluated at
// call time on every check; a prior result must never be trusted, because
// time advances and invalidation can race.
func (r *Registry) IsValid(s *domain.Session) bool {
	return s != nil && s.Valid(time.Now())
}

// Invalidate marks the session inactive (single-session logout). Idempotent:
// invalidating an already-inactive session is a no-op, not an error. The
// transition is one-way; the row is kept for audit.
func (r *Registry) Invalidate(ctx context.Context, s *domain.Session) error {
	if err := r.repo.Deactivate(ctx, s.ID); err != nil {
		return err
	}
	s.Active = false
	r.evict(ctx, s)
	return nil
}

// InvalidateAllForUser deactivates every session of the user that exists at
// the snapshot instant ("logout everywhere"). A session created strictly
// after the snapshot survives, which makes the sweep race safely with
// concurrent logins instead of silently resurrecting or killing them.
func (r *Registry) InvalidateAllForUser(ctx context.Context, userID int64) error {
	snapshot := time.Now()

	active, err := r.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := r.repo.DeactivateAllForUser(ctx, userID, snapshot); err != nil {
		return err
	}

	for i := range active {
		s := active[i]
		if !s.CreatedAt.After(snapshot) {
			r.evict(ctx, &s)
		}
	}
	return nil
}

// PurgeExpired hard-deletes every session whose expiry predates now,
// active or not. Independent cleanup, not logical invalidation; cached
// entries need no eviction here because their TTL matches the session's
// remaining life.
func (r *Registry) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.repo.DeleteExpired(ctx, now)
}

// History returns the user's most recent sessions for audit views.
func (r *Registry) History(ctx context.Context, userID int64, limit int) ([]domain.Session, error) {
	return r.repo.ListForUser(ctx, userID, limit)
}

// ValidateToken is the full check every protected request goes through:
// JWT signature, revocation blocklist, then the server-side session record.
func (r *Registry) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, *domain.Session, error) {
	claims, err := auth.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	tokenHash := auth.HashToken(tokenString)

	if r.isTokenBlocked(ctx, tokenHash) {
		return nil, nil, errors.New("session has been revoked")
	}

	s, err := r.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, nil, fmt.Errorf("session lookup failed: %v", err)
	}
	if s == nil {
		return nil, nil, errors.New("session not found")
	}
	if !r.IsValid(s) {
		return nil, nil, errors.New("session invalidated or expired")
	}

	return claims, s, nil
}

// evict removes the session from the cache and blocklists its fingerprint
// for whatever life the token has left.
func (r *Registry) evict(ctx context.Context, s *domain.Session) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, sessionKeyPrefix+s.TokenHash); err != nil {
		log.Printf("[SESSION] Warning: Failed to evict session from cache: %v", err)
	}
	if ttl := time.Until(s.ExpiresAt); ttl > 0 {
		if err := r.cache.Set(ctx, blockedTokenKeyPrefix+s.TokenHash, "1", ttl); err != nil {
			log.Printf("[SESSION] Warning: Failed to blocklist token: %v", err)
		}
	}
}

func (r *Registry) isTokenBlocked(ctx context.Context, tokenHash string) bool {
	if r.cache == nil {
		return false
	}
	val, err := r.cache.Get(ctx, blockedTokenKeyPrefix+tokenHash)
	return err == nil && val != ""
}

func (r *Registry) cacheSet(ctx context.Context, s *domain.Session) error {
	if r.cache == nil {
		return nil
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedSession{
		ID:        s.ID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Active:    s.Active,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
	})
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, sessionKeyPrefix+s.TokenHash, data, ttl)
}

func (r *Registry) cacheGet(ctx context.Context, tokenHash string) (*domain.Session, error) {
	data, err := r.cache.Get(ctx, sessionKeyPrefix+tokenHash)
	if err != nil {
		return nil, err
	}
	var cached cachedSession
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        cached.ID,
		UserID:    cached.UserID,
		TokenHash: tokenHash,
		CreatedAt: cached.CreatedAt,
		ExpiresAt: cached.ExpiresAt,
		Active:    cached.Active,
		IPAddress: cached.IPAddress,
		UserAgent: cached.UserAgent,
	}, nil
}

// cachedSession is the cache wire form. The token hash is the cache key,
// not part of the value, and domain.Session deliberately refuses to
// serialize it.
type cachedSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
