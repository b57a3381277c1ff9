package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmhouse/user-service/internal/domain"
)

type SessionRepo struct {
	DB *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db}
}

const sessionSelectFields = `id, user_id, token_hash, created_at, expires_at, active, COALESCE(ip_address, ''), COALESCE(user_agent, '')`

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.Active,
		&s.IPAddress,
		&s.UserAgent,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession persists a new active session row and fills in the generated
// id and creation timestamp. A token-hash collision (replay or, in theory, a
// hash collision) must not silently overwrite another session, so the unique
// index violation is surfaced as ErrDuplicateTokenHash.
func (r *SessionRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `
	INSERT INTO user_sessions (user_id, token_hash, expires_at, active, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	RETURNING id, created_at;
	`
	err := r.DB.QueryRowContext(ctx, query,
		s.UserID, s.TokenHash, s.ExpiresAt, s.Active, s.IPAddress, s.UserAgent,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateTokenHash
		}
		return fmt.Errorf("failed to create session: %v", err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token fingerprint. A miss is a
// nil result, not an error.
func (r *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `SELECT ` + sessionSelectFields + ` FROM user_sessions WHERE token_hash = $1;`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}
	return s, nil
}

// Deactivate marks a session as inactive. Idempotent: deactivating an
// already-inactive session matches zero rows and is not an error.
func (r *SessionRepo) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE user_sessions SET active = FALSE WHERE id = $1;`
	_, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %v", err)
	}
	return nil
}

// DeactivateAllForUser marks every session of a user created at or before
// the cutoff as inactive. The cutoff makes the sweep a snapshot: a session
// created after it survives, so the sweep races safely with concurrent
// logins.
func (r *SessionRepo) DeactivateAllForUser(ctx context.Context, userID int64, cutoff time.Time) (int64, error) {
	query := `
	UPDATE user_sessions
	SET active = FALSE
	WHERE user_id = $1 AND active = TRUE AND created_at <= $2;
	`
	result, err := r.DB.ExecContext(ctx, query, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate user sessions: %v", err)
	}
	return result.RowsAffected()
}

// ListActiveForUser retrieves the currently active sessions of a user
func (r *SessionRepo) ListActiveForUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	query := `
	SELECT ` + sessionSelectFields + `
	FROM user_sessions
	WHERE user_id = $1 AND active = TRUE
	ORDER BY created_at DESC;
	`
	return r.querySessions(ctx, query, userID)
}

// ListForUser retrieves recent sessions for a user, newest first
func (r *SessionRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Session, error) {
	query := `
	SELECT ` + sessionSelectFields + `
	FROM user_sessions
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	return r.querySessions(ctx, query, userID, limit)
}

func (r *SessionRepo) querySessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %v", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.TokenHash,
			&s.CreatedAt,
			&s.ExpiresAt,
			&s.Active,
			&s.IPAddress,
			&s.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %v", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %v", err)
	}

	return sessions, nil
}

// DeleteExpired hard-deletes every session whose expiry is in the past,
// regardless of the active flag. Safe to run concurrently with everything
// else since it only removes rows already past usability.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at < $1;`
	result, err := r.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %v", err)
	}
	return result.RowsAffected()
}
