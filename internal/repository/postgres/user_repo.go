package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmhouse/user-service/internal/domain"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userSelectFields = `id, nombre, apellido, dni, email, COALESCE(telefono, ''), password_hash, cvu, alias, activo, created_at, updated_at`

// scanUser is a helper that scans a row into a domain.User
func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Nombre,
		&u.Apellido,
		&u.DNI,
		&u.Email,
		&u.Telefono,
		&u.PasswordHash,
		&u.CVU,
		&u.Alias,
		&u.Activo,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser persists a new user in a single INSERT and fills in the
// generated id and timestamps. Unique indexes backstop the pre-insert
// duplicate checks, so a racing insert surfaces as a duplicate error here.
func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
	INSERT INTO users (nombre, apellido, dni, email, telefono, password_hash, cvu, alias, activo)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
	RETURNING id, created_at, updated_at;
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Nombre, u.Apellido, u.DNI, u.Email, u.Telefono,
		u.PasswordHash, u.CVU, u.Alias, u.Activo,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

// duplicateUserError maps a unique-index violation to the matching
// conflict error, or returns nil for anything else.
func duplicateUserError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return domain.ErrDuplicateEmail
	case "users_dni_key":
		return domain.ErrDuplicateDNI
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1;`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE email = $1;`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return u, nil
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepo) DNIExists(ctx context.Context, dni string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE dni = $1)`, dni)
}

func (r *UserRepo) CvuExists(ctx context.Context, cvu string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE cvu = $1)`, cvu)
}

func (r *UserRepo) AliasExists(ctx context.Context, alias string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE alias = $1)`, alias)
}

func (r *UserRepo) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := r.DB.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check uniqueness: %v", err)
	}
	return found, nil
}

// SetActivo toggles the soft-delete flag. Every mutation bumps updated_at;
// created_at is never touched after insert.
func (r *UserRepo) SetActivo(ctx context.Context, id int64, activo bool) error {
	query := `UPDATE users SET activo = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.DB.ExecContext(ctx, query, id, activo)
	if err != nil {
		return fmt.Errorf("failed to update activo flag: %v", err)
	}
	return nil
}

// UpdateTelefono updates a user's phone number
func (r *UserRepo) UpdateTelefono(ctx context.Context, id int64, telefono string) error {
	query := `UPDATE users SET telefono = NULLIF($2, ''), updated_at = NOW() WHERE id = $1;`
	_, err := r.DB.ExecContext(ctx, query, id, telefono)
	if err != nil {
		return fmt.Errorf("failed to update telefono: %v", err)
	}
	return nil
}
