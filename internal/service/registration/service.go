package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmhouse/user-service/internal/domain"
	"github.com/dmhouse/user-service/pkg/auth"
)

// UserRepository is the persistence seam of the registration workflow.
type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	DNIExists(ctx context.Context, dni string) (bool, error)
	CreateUser(ctx context.Context, u *domain.User) error
	SetActivo(ctx context.Context, id int64, activo bool) error
	UpdateTelefono(ctx context.Context, id int64, telefono string) error
}

// IdentifierGenerator produces the derived account identifiers.
type IdentifierGenerator interface {
	GenerateCVU(ctx context.Context) (string, error)
	GenerateAlias(ctx context.Context) (string, error)
}

// Service orchestrates validation, uniqueness checks, credential hashing
// and identifier generation to produce a new user.
type Service struct {
	users UserRepository
	ids   IdentifierGenerator
}

func NewService(users UserRepository, ids IdentifierGenerator) *Service {
	return &Service{users: users, ids: ids}
}

// Register creates a new active user. Everything fallible (validation,
// duplicate checks, hashing, identifier generation) happens before the
// single INSERT, so a failure anywhere leaves no partial record behind.
// The email duplicate is checked before the dni one so the reported error
// is deterministic when both collide.
func (s *Service) Register(ctx context.Context, in Input) (*domain.User, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Apellido = strings.TrimSpace(in.Apellido)
	in.DNI = strings.TrimSpace(in.DNI)
	in.Email = strings.TrimSpace(in.Email)
	in.Telefono = strings.TrimSpace(in.Telefono)

	if err := validate(in); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	taken, err = s.users.DNIExists(ctx, in.DNI)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateDNI
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	cvu, err := s.ids.GenerateCVU(ctx)
	if err != nil {
		return nil, err
	}

	alias, err := s.ids.GenerateAlias(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Nombre:       in.Nombre,
		Apellido:     in.Apellido,
		DNI:          in.DNI,
		Email:        in.Email,
		Telefono:     in.Telefono,
		PasswordHash: hash,
		CVU:          cvu,
		Alias:        alias,
		Activo:       true,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Deactivate soft-deletes a user. History is retained; the user just cannot
// authenticate anymore.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	return s.users.SetActivo(ctx, userID, false)
}

// Activate re-enables a previously deactivated user.
func (s *Service) Activate(ctx context.Context, userID int64) error {
	return s.users.SetActivo(ctx, userID, true)
}

// UpdateTelefono changes the user's phone number. An empty value clears it.
func (s *Service) UpdateTelefono(ctx context.Context, userID int64, telefono string) error {
	telefono = strings.TrimSpace(telefono)
	if telefono != "" && !phoneRe.MatchString(telefono) {
		return &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "telefono", Reason: "invalid format"},
		}}
	}
	return s.users.UpdateTelefono(ctx, userID, telefono)
}
