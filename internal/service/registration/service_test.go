package registration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/dmhouse/user-service/internal/domain"
	"github.com/dmhouse/user-service/pkg/auth"
)

type fakeUserRepo struct {
	emails map[string]bool
	dnis   map[string]bool
	users  []*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{emails: map[string]bool{}, dnis: map[string]bool{}}
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.emails[email], nil
}

func (f *fakeUserRepo) DNIExists(ctx context.Context, dni string) (bool, error) {
	return f.dnis[dni], nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, u)
	f.emails[u.Email] = true
	f.dnis[u.DNI] = true
	return nil
}

func (f *fakeUserRepo) SetActivo(ctx context.Context, id int64, activo bool) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Activo = activo
			return nil
		}
	}
	return errors.New("user not found")
}

func (f *fakeUserRepo) UpdateTelefono(ctx context.Context, id int64, telefono string) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Telefono = telefono
			return nil
		}
	}
	return errors.New("user not found")
}

type fakeIDs struct{ fail bool }

func (f fakeIDs) GenerateCVU(ctx context.Context) (string, error) {
	if f.fail {
		return "", domain.ErrGenerationExhausted
	}
	return "0000000000000000000001", nil
}

func (f fakeIDs) GenerateAlias(ctx context.Context) (string, error) {
	if f.fail {
		return "", domain.ErrGenerationExhausted
	}
	return "sol.luna.mar", nil
}

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeIDs{})

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	if user.ID == 0 {
		t.Error("Register() user.ID = 0, want assigned id")
	}
	if !user.Activo {
		t.Error("Register() user.Activo = false, want true")
	}
	if len(user.CVU) != 22 {
		t.Errorf("Register() cvu length = %d, want 22", len(user.CVU))
	}
	if ok, _ := regexp.MatchString(`^[a-z]+\.[a-z]+\.[a-z]+$`, user.Alias); !ok {
		t.Errorf("Register() alias = %q, want word.word.word", user.Alias)
	}
	if user.PasswordHash == "secret123" {
		t.Error("Register() stored the raw password")
	}
	if !auth.CheckPasswordHash("secret123", user.PasswordHash) {
		t.Error("Register() stored hash does not verify against the raw password")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.emails["ana@x.com"] = true
	svc := NewService(repo, fakeIDs{})

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("Register() error = %v, want ErrDuplicateEmail", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("Register() created %d users, want 0", len(repo.users))
	}
}

func TestRegister_DuplicateDNI(t *testing.T) {
	repo := newFakeUserRepo()
	repo.dnis["30111222"] = true
	svc := NewService(repo, fakeIDs{})

	in := validInput()
	in.Email = "other@x.com" // same dni, different email

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrDuplicateDNI) {
		t.Fatalf("Register() error = %v, want ErrDuplicateDNI", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("Register() created %d users, want 0", len(repo.users))
	}
}

func TestRegister_EmailCheckedBeforeDNI(t *testing.T) {
	repo := newFakeUserRepo()
	repo.emails["ana@x.com"] = true
	repo.dnis["30111222"] = true
	svc := NewService(repo, fakeIDs{})

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("Register() error = %v, want ErrDuplicateEmail when both collide", err)
	}
}

func TestRegister_ValidationFailsBeforeStorage(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeIDs{})

	in := validInput()
	in.Password = "short"

	_, err := svc.Register(context.Background(), in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Register() error = %v, want *domain.ValidationError", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("Register() created %d users, want 0", len(repo.users))
	}
}

func TestRegister_GenerationFailureLeavesNoRecord(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeIDs{fail: true})

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrGenerationExhausted) {
		t.Fatalf("Register() error = %v, want ErrGenerationExhausted", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("Register() created %d users, want 0", len(repo.users))
	}
}

func TestUpdateTelefono(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeIDs{})

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	if err := svc.UpdateTelefono(context.Background(), user.ID, "+5491199998888"); err != nil {
		t.Fatalf("UpdateTelefono() error = %v, want nil", err)
	}
	if user.Telefono != "+5491199998888" {
		t.Errorf("Telefono = %q, want updated value", user.Telefono)
	}

	var verr *domain.ValidationError
	if err := svc.UpdateTelefono(context.Background(), user.ID, "abc"); !errors.As(err, &verr) {
		t.Fatalf("UpdateTelefono() error = %v, want *domain.ValidationError", err)
	}

	if err := svc.UpdateTelefono(context.Background(), user.ID, ""); err != nil {
		t.Fatalf("UpdateTelefono() clearing error = %v, want nil", err)
	}
	if user.Telefono != "" {
		t.Errorf("Telefono = %q, want cleared", user.Telefono)
	}
}

func TestDeactivateAndActivate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeIDs{})

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	if err := svc.Deactivate(context.Background(), user.ID); err != nil {
		t.Fatalf("Deactivate() error = %v, want nil", err)
	}
	if user.CanLogin() {
		t.Error("CanLogin() = true after Deactivate, want false")
	}

	if err := svc.Activate(context.Background(), user.ID); err != nil {
		t.Fatalf("Activate() error = %v, want nil", err)
	}
	if !user.CanLogin() {
		t.Error("CanLogin() = false after Activate, want true")
	}
}
