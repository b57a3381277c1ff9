package identifier

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/dmhouse/user-service/internal/domain"
)

// fakeStore reports the first n checks as taken, then free.
type fakeStore struct {
	takenCvus    int
	takenAliases int
	cvuChecks    int
	aliasChecks  int
}

func (f *fakeStore) CvuExists(ctx context.Context, cvu string) (bool, error) {
	f.cvuChecks++
	return f.cvuChecks <= f.takenCvus, nil
}

func (f *fakeStore) AliasExists(ctx context.Context, alias string) (bool, error) {
	f.aliasChecks++
	return f.aliasChecks <= f.takenAliases, nil
}

func TestGenerateCVU_Format(t *testing.T) {
	g := NewGenerator(&fakeStore{})

	cvu, err := g.GenerateCVU(context.Background())
	if err != nil {
		t.Fatalf("GenerateCVU() error = %v, want nil", err)
	}
	if len(cvu) != 22 {
		t.Errorf("GenerateCVU() length = %d, want 22", len(cvu))
	}
	for _, ch := range cvu {
		if ch < '0' || ch > '9' {
			t.Errorf("GenerateCVU() = %q, contains non-digit %q", cvu, ch)
		}
	}
}

func TestGenerateAlias_Format(t *testing.T) {
	g := NewGenerator(&fakeStore{})
	aliasRe := regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

	alias, err := g.GenerateAlias(context.Background())
	if err != nil {
		t.Fatalf("GenerateAlias() error = %v, want nil", err)
	}
	if !aliasRe.MatchString(alias) {
		t.Errorf("GenerateAlias() = %q, want match for %s", alias, aliasRe)
	}
}

func TestGenerateCVU_RetriesOnCollision(t *testing.T) {
	store := &fakeStore{takenCvus: 3}
	g := NewGenerator(store)

	if _, err := g.GenerateCVU(context.Background()); err != nil {
		t.Fatalf("GenerateCVU() error = %v, want nil", err)
	}
	if store.cvuChecks != 4 {
		t.Errorf("uniqueness checks = %d, want 4", store.cvuChecks)
	}
}

func TestGenerateAlias_RetriesOnCollision(t *testing.T) {
	store := &fakeStore{takenAliases: 2}
	g := NewGenerator(store)

	if _, err := g.GenerateAlias(context.Background()); err != nil {
		t.Fatalf("GenerateAlias() error = %v, want nil", err)
	}
	if store.aliasChecks != 3 {
		t.Errorf("uniqueness checks = %d, want 3", store.aliasChecks)
	}
}

func TestGenerate_Exhausted(t *testing.T) {
	store := &fakeStore{takenCvus: maxAttempts + 1, takenAliases: maxAttempts + 1}
	g := NewGenerator(store)

	if _, err := g.GenerateCVU(context.Background()); !errors.Is(err, domain.ErrGenerationExhausted) {
		t.Errorf("GenerateCVU() error = %v, want ErrGenerationExhausted", err)
	}
	if _, err := g.GenerateAlias(context.Background()); !errors.Is(err, domain.ErrGenerationExhausted) {
		t.Errorf("GenerateAlias() error = %v, want ErrGenerationExhausted", err)
	}
}

func TestGenerate_StoreErrorSurfaces(t *testing.T) {
	g := NewGenerator(errStore{})

	if _, err := g.GenerateCVU(context.Background()); err == nil {
		t.Error("GenerateCVU() error = nil, want storage error")
	}
}

type errStore struct{}

func (errStore) CvuExists(ctx context.Context, cvu string) (bool, error) {
	return false, errors.New("storage unavailable")
}

func (errStore) AliasExists(ctx context.Context, alias string) (bool, error) {
	return false, errors.New("storage unavailable")
}
