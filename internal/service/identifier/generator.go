package identifier

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmhouse/user-service/internal/domain"
)

const (
	cvuLength  = 22
	aliasWords = 3

	// Collisions are vanishingly rare (10^22 CVU space), so the cap is a
	// safety net against a near-exhausted identifier space looping forever.
	maxAttempts = 1000
)

// Alias vocabulary. Aliases are three words drawn with replacement, joined
// with dots.
var vocabulary = []string{
	"sol", "luna", "estrella", "mar", "rio", "monte", "valle", "bosque",
	"flor", "arbol", "piedra", "viento", "fuego", "agua", "tierra", "cielo",
}

// Store answers whether a candidate identifier is already taken.
type Store interface {
	CvuExists(ctx context.Context, cvu string) (bool, error)
	AliasExists(ctx context.Context, alias string) (bool, error)
}

// Generator produces globally-unique CVU and alias values by repeated
// random draw plus a uniqueness check against storage.
type Generator struct {
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// GenerateCVU returns a unique 22-digit numeric string.
func (g *Generator) GenerateCVU(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cvu, err := randomDigits(cvuLength)
		if err != nil {
			return "", fmt.Errorf("failed to draw cvu: %v", err)
		}

		taken, err := g.store.CvuExists(ctx, cvu)
		if err != nil {
			return "", err
		}
		if !taken {
			return cvu, nil
		}
	}
	return "", domain.ErrGenerationExhausted
}

// GenerateAlias returns a unique "word.word.word" alias.
func (g *Generator) GenerateAlias(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		words := make([]string, aliasWords)
		for i := range words {
			n, err := randomInt(len(vocabulary))
			if err != nil {
				return "", fmt.Errorf("failed to draw alias word: %v", err)
			}
			words[i] = vocabulary[n]
		}
		alias := strings.Join(words, ".")

		taken, err := g.store.AliasExists(ctx, alias)
		if err != nil {
			return "", err
		}
		if !taken {
			return alias, nil
		}
	}
	return "", domain.ErrGenerationExhausted
}

func randomDigits(n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		d, err := randomInt(10)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d))
	}
	return sb.String(), nil
}

// randomInt draws a uniform int in [0, n) from crypto/rand.
func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
