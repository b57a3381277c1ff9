package auth

import (
	"regexp"
	"testing"
)

func TestHashToken(t *testing.T) {
	hash := HashToken("some-jwt-token")

	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hash))
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(hash) {
		t.Errorf("not lowercase hex: %q", hash)
	}
	if HashToken("some-jwt-token") != hash {
		t.Error("hashing is not deterministic")
	}
	if HashToken("another-token") == hash {
		t.Error("distinct tokens produced the same fingerprint")
	}
}
